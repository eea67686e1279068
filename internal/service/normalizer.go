package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/pkg/zara"
)

// Normalization of raw catalog documents into the canonical model.
// Everything here is best-effort over lists: a malformed element is
// skipped, its siblings survive.

const (
	imageWidthToken = "{width}"
	imageWidth      = "800"
)

var hundred = decimal.NewFromInt(100)

// NormalizePrice converts a minor-unit integer into a two-fraction-digit
// currency amount, rounding half-up. Displayed prices depend on this exact
// rounding mode.
func NormalizePrice(minorUnits int64) decimal.Decimal {
	return decimal.NewFromInt(minorUnits).DivRound(hundred, 2)
}

// ResolveImageURL substitutes the width placeholder of the first media
// entry. Empty when the color carries no media; the caller supplies a
// placeholder.
func ResolveImageURL(media []zara.XMedia) string {
	if len(media) == 0 || media[0].URL == "" {
		return ""
	}
	return strings.Replace(media[0].URL, imageWidthToken, imageWidth, 1)
}

// NormalizeCategory maps one raw category node and its whole subtree,
// preserving order and menu level.
func NormalizeCategory(dto zara.CategoryDTO) model.Category {
	category := model.Category{
		ApiID:            dto.ID,
		Name:             dto.Name,
		SectionName:      dto.SectionName,
		Layout:           dto.Layout,
		ContentType:      dto.ContentType,
		GridLayout:       dto.GridLayout,
		Key:              dto.Key,
		Redirected:       dto.Redirected,
		Selected:         dto.Selected,
		HasSubcategories: dto.HasSubcategories,
		Irrelevant:       dto.Irrelevant,
		MenuLevel:        dto.MenuLevel,
	}
	for _, sub := range dto.Subcategories {
		category.Subcategories = append(category.Subcategories, NormalizeCategory(sub))
	}
	return category
}

// NormalizeSizes maps raw size entries, skipping unparseable ones. The
// second return value counts the skipped entries so callers can log them.
func NormalizeSizes(dtos []zara.SizeDTO) ([]model.Size, int) {
	sizes := make([]model.Size, 0, len(dtos))
	skipped := 0
	for _, dto := range dtos {
		if strings.TrimSpace(dto.Name) == "" {
			skipped++
			continue
		}
		sizes = append(sizes, model.Size{
			Name:         dto.Name,
			Availability: model.ParseAvailability(dto.Availability),
		})
	}
	return sizes, skipped
}

// MergeSizes reconciles freshly normalized sizes against the stored set.
// Sizes matching by case-insensitive name keep their row identity and take
// the new availability; unmatched incoming sizes are added; stored sizes
// absent from the payload are dropped from the result.
func MergeSizes(existing, incoming []model.Size) []model.Size {
	merged := make([]model.Size, 0, len(incoming))
	for _, in := range incoming {
		found := false
		for i := range existing {
			if strings.EqualFold(existing[i].Name, in.Name) {
				kept := existing[i]
				kept.Availability = in.Availability
				merged = append(merged, kept)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, in)
		}
	}
	return merged
}
