package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is one purchasable variant, identified by the unique
// (product_code, color) pair. Rows are created on first sighting and
// updated in place on every later refresh or poll.
type Product struct {
	BaseModel

	// --- Identity ---
	ProductCode string `gorm:"size:50;uniqueIndex:idx_products_code_color;not null"` // display reference, e.g. 1255/768
	Color       string `gorm:"size:100;uniqueIndex:idx_products_code_color;not null"`

	// --- Catalog attributes ---
	Name          string          `gorm:"size:255"`
	Description   string          `gorm:"size:2048"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2)"`
	FamilyName    string          `gorm:"size:100"`
	SubfamilyName string          `gorm:"size:100"`
	ImageURL      string          `gorm:"size:512"`
	CategoryApiID int64           `gorm:"index"`

	// --- SEO triplet, used to rebuild detail-fetch URLs and the user-facing link ---
	SeoKeyword          string `gorm:"size:255"`
	SeoProductID        string `gorm:"size:50"`
	SeoDiscernProductID string `gorm:"size:50;index"`
	ProductLink         string `gorm:"size:512"`

	// --- Owned sizes, cascade-deleted with the product ---
	Sizes []Size `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// FindSize locates an owned size by its case-insensitive label. Nil when no
// size matches.
func (p *Product) FindSize(name string) *Size {
	for i := range p.Sizes {
		if strings.EqualFold(p.Sizes[i].Name, name) {
			return &p.Sizes[i]
		}
	}
	return nil
}

// Size is one sub-variant of a product color, e.g. "M" or "40".
type Size struct {
	BaseModel

	ProductID    int64        `gorm:"index;not null"`
	Name         string       `gorm:"size:50;not null"`
	Availability Availability `gorm:"size:20;default:UNKNOWN"`
}

func (Size) TableName() string {
	return "sizes"
}
