package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/repository"
	"github.com/keremmican/zara-bot/pkg/zara"
)

// ==================== Test helpers ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}, &model.Size{}, &model.Subscription{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func seedProduct(t *testing.T, db *gorm.DB, code, color string, sizes ...model.Size) *model.Product {
	t.Helper()
	product := &model.Product{
		ProductCode:         code,
		Color:               color,
		Name:                "Test Product",
		SeoKeyword:          "test-product",
		SeoProductID:        "p100",
		SeoDiscernProductID: "d100",
		Sizes:               sizes,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func detailsPayload(displayReference string, colors ...zara.ColorDTO) []zara.ProductsDetailsItem {
	return []zara.ProductsDetailsItem{
		{Detail: &zara.DetailDTO{DisplayReference: displayReference, Colors: colors}},
	}
}

// ==================== RefreshSubscribedProduct ====================

func TestProductService_RefreshSubscribedProduct(t *testing.T) {
	db := setupServiceTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/products-details") {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, detailsPayload("1255/768", zara.ColorDTO{
			Name: "BLACK",
			Sizes: []zara.SizeDTO{
				{Name: "S", Availability: "OUT_OF_STOCK"},
				{Name: "M", Availability: "IN_STOCK"},
			},
		}))
	}))
	defer server.Close()

	productRepo := repository.NewProductRepository(db)
	svc := NewProductService(zara.NewClient(server.URL), productRepo)

	seeded := seedProduct(t, db, "1255/768", "BLACK",
		model.Size{Name: "S", Availability: model.AvailabilityOutOfStock},
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock},
	)
	originalSizeID := seeded.Sizes[1].ID

	subscription := &model.Subscription{ProductCode: "1255/768", Color: "BLACK", Size: "M"}
	product, err := svc.RefreshSubscribedProduct(context.Background(), subscription)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if product == nil {
		t.Fatal("product is nil")
	}

	match := product.FindSize("M")
	if match == nil {
		t.Fatal("size M disappeared")
	}
	if match.Availability != model.AvailabilityInStock {
		t.Errorf("availability = %s, want IN_STOCK", match.Availability)
	}
	// The refresh updates the stored row rather than growing a new one.
	if match.ID != originalSizeID {
		t.Errorf("size row id = %d, want %d", match.ID, originalSizeID)
	}

	var sizeCount int64
	db.Model(&model.Size{}).Count(&sizeCount)
	if sizeCount != 2 {
		t.Errorf("size rows = %d, want 2", sizeCount)
	}
}

func TestProductService_RefreshSubscribedProduct_UnknownProduct(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewProductService(zara.NewClient("http://127.0.0.1:0"), repository.NewProductRepository(db))

	subscription := &model.Subscription{ProductCode: "9999/999", Color: "RED", Size: "M"}
	product, err := svc.RefreshSubscribedProduct(context.Background(), subscription)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product != nil {
		t.Errorf("expected nil product for unknown code, got %+v", product)
	}
}

func TestProductService_RefreshSubscribedProduct_OtherColorUntouched(t *testing.T) {
	db := setupServiceTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, detailsPayload("1255/768",
			zara.ColorDTO{Name: "BLACK", Sizes: []zara.SizeDTO{{Name: "M", Availability: "IN_STOCK"}}},
			zara.ColorDTO{Name: "WHITE", Sizes: []zara.SizeDTO{{Name: "M", Availability: "IN_STOCK"}}},
		))
	}))
	defer server.Close()

	productRepo := repository.NewProductRepository(db)
	svc := NewProductService(zara.NewClient(server.URL), productRepo)

	seedProduct(t, db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock})
	white := seedProduct(t, db, "1255/768", "WHITE",
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock})

	subscription := &model.Subscription{ProductCode: "1255/768", Color: "BLACK", Size: "M"}
	if _, err := svc.RefreshSubscribedProduct(context.Background(), subscription); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// Only the subscribed color is reconciled.
	stored, err := svc.GetByCodeAndColor(context.Background(), "1255/768", "WHITE")
	if err != nil || stored == nil {
		t.Fatalf("white lookup failed: %v", err)
	}
	if stored.FindSize("M").Availability != model.AvailabilityOutOfStock {
		t.Errorf("white color was touched: %s", stored.FindSize("M").Availability)
	}
	_ = white
}

// ==================== UpsertColor ====================

func TestProductService_UpsertColor_CreateThenUpdate(t *testing.T) {
	db := setupServiceTestDB(t)
	productRepo := repository.NewProductRepository(db)
	svc := NewProductService(zara.NewClient("http://127.0.0.1:0"), productRepo)

	meta := ProductMeta{
		Name:            "Midi Dress",
		FamilyName:      "DRESSES",
		CategoryApiID:   42,
		Seo:             zara.Seo{Keyword: "midi-dress", SeoProductID: "p200", DiscernProductID: "d200"},
		PriceMinorUnits: 12999,
	}
	color := zara.ColorDTO{
		Name:  "ECRU",
		Sizes: []zara.SizeDTO{{Name: "S", Availability: "IN_STOCK"}, {Name: "M", Availability: "OUT_OF_STOCK"}},
	}

	ctx := context.Background()
	if err := svc.UpsertColor(ctx, "2550/110", meta, color); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	stored, err := svc.GetByCodeAndColor(ctx, "2550/110", "ECRU")
	if err != nil || stored == nil {
		t.Fatalf("lookup after create failed: %v", err)
	}
	if stored.Price.StringFixed(2) != "129.99" {
		t.Errorf("price = %s, want 129.99", stored.Price.StringFixed(2))
	}
	if len(stored.Sizes) != 2 {
		t.Fatalf("sizes = %d, want 2", len(stored.Sizes))
	}
	firstID := stored.ID

	// Second pass with new availability must update in place.
	color.Sizes[1].Availability = "IN_STOCK"
	meta.PriceMinorUnits = 9995
	if err := svc.UpsertColor(ctx, "2550/110", meta, color); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	stored, err = svc.GetByCodeAndColor(ctx, "2550/110", "ECRU")
	if err != nil || stored == nil {
		t.Fatalf("lookup after update failed: %v", err)
	}
	if stored.ID != firstID {
		t.Errorf("product row duplicated: id %d -> %d", firstID, stored.ID)
	}
	if stored.Price.StringFixed(2) != "99.95" {
		t.Errorf("price = %s, want 99.95", stored.Price.StringFixed(2))
	}
	if stored.FindSize("M").Availability != model.AvailabilityInStock {
		t.Errorf("M availability not updated: %s", stored.FindSize("M").Availability)
	}

	var productCount int64
	db.Model(&model.Product{}).Count(&productCount)
	if productCount != 1 {
		t.Errorf("product rows = %d, want 1", productCount)
	}
}

func TestProductService_UpsertColor_ColorPriceOverride(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewProductService(zara.NewClient("http://127.0.0.1:0"), repository.NewProductRepository(db))

	meta := ProductMeta{
		Name:            "Jacket",
		Seo:             zara.Seo{Keyword: "jacket", SeoProductID: "p1", DiscernProductID: "d1"},
		PriceMinorUnits: 20000,
	}
	color := zara.ColorDTO{Name: "NAVY", Price: 15995}

	ctx := context.Background()
	if err := svc.UpsertColor(ctx, "3000/500", meta, color); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	stored, _ := svc.GetByCodeAndColor(ctx, "3000/500", "NAVY")
	if stored.Price.StringFixed(2) != "159.95" {
		t.Errorf("price = %s, want color-level 159.95", stored.Price.StringFixed(2))
	}
}
