package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/safar/sanli-cicek/internal/cart"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/shopspring/decimal"
)

func TestProductsBySlugAndListing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rose := seedProduct(t, db, "beyaz-gul", "149.90")
	lily := seedProduct(t, db, "zambak", "89.50")

	got, err := GetProductBySlug(ctx, db, "beyaz-gul")
	if err != nil {
		t.Fatalf("Get product by slug: %v", err)
	}
	if got.ID != rose.ID {
		t.Errorf("Expected product %d, got %d", rose.ID, got.ID)
	}
	if got.PrimaryImage() != "/images/beyaz-gul.jpg" {
		t.Errorf("Expected first image, got %s", got.PrimaryImage())
	}

	if err := SetProductActive(ctx, db, lily.ID, false); err != nil {
		t.Fatalf("Deactivate product: %v", err)
	}

	if _, err := GetProductBySlug(ctx, db, "zambak"); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound for inactive product, got %v", err)
	}

	page, err := ListProducts(ctx, db, 1, 10)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Expected 1 active product, got %d", page.Total)
	}

	if err := SetProductActive(ctx, db, 12345, true); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestProductWithoutImages(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	product, err := CreateProduct(context.Background(), db, CreateProductRequest{
		Name:  "Saksı Çiçeği",
		Slug:  "saksi",
		Price: decimal.NewFromInt(60),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	if product.PrimaryImage() != models.PlaceholderImage {
		t.Errorf("Expected placeholder image, got %s", product.PrimaryImage())
	}
}

func TestProfiles(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := uuid.NewString()

	created, err := UpsertProfile(ctx, db, models.Profile{ID: id, Email: "ayse@example.com", FirstName: "Ayşe"})
	if err != nil {
		t.Fatalf("Upsert profile: %v", err)
	}
	if created.IsAdmin {
		t.Error("New profile should not be admin")
	}

	if _, err := SetAdmin(ctx, db, id, true); err != nil {
		t.Fatalf("Set admin: %v", err)
	}

	updated, err := UpsertProfile(ctx, db, models.Profile{ID: id, Email: "ayse@example.com", FirstName: "Ayşe", LastName: "Yılmaz"})
	if err != nil {
		t.Fatalf("Upsert profile again: %v", err)
	}
	if !updated.IsAdmin {
		t.Error("Upsert should keep the admin flag")
	}
	if updated.LastName != "Yılmaz" {
		t.Errorf("Expected last name Yılmaz, got %s", updated.LastName)
	}

	if _, err := GetProfile(ctx, db, uuid.NewString()); !errors.Is(err, database.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if _, err := GetProfile(ctx, db, "not-a-uuid"); !errors.Is(err, database.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound for malformed id, got %v", err)
	}

	page, err := ListProfiles(ctx, db, 1, 10)
	if err != nil {
		t.Fatalf("List profiles: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Expected 1 profile, got %d", page.Total)
	}
}

func TestProfileBirthDate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := uuid.NewString()

	saved, err := UpsertProfile(ctx, db, models.Profile{ID: id, Email: "m@example.com", BirthDate: "1990-04-23"})
	if err != nil {
		t.Fatalf("Upsert profile: %v", err)
	}
	if saved.BirthDate != "1990-04-23" {
		t.Errorf("Expected birth date 1990-04-23, got %q", saved.BirthDate)
	}

	cleared, err := UpsertProfile(ctx, db, models.Profile{ID: id, Email: "m@example.com"})
	if err != nil {
		t.Fatalf("Upsert profile again: %v", err)
	}
	if cleared.BirthDate != "" {
		t.Errorf("Expected birth date to be cleared, got %q", cleared.BirthDate)
	}
}

func TestCategoryProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	flowers, err := UpsertCategory(ctx, db, CreateCategoryRequest{Name: "Orkide", Slug: "orkide", Icon: "🌺", SortOrder: 2})
	if err != nil {
		t.Fatalf("Upsert category: %v", err)
	}
	baskets, err := UpsertCategory(ctx, db, CreateCategoryRequest{Name: "Çiçek Sepeti", Slug: "cicek-sepeti", SortOrder: 1})
	if err != nil {
		t.Fatalf("Upsert category: %v", err)
	}

	again, err := UpsertCategory(ctx, db, CreateCategoryRequest{Name: "Orkideler", Slug: "orkide", SortOrder: 2})
	if err != nil {
		t.Fatalf("Upsert category again: %v", err)
	}
	if again.ID != flowers.ID || again.Name != "Orkideler" {
		t.Errorf("Expected category %d renamed, got %+v", flowers.ID, again)
	}

	for _, p := range []struct {
		slug, price string
		category    int64
	}{
		{"pembe-orkide", "349.99", flowers.ID},
		{"beyaz-orkide", "199.99", flowers.ID},
		{"mor-orkide", "279.00", flowers.ID},
		{"karma-sepet", "149.99", baskets.ID},
	} {
		categoryID := p.category
		if _, err := CreateProduct(ctx, db, CreateProductRequest{
			Name:       "Ürün " + p.slug,
			Slug:       p.slug,
			Price:      decimal.RequireFromString(p.price),
			CategoryID: &categoryID,
		}); err != nil {
			t.Fatalf("Create product %s: %v", p.slug, err)
		}
	}
	hidden, _ := GetProductBySlug(ctx, db, "mor-orkide")
	if hidden.CategoryID == nil || *hidden.CategoryID != flowers.ID {
		t.Errorf("Expected category id %d, got %v", flowers.ID, hidden.CategoryID)
	}
	if err := SetProductActive(ctx, db, hidden.ID, false); err != nil {
		t.Fatalf("Deactivate product: %v", err)
	}

	page, err := ListProductsByCategory(ctx, db, flowers.ID, SortByPriceAsc, 1, 10)
	if err != nil {
		t.Fatalf("List category products: %v", err)
	}
	items := page.Items.([]models.Product)
	if page.Total != 2 || len(items) != 2 {
		t.Fatalf("Expected 2 active orchids, got %d", page.Total)
	}
	if items[0].Slug != "beyaz-orkide" || items[1].Slug != "pembe-orkide" {
		t.Errorf("Expected cheapest first, got %s, %s", items[0].Slug, items[1].Slug)
	}

	page, _ = ListProductsByCategory(ctx, db, flowers.ID, SortByPriceDesc, 1, 10)
	if first := page.Items.([]models.Product)[0]; first.Slug != "pembe-orkide" {
		t.Errorf("Expected most expensive first, got %s", first.Slug)
	}

	if _, err := ListProductsByCategory(ctx, db, flowers.ID, ProductSort("random"), 1, 10); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("Expected ErrInvalidSort, got %v", err)
	}

	categories, err := ListCategories(ctx, db)
	if err != nil {
		t.Fatalf("List categories: %v", err)
	}
	if len(categories) != 2 || categories[0].Slug != "cicek-sepeti" {
		t.Errorf("Expected categories in sort order, got %+v", categories)
	}

	if err := SetCategoryActive(ctx, db, baskets.ID, false); err != nil {
		t.Fatalf("Deactivate category: %v", err)
	}
	if _, err := GetCategoryBySlug(ctx, db, "cicek-sepeti"); !errors.Is(err, database.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound for inactive category, got %v", err)
	}
}

func TestUpsertProductReactivates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	original := seedProduct(t, db, "lale", "59.90")
	if err := SetProductActive(ctx, db, original.ID, false); err != nil {
		t.Fatalf("Deactivate product: %v", err)
	}

	updated, err := UpsertProduct(ctx, db, CreateProductRequest{Name: "Lale Buketi", Slug: "lale", Price: decimal.RequireFromString("64.90")})
	if err != nil {
		t.Fatalf("Upsert product: %v", err)
	}
	if updated.ID != original.ID || !updated.IsActive || !updated.Price.Equal(decimal.RequireFromString("64.90")) {
		t.Errorf("Expected product %d reactivated at 64.90, got %+v", original.ID, updated)
	}
}

func TestParseProductSort(t *testing.T) {
	if got, err := ParseProductSort(""); err != nil || got != SortByName {
		t.Errorf("Expected default name sort, got %q %v", got, err)
	}
	if _, err := ParseProductSort("cheapest"); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("Expected ErrInvalidSort, got %v", err)
	}
}

func TestCartPersisterRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	persister := NewCartPersister(db)
	sessionID := uuid.NewString()

	empty, err := persister.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load unknown session: %v", err)
	}
	if len(empty.Lines) != 0 || empty.Coupon != "" {
		t.Errorf("Expected empty snapshot, got %+v", empty)
	}

	c, err := cart.Open(ctx, sessionID, persister)
	if err != nil {
		t.Fatalf("Open cart: %v", err)
	}
	if err := c.AddItem(ctx, cart.Line{ID: 7, Name: "Lale", Price: decimal.RequireFromString("45.50"), Quantity: 2}); err != nil {
		t.Fatalf("Add item: %v", err)
	}
	if err := c.AddItem(ctx, cart.Line{ID: 3, Name: "Gül", Price: decimal.RequireFromString("120")}); err != nil {
		t.Fatalf("Add item: %v", err)
	}
	if err := c.ApplyCoupon(ctx, "WELCOME10"); err != nil {
		t.Fatalf("Apply coupon: %v", err)
	}

	reopened, err := cart.Open(ctx, sessionID, persister)
	if err != nil {
		t.Fatalf("Reopen cart: %v", err)
	}

	lines := reopened.Lines()
	if len(lines) != 2 || lines[0].ID != 7 || lines[1].ID != 3 {
		t.Fatalf("Expected lines 7 then 3, got %+v", lines)
	}
	if reopened.TotalItems() != 3 {
		t.Errorf("Expected 3 items, got %d", reopened.TotalItems())
	}
	if !reopened.TotalPrice().Equal(decimal.NewFromInt(211)) {
		t.Errorf("Expected total 211, got %s", reopened.TotalPrice())
	}
	if reopened.Coupon() != "WELCOME10" {
		t.Errorf("Expected coupon WELCOME10, got %q", reopened.Coupon())
	}

	if err := reopened.ClearCart(ctx); err != nil {
		t.Fatalf("Clear cart: %v", err)
	}

	cleared, err := persister.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load cleared cart: %v", err)
	}
	if len(cleared.Lines) != 0 || cleared.Coupon != "" {
		t.Errorf("Expected cleared snapshot, got %+v", cleared)
	}
}

func TestSeedCatalogIsRepeatable(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		categories, products, err := SeedCatalog(ctx, db)
		if err != nil {
			t.Fatalf("Seed catalog run %d: %v", i+1, err)
		}
		if categories != 8 || products != 6 {
			t.Errorf("Run %d: expected 8 categories and 6 products, got %d and %d", i+1, categories, products)
		}
	}

	page, err := ListProducts(ctx, db, 1, 50)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 6 {
		t.Errorf("Expected 6 products after two runs, got %d", page.Total)
	}

	valentine, err := GetCategoryBySlug(ctx, db, "sevgiliye-cicek")
	if err != nil {
		t.Fatalf("Get category: %v", err)
	}
	roses, err := ListProductsByCategory(ctx, db, valentine.ID, SortByName, 1, 10)
	if err != nil {
		t.Fatalf("List category products: %v", err)
	}
	if roses.Total != 2 {
		t.Errorf("Expected 2 products in sevgiliye-cicek, got %d", roses.Total)
	}
}
