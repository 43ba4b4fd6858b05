package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/shopspring/decimal"
)

var seedCategories = []CreateCategoryRequest{
	{Name: "Doğum Günü", Slug: "dogum-gunu", Description: "Doğum günü için özel çiçek aranjmanları", Icon: "🎂", SortOrder: 1},
	{Name: "Orkide", Slug: "orkide", Description: "Zarif orkide çeşitleri", Icon: "🌺", SortOrder: 2},
	{Name: "Ayçiçeği", Slug: "aycicegi", Description: "Güneşin enerjisini taşıyan ayçiçekleri", Icon: "🌻", SortOrder: 3},
	{Name: "Yeni İş/Terfi", Slug: "yeni-is-terfi", Description: "Yeni başlangıçlar için özel çiçekler", Icon: "🎉", SortOrder: 4},
	{Name: "Sevgiliye Çiçek", Slug: "sevgiliye-cicek", Description: "Sevdikleriniz için romantik çiçekler", Icon: "💕", SortOrder: 5},
	{Name: "Çiçek Sepeti", Slug: "cicek-sepeti", Description: "Özenle hazırlanmış çiçek sepetleri", Icon: "🧺", SortOrder: 6},
	{Name: "Yeni Bebek", Slug: "yeni-bebek", Description: "Yeni doğan bebekler için özel aranjmanlar", Icon: "👶", SortOrder: 7},
	{Name: "Saksı Çiçekleri", Slug: "saksi-cicekleri", Description: "Uzun ömürlü saksı çiçekleri", Icon: "🪴", SortOrder: 8},
}

type seedItem struct {
	category string
	product  CreateProductRequest
}

var seedProducts = []seedItem{
	{"sevgiliye-cicek", CreateProductRequest{Name: "Şanlı Gül Buketi", Slug: "sanli-gul-buketi", Description: "Özel günleriniz için hazırlanmış 11 adet kırmızı gülden oluşan buket.", Price: decimal.RequireFromString("199.99"), StockQuantity: 50}},
	{"orkide", CreateProductRequest{Name: "Pembe Orkide Aranjmanı", Slug: "pembe-orkide-aranjmani", Description: "2 dallı pembe orkide özel seramik saksıda sunulur.", Price: decimal.RequireFromString("349.99"), StockQuantity: 25}},
	{"cicek-sepeti", CreateProductRequest{Name: "Karma Çiçek Sepeti", Slug: "karma-cicek-sepeti", Description: "Mevsimin en taze çiçeklerinden hazırlanmış özel sepet aranjmanı.", Price: decimal.RequireFromString("149.99"), StockQuantity: 30}},
	{"dogum-gunu", CreateProductRequest{Name: "Beyaz Lilyum Buketi", Slug: "beyaz-lilyum-buketi", Description: "Saf ve zarif beyaz lilyumlardan oluşan özel buket.", Price: decimal.RequireFromString("249.99"), StockQuantity: 20}},
	{"sevgiliye-cicek", CreateProductRequest{Name: "Şanlı Pembe Güller", Slug: "sanli-pembe-guller", Description: "9 adet pembe gülden oluşan zarif buket.", Price: decimal.RequireFromString("179.99"), StockQuantity: 40}},
	{"aycicegi", CreateProductRequest{Name: "Karma Ayçiçeği Buketi", Slug: "karma-aycicegi-buketi", Description: "Güneşin enerjisini taşıyan ayçiçekleri ve mevsim çiçeklerinden oluşan buket.", Price: decimal.RequireFromString("159.99"), StockQuantity: 35}},
}

// SeedCatalog upserts the storefront's starter categories and products in
// one transaction. Running it again refreshes the same rows.
func SeedCatalog(ctx context.Context, db *sql.DB) (categories int, products int, err error) {
	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		categories, products = 0, 0
		ids := make(map[string]int64, len(seedCategories))

		for _, req := range seedCategories {
			var id int64
			err := tx.QueryRowContext(ctx, `
				INSERT INTO categories (name, slug, description, icon, is_active, sort_order, created_at, updated_at)
				VALUES ($1, $2, $3, $4, TRUE, $5, NOW(), NOW())
				ON CONFLICT (slug) DO UPDATE
				SET name = EXCLUDED.name,
				    description = EXCLUDED.description,
				    icon = EXCLUDED.icon,
				    is_active = TRUE,
				    sort_order = EXCLUDED.sort_order,
				    updated_at = NOW()
				RETURNING id`,
				req.Name, req.Slug, req.Description, req.Icon, req.SortOrder).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed category %s: %w", req.Slug, err)
			}
			ids[req.Slug] = id
			categories++
		}

		for _, seed := range seedProducts {
			categoryID, ok := ids[seed.category]
			if !ok {
				return fmt.Errorf("seed product %s: unknown category %s", seed.product.Slug, seed.category)
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO products (name, slug, description, price, stock_quantity, images, category_id, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
				ON CONFLICT (slug) DO UPDATE
				SET name = EXCLUDED.name,
				    description = EXCLUDED.description,
				    price = EXCLUDED.price,
				    stock_quantity = EXCLUDED.stock_quantity,
				    category_id = EXCLUDED.category_id,
				    is_active = TRUE,
				    updated_at = NOW()`,
				seed.product.Name, seed.product.Slug, seed.product.Description,
				seed.product.Price, seed.product.StockQuantity, pq.Array([]string{models.PlaceholderImage}), categoryID)
			if err != nil {
				return fmt.Errorf("seed product %s: %w", seed.product.Slug, err)
			}
			products++
		}

		return nil
	})

	return categories, products, err
}
