package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/safar/sanli-cicek/internal/orderstatus"
	"github.com/shopspring/decimal"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const orderColumns = `id, user_id, order_number, status, payment_status, payment_method,
	subtotal, tax_amount, shipping_amount, discount_amount, total_amount, currency,
	shipping_address, shipping_address_text, phone, notes, delivered_at, created_at, updated_at`

const orderItemColumns = `id, order_id, COALESCE(product_id, 0), product_name, product_image, quantity, price, total, created_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var address []byte
	var deliveredAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.Subtotal,
		&order.TaxAmount,
		&order.ShippingAmount,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.Currency,
		&address,
		&order.ShippingAddressText,
		&order.Phone,
		&order.Notes,
		&deliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(address) > 0 {
		if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		order.DeliveredAt = &t
	}

	return order, nil
}

func scanOrderItem(row rowScanner) (models.OrderItem, error) {
	var item models.OrderItem
	err := row.Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.ProductName,
		&item.ProductImage,
		&item.Quantity,
		&item.Price,
		&item.Total,
		&item.CreatedAt,
	)
	return item, err
}

// CreateOrder stores the order snapshot and its lines in one serializable
// transaction, retrying on serialization and deadlock failures.
func CreateOrder(ctx context.Context, db *sql.DB, req models.NewOrder) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("create order: no items")
	}

	address, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}

	status := req.Status
	if status == "" {
		status = string(orderstatus.Pending)
	}

	var order *models.Order

	err = database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, order_number, status, payment_status, payment_method,
			     subtotal, tax_amount, shipping_amount, discount_amount, total_amount, currency,
			     shipping_address, shipping_address_text, phone, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
			 RETURNING `+orderColumns,
			req.UserID, req.OrderNumber, status, req.PaymentStatus, req.PaymentMethod,
			req.Subtotal, req.TaxAmount, req.ShippingAmount, req.DiscountAmount, req.TotalAmount, req.Currency,
			string(address), req.ShippingAddressText, req.Phone, req.Notes))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range req.Items {
			var productID interface{}
			if item.ProductID > 0 {
				productID = item.ProductID
			}

			created, err := scanOrderItem(tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, product_image, quantity, price, total, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				 RETURNING `+orderItemColumns,
				order.ID, productID, item.ProductName, item.ProductImage, item.Quantity, item.Price, item.Total))
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			order.Items = append(order.Items, created)
		}

		return nil
	})

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrDuplicateOrder
		}
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := loadItems(ctx, db, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrderByNumber(ctx context.Context, db *sql.DB, orderNumber string) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	if err := loadItems(ctx, db, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// loadItems fills Items of every order with a single query.
func loadItems(ctx context.Context, db *sql.DB, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+orderItemColumns+`
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}

func collectOrders(rows *sql.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func flatten(orders []*models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, *o)
	}
	return out
}

// ListUserOrders pages through one customer's orders, newest first, using
// a (created_at, id) keyset cursor.
func ListUserOrders(ctx context.Context, db *sql.DB, userID string, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	if err := loadItems(ctx, db, orders); err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      flatten(orders),
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListOrders is the admin listing. An empty status lists every order.
func ListOrders(ctx context.Context, db *sql.DB, page, pageSize int, status string) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE $1 = '' OR status = $1`, status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, status, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	if err := loadItems(ctx, db, orders); err != nil {
		return nil, err
	}

	return newOffsetPage(flatten(orders), total, page, pageSize), nil
}

// UpdateOrderStatus sets the status of an order. Moving to delivered stamps
// delivered_at unless it is already set. Backward moves are allowed and
// logged.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, status string) (*models.Order, error) {
	next, err := orderstatus.Parse(status)
	if err != nil {
		return nil, err
	}

	var order *models.Order

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var previous string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		order, err = scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET status = $1,
			     updated_at = NOW(),
			     delivered_at = CASE WHEN $1 = 'delivered' THEN COALESCE(delivered_at, NOW()) ELSE delivered_at END
			 WHERE id = $2
			 RETURNING `+orderColumns,
			string(next), id))
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if orderstatus.IsBackward(orderstatus.Status(previous), next) {
			log.Printf("UpdateOrderStatus - order %d moved backward from %s to %s", id, previous, next)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, database.ErrOrderNotFound
		}
		return nil, err
	}

	if err := loadItems(ctx, db, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// GetStats returns the admin dashboard counters.
func GetStats(ctx context.Context, db *sql.DB) (*models.Stats, error) {
	stats := &models.Stats{}
	var revenue decimal.NullDecimal

	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT SUM(total_amount) FROM orders),
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM products)`).Scan(
		&stats.TotalOrders,
		&revenue,
		&stats.TotalUsers,
		&stats.TotalProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	stats.TotalRevenue = decimal.Zero
	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}

	return stats, nil
}

// Orders serves the order backend operations from PostgreSQL.
type Orders struct {
	DB *sql.DB
}

func (o *Orders) CreateOrder(ctx context.Context, req models.NewOrder) (*models.Order, error) {
	return CreateOrder(ctx, o.DB, req)
}

func (o *Orders) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return GetOrderByNumber(ctx, o.DB, orderNumber)
}

func (o *Orders) ListUserOrders(ctx context.Context, userID, cursor string, limit int) (*CursorPage, error) {
	return ListUserOrders(ctx, o.DB, userID, cursor, limit)
}

func (o *Orders) ListOrders(ctx context.Context, page, pageSize int, status string) (*OffsetPage, error) {
	return ListOrders(ctx, o.DB, page, pageSize, status)
}

func (o *Orders) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	return UpdateOrderStatus(ctx, o.DB, id, status)
}

func (o *Orders) Stats(ctx context.Context) (*models.Stats, error) {
	return GetStats(ctx, o.DB)
}
