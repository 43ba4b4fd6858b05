package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/safar/sanli-cicek/internal/orderstatus"
	"github.com/safar/sanli-cicek/internal/store"
	"github.com/shopspring/decimal"
)

const orderSelect = "*,order_items(*)"

type orderRecord struct {
	UserID              string                 `json:"user_id"`
	OrderNumber         string                 `json:"order_number"`
	Status              string                 `json:"status"`
	PaymentStatus       string                 `json:"payment_status"`
	PaymentMethod       string                 `json:"payment_method"`
	Subtotal            decimal.Decimal        `json:"subtotal"`
	TaxAmount           decimal.Decimal        `json:"tax_amount"`
	ShippingAmount      decimal.Decimal        `json:"shipping_amount"`
	DiscountAmount      decimal.Decimal        `json:"discount_amount"`
	TotalAmount         decimal.Decimal        `json:"total_amount"`
	Currency            string                 `json:"currency"`
	ShippingAddress     models.ShippingAddress `json:"shipping_address"`
	ShippingAddressText string                 `json:"shipping_address_text"`
	Phone               string                 `json:"phone"`
	Notes               string                 `json:"notes"`
}

type itemRecord struct {
	OrderID      int64           `json:"order_id"`
	ProductID    *int64          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
}

// CreateOrder inserts the order row, then its items. The backend offers no
// transaction across the two calls; when the items fail the order row is
// deleted again before the error is returned.
func (c *Client) CreateOrder(ctx context.Context, req models.NewOrder) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("create order: no items")
	}

	status := req.Status
	if status == "" {
		status = string(orderstatus.Pending)
	}

	record := orderRecord{
		UserID:              req.UserID,
		OrderNumber:         req.OrderNumber,
		Status:              status,
		PaymentStatus:       req.PaymentStatus,
		PaymentMethod:       req.PaymentMethod,
		Subtotal:            req.Subtotal,
		TaxAmount:           req.TaxAmount,
		ShippingAmount:      req.ShippingAmount,
		DiscountAmount:      req.DiscountAmount,
		TotalAmount:         req.TotalAmount,
		Currency:            req.Currency,
		ShippingAddress:     req.ShippingAddress,
		ShippingAddressText: req.ShippingAddressText,
		Phone:               req.Phone,
		Notes:               req.Notes,
	}

	var created []models.Order
	resp, err := do(c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(record),
		http.MethodPost, "/orders", &created)
	if err != nil {
		if resp != nil && resp.StatusCode() == http.StatusConflict {
			return nil, database.ErrDuplicateOrder
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	if len(created) != 1 {
		return nil, fmt.Errorf("create order: expected 1 row, got %d", len(created))
	}
	order := created[0]

	items := make([]itemRecord, 0, len(req.Items))
	for _, item := range req.Items {
		rec := itemRecord{
			OrderID:      order.ID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			Price:        item.Price,
			Total:        item.Total,
		}
		if item.ProductID > 0 {
			id := item.ProductID
			rec.ProductID = &id
		}
		items = append(items, rec)
	}

	_, err = do(c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(items),
		http.MethodPost, "/order_items", &order.Items)
	if err != nil {
		log.Printf("Backend.CreateOrder - OrderNumber: %s, items failed: %v", order.OrderNumber, err)
		c.discardOrder(ctx, order.ID)
		return nil, fmt.Errorf("create order items: %w", err)
	}

	return &order, nil
}

// discardOrder deletes an order row whose items could not be stored. It
// still runs when ctx was cancelled; a failure is only logged.
func (c *Client) discardOrder(ctx context.Context, id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, err := do(c.request(ctx).
		SetQueryParam("id", "eq."+strconv.FormatInt(id, 10)),
		http.MethodDelete, "/orders", nil)
	if err != nil {
		log.Printf("Backend.discardOrder - OrderID: %d, delete failed: %v", id, err)
	}
}

func (c *Client) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var orders []models.Order
	_, err := do(c.request(ctx).
		SetQueryParams(map[string]string{
			"select":       orderSelect,
			"order_number": "eq." + orderNumber,
		}),
		http.MethodGet, "/orders", &orders)
	if err != nil {
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	if len(orders) == 0 {
		return nil, database.ErrOrderNotFound
	}
	return &orders[0], nil
}

// ListUserOrders pages through one customer's orders newest first, using the
// same (created_at, id) cursor as the PostgreSQL store.
func (c *Client) ListUserOrders(ctx context.Context, userID, cursor string, limit int) (*store.CursorPage, error) {
	cur, err := store.DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	ts := cur.CreatedAt.UTC().Format(time.RFC3339Nano)
	var orders []models.Order
	_, err = do(c.request(ctx).
		SetQueryParams(map[string]string{
			"select":  orderSelect,
			"user_id": "eq." + userID,
			"or":      fmt.Sprintf("(created_at.lt.%s,and(created_at.eq.%s,id.lt.%d))", ts, ts, cur.ID),
			"order":   "created_at.desc,id.desc",
			"limit":   strconv.Itoa(limit + 1),
		}),
		http.MethodGet, "/orders", &orders)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var next string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		next = store.EncodeCursor(store.OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	if orders == nil {
		orders = []models.Order{}
	}

	return &store.CursorPage{
		Items:      orders,
		NextCursor: next,
		HasMore:    hasMore,
	}, nil
}

// ListOrders is the admin listing. An empty status lists every order.
func (c *Client) ListOrders(ctx context.Context, page, pageSize int, status string) (*store.OffsetPage, error) {
	params := map[string]string{
		"select": orderSelect,
		"order":  "created_at.desc,id.desc",
		"limit":  strconv.Itoa(pageSize),
		"offset": strconv.Itoa((page - 1) * pageSize),
	}
	if status != "" {
		params["status"] = "eq." + status
	}

	orders := []models.Order{}
	resp, err := do(c.request(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParams(params),
		http.MethodGet, "/orders", &orders)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	total, err := countFrom(resp)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &store.OffsetPage{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateOrderStatus sets the status of an order. Moving to delivered stamps
// delivered_at unless the order already has one.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	next, err := orderstatus.Parse(status)
	if err != nil {
		return nil, err
	}

	idFilter := "eq." + strconv.FormatInt(id, 10)

	var current []struct {
		Status      string     `json:"status"`
		DeliveredAt *time.Time `json:"delivered_at"`
	}
	_, err = do(c.request(ctx).
		SetQueryParams(map[string]string{"select": "status,delivered_at", "id": idFilter}),
		http.MethodGet, "/orders", &current)
	if err != nil {
		return nil, fmt.Errorf("get order status: %w", err)
	}
	if len(current) == 0 {
		return nil, database.ErrOrderNotFound
	}

	now := time.Now().UTC()
	patch := map[string]interface{}{
		"status":     string(next),
		"updated_at": now,
	}
	if next == orderstatus.Delivered && current[0].DeliveredAt == nil {
		patch["delivered_at"] = now
	}

	var updated []models.Order
	_, err = do(c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(map[string]string{"select": orderSelect, "id": idFilter}).
		SetBody(patch),
		http.MethodPatch, "/orders", &updated)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if len(updated) == 0 {
		return nil, database.ErrOrderNotFound
	}

	if orderstatus.IsBackward(orderstatus.Status(current[0].Status), next) {
		log.Printf("Backend.UpdateOrderStatus - order %d moved backward from %s to %s", id, current[0].Status, next)
	}

	return &updated[0], nil
}

// Stats sums revenue over every order, as the hosted backend has no
// aggregate endpoint.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var totals []struct {
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	_, err := do(c.request(ctx).
		SetQueryParam("select", "total_amount"),
		http.MethodGet, "/orders", &totals)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	stats := &models.Stats{
		TotalOrders:  int64(len(totals)),
		TotalRevenue: decimal.Zero,
	}
	for _, t := range totals {
		stats.TotalRevenue = stats.TotalRevenue.Add(t.TotalAmount)
	}

	if stats.TotalUsers, err = c.count(ctx, "profiles"); err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	if stats.TotalProducts, err = c.count(ctx, "products"); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	return stats, nil
}
