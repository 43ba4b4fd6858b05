package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile is the customer record kept next to the auth identity.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	BirthDate string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Images        []string        `json:"images"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

const PlaceholderImage = "/placeholder.svg?height=300&width=300"

// PrimaryImage is the image shown for the product in cart and order lines.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return PlaceholderImage
}

type ShippingAddress struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postalCode"`
}

type Order struct {
	ID                  int64           `json:"id"`
	UserID              string          `json:"user_id"`
	OrderNumber         string          `json:"order_number"`
	Status              string          `json:"status"`
	PaymentStatus       string          `json:"payment_status"`
	PaymentMethod       string          `json:"payment_method"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	ShippingAmount      decimal.Decimal `json:"shipping_amount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Currency            string          `json:"currency"`
	ShippingAddress     ShippingAddress `json:"shipping_address"`
	ShippingAddressText string          `json:"shipping_address_text"`
	Phone               string          `json:"phone"`
	Notes               string          `json:"notes"`
	DeliveredAt         *time.Time      `json:"delivered_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Items               []OrderItem     `json:"order_items,omitempty"`
}

type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewOrder is the snapshot handed to an order backend at checkout. The
// backend assigns ids and timestamps.
type NewOrder struct {
	UserID              string
	OrderNumber         string
	Status              string
	PaymentStatus       string
	PaymentMethod       string
	Subtotal            decimal.Decimal
	TaxAmount           decimal.Decimal
	ShippingAmount      decimal.Decimal
	DiscountAmount      decimal.Decimal
	TotalAmount         decimal.Decimal
	Currency            string
	ShippingAddress     ShippingAddress
	ShippingAddressText string
	Phone               string
	Notes               string
	Items               []NewOrderItem
}

type NewOrderItem struct {
	ProductID    int64
	ProductName  string
	ProductImage string
	Quantity     int
	Price        decimal.Decimal
	Total        decimal.Decimal
}

// Stats backs the admin dashboard.
type Stats struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
}

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"

	PaymentMethodCashOnDelivery = "cash-on-delivery"
	PaymentMethodCreditCard     = "credit-card"

	CurrencyTRY = "TRY"
)
