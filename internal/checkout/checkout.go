// Package checkout turns a session cart into a persisted order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/safar/sanli-cicek/internal/auth"
	"github.com/safar/sanli-cicek/internal/cart"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/safar/sanli-cicek/internal/orderstatus"
	"github.com/safar/sanli-cicek/internal/pricing"
	"github.com/shopspring/decimal"
)

const orderNumberPrefix = "SAN"

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnauthenticated = errors.New("login required")
	ErrInvalidForm     = errors.New("invalid checkout form")
	ErrSubmitFailed    = errors.New("order could not be placed")
)

type OrderBackend interface {
	CreateOrder(ctx context.Context, req models.NewOrder) (*models.Order, error)
}

type ProfileSource interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Form is the shipping and payment data entered on the checkout page.
type Form struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	District      string `json:"district"`
	PostalCode    string `json:"postalCode"`
	PaymentMethod string `json:"paymentMethod"`
	Notes         string `json:"notes"`
}

// FormError lists the fields that failed validation.
type FormError struct {
	Fields []string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidForm, strings.Join(e.Fields, ", "))
}

func (e *FormError) Unwrap() error {
	return ErrInvalidForm
}

func (f *Form) normalize() {
	for _, s := range []*string{&f.FirstName, &f.LastName, &f.Email, &f.Phone, &f.Address,
		&f.City, &f.District, &f.PostalCode, &f.PaymentMethod, &f.Notes} {
		*s = strings.TrimSpace(*s)
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = models.PaymentMethodCashOnDelivery
	}
}

func (f Form) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", f.FirstName},
		{"lastName", f.LastName},
		{"phone", f.Phone},
		{"address", f.Address},
		{"city", f.City},
		{"district", f.District},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	switch f.PaymentMethod {
	case models.PaymentMethodCashOnDelivery, models.PaymentMethodCreditCard:
	default:
		missing = append(missing, "paymentMethod")
	}

	if len(missing) > 0 {
		return &FormError{Fields: missing}
	}
	return nil
}

// AddressText is the one-line address stored next to the structured one.
func (f Form) AddressText() string {
	return fmt.Sprintf("%s %s, %s, %s/%s", f.FirstName, f.LastName, f.Address, f.District, f.City)
}

type Service struct {
	orders   OrderBackend
	profiles ProfileSource
	now      func() time.Time
}

// NewService builds a checkout service. profiles may be nil, in which case
// the form is prefilled from the token alone.
func NewService(orders OrderBackend, profiles ProfileSource) *Service {
	return &Service{
		orders:   orders,
		profiles: profiles,
		now:      time.Now,
	}
}

// Quote is the cart page summary.
func (s *Service) Quote(c *cart.Store) pricing.Quote {
	return pricing.CartQuote(c.TotalPrice(), c.Coupon())
}

// CheckoutQuote is the checkout page summary, the one persisted with the
// order.
func (s *Service) CheckoutQuote(c *cart.Store) pricing.Quote {
	return pricing.CheckoutQuote(c.TotalPrice(), c.Coupon())
}

// Prefill returns the checkout form defaults for id, taken from the stored
// profile when there is one and from the token claims otherwise.
func (s *Service) Prefill(ctx context.Context, id *auth.Identity) Form {
	form := Form{PaymentMethod: models.PaymentMethodCashOnDelivery}
	if id == nil {
		return form
	}

	form.FirstName = id.FirstName
	form.LastName = id.LastName
	form.Email = id.Email
	form.Phone = id.Phone

	if s.profiles == nil {
		return form
	}

	profile, err := s.profiles.GetProfile(ctx, id.UserID)
	if err != nil {
		log.Printf("Checkout.Prefill - UserID: %s, profile lookup failed: %v", id.UserID, err)
		return form
	}

	if profile.FirstName != "" {
		form.FirstName = profile.FirstName
	}
	if profile.LastName != "" {
		form.LastName = profile.LastName
	}
	if profile.Email != "" {
		form.Email = profile.Email
	}
	if profile.Phone != "" {
		form.Phone = profile.Phone
	}
	return form
}

// Submit places the order for the cart. The ordered lines leave the cart
// only after the backend has accepted the order.
func (s *Service) Submit(ctx context.Context, id *auth.Identity, c *cart.Store, form Form) (*models.Order, error) {
	lines, coupon := c.Contents()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if id == nil {
		return nil, ErrUnauthenticated
	}

	form.normalize()
	if err := form.validate(); err != nil {
		return nil, err
	}

	req := s.buildOrder(id, lines, coupon, form)

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		log.Printf("Checkout.Submit - OrderNumber: %s, UserID: %s, create failed: %v", req.OrderNumber, id.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	if err := c.RemoveOrdered(ctx, lines, coupon); err != nil {
		log.Printf("Checkout.Submit - OrderNumber: %s, clear cart failed: %v", order.OrderNumber, err)
	}

	log.Printf("Checkout.Submit - OrderNumber: %s, UserID: %s, Total: %s", order.OrderNumber, id.UserID, order.TotalAmount)
	return order, nil
}

func (s *Service) buildOrder(id *auth.Identity, lines []cart.Line, coupon string, form Form) models.NewOrder {
	subtotal := decimal.Zero
	items := make([]models.NewOrderItem, 0, len(lines))
	for _, line := range lines {
		total := line.Total()
		subtotal = subtotal.Add(total)
		items = append(items, models.NewOrderItem{
			ProductID:    line.ID,
			ProductName:  line.Name,
			ProductImage: line.Image,
			Quantity:     line.Quantity,
			Price:        line.Price,
			Total:        total,
		})
	}

	quote := pricing.CheckoutQuote(subtotal, coupon)

	paymentStatus := models.PaymentStatusPaid
	if form.PaymentMethod == models.PaymentMethodCashOnDelivery {
		paymentStatus = models.PaymentStatusPending
	}

	return models.NewOrder{
		UserID:         id.UserID,
		OrderNumber:    orderNumberPrefix + strconv.FormatInt(s.now().UnixMilli(), 10),
		Status:         string(orderstatus.Pending),
		PaymentStatus:  paymentStatus,
		PaymentMethod:  form.PaymentMethod,
		Subtotal:       quote.Subtotal,
		TaxAmount:      quote.Tax,
		ShippingAmount: quote.Shipping,
		DiscountAmount: quote.Discount,
		TotalAmount:    quote.Total,
		Currency:       models.CurrencyTRY,
		ShippingAddress: models.ShippingAddress{
			FirstName:  form.FirstName,
			LastName:   form.LastName,
			Address:    form.Address,
			City:       form.City,
			District:   form.District,
			PostalCode: form.PostalCode,
		},
		ShippingAddressText: form.AddressText(),
		Phone:               form.Phone,
		Notes:               form.Notes,
		Items:               items,
	}
}
