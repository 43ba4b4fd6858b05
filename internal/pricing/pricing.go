// Package pricing holds the storefront's money rules: free-shipping
// threshold, flat shipping fee, checkout tax and the welcome coupon.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const CouponWelcome = "welcome10"

var (
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShippingFee       = decimal.NewFromInt(15)
	TaxRate               = decimal.RequireFromString("0.08")
	CouponRate            = decimal.RequireFromString("0.10")
)

var ErrInvalidCoupon = errors.New("invalid coupon code")

// Quote is the price breakdown shown on a page. Tax is zero on the cart page.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Coupon   string          `json:"coupon,omitempty"`
}

// Shipping is free only for a subtotal strictly above the threshold.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate)
}

func ValidateCoupon(code string) error {
	if !strings.EqualFold(strings.TrimSpace(code), CouponWelcome) {
		return ErrInvalidCoupon
	}
	return nil
}

// Discount is the coupon discount on subtotal, or zero for any code that is
// not recognised.
func Discount(subtotal decimal.Decimal, code string) decimal.Decimal {
	if ValidateCoupon(code) != nil {
		return decimal.Zero
	}
	return subtotal.Mul(CouponRate)
}

// CartQuote is the pre-checkout summary: subtotal + shipping - discount.
func CartQuote(subtotal decimal.Decimal, code string) Quote {
	q := Quote{
		Subtotal: subtotal,
		Shipping: Shipping(subtotal),
		Tax:      decimal.Zero,
		Discount: Discount(subtotal, code),
	}
	if ValidateCoupon(code) == nil {
		q.Coupon = code
	}
	q.Total = q.Subtotal.Add(q.Shipping).Sub(q.Discount)
	return q
}

// CheckoutQuote is the summary persisted with the order:
// subtotal + shipping + tax - discount. Tax is charged on the full subtotal.
func CheckoutQuote(subtotal decimal.Decimal, code string) Quote {
	q := CartQuote(subtotal, code)
	q.Tax = Tax(subtotal)
	q.Total = q.Subtotal.Add(q.Shipping).Add(q.Tax).Sub(q.Discount)
	return q
}
