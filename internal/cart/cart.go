// Package cart is the shopping cart of one storefront session. A Store is an
// explicit object handed to whoever reads or mutates the cart; every mutation
// is written through its Persister before the call returns, so reopening the
// session reconstructs the same cart.
package cart

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/safar/sanli-cicek/internal/pricing"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart. Name, Price and Image are captured when
// the product is first added and are not refreshed afterwards.
type Line struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the persisted form of a cart.
type Snapshot struct {
	Lines     []Line    `json:"items"`
	Coupon    string    `json:"coupon,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Persister interface {
	// Load returns an empty snapshot for a session that was never saved.
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Save(ctx context.Context, sessionID string, snap Snapshot) error
}

type Store struct {
	mu        sync.Mutex
	sessionID string
	persister Persister
	lines     []Line
	coupon    string
}

// Open loads the cart of sessionID from p.
func Open(ctx context.Context, sessionID string, p Persister) (*Store, error) {
	snap, err := p.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", sessionID, err)
	}

	s := &Store{
		sessionID: sessionID,
		persister: p,
	}
	s.restore(snap)

	return s, nil
}

// reload replaces the in-memory cart with the persisted one.
func (s *Store) reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.persister.Load(ctx, s.sessionID)
	if err != nil {
		return fmt.Errorf("load cart %s: %w", s.sessionID, err)
	}
	s.restore(snap)
	return nil
}

func (s *Store) restore(snap Snapshot) {
	s.coupon = snap.Coupon
	s.lines = nil
	for _, line := range snap.Lines {
		if line.Quantity < 1 {
			continue
		}
		s.lines = append(s.lines, line)
	}
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// AddItem inserts line, or adds its quantity to the existing line with the
// same id. A quantity below 1 counts as 1.
func (s *Store) AddItem(ctx context.Context, line Line) error {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	return s.mutate(ctx, func() bool {
		if i := s.indexOf(line.ID); i >= 0 {
			s.lines[i].Quantity += line.Quantity
			return true
		}
		s.lines = append(s.lines, line)
		return true
	})
}

// UpdateQuantity sets the quantity of line id. A quantity below 1 removes
// the line; an unknown id is ignored.
func (s *Store) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	return s.mutate(ctx, func() bool {
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		if quantity < 1 {
			s.removeAt(i)
			return true
		}
		s.lines[i].Quantity = quantity
		return true
	})
}

func (s *Store) RemoveItem(ctx context.Context, id int64) error {
	return s.mutate(ctx, func() bool {
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		s.removeAt(i)
		return true
	})
}

// ClearCart drops every line and the applied coupon.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func() bool {
		s.lines = nil
		s.coupon = ""
		return true
	})
}

// RemoveOrdered takes the quantities in lines out of the cart and drops
// coupon if it is still the applied one. Lines added or raised after the
// order was taken stay in the cart.
func (s *Store) RemoveOrdered(ctx context.Context, lines []Line, coupon string) error {
	return s.mutate(ctx, func() bool {
		changed := false
		for _, ordered := range lines {
			i := s.indexOf(ordered.ID)
			if i < 0 {
				continue
			}
			if s.lines[i].Quantity > ordered.Quantity {
				s.lines[i].Quantity -= ordered.Quantity
			} else {
				s.removeAt(i)
			}
			changed = true
		}
		if coupon != "" && s.coupon == coupon {
			s.coupon = ""
			changed = true
		}
		return changed
	})
}

// ApplyCoupon stores code when it is recognised. An unrecognised code
// returns pricing.ErrInvalidCoupon and leaves the cart untouched.
func (s *Store) ApplyCoupon(ctx context.Context, code string) error {
	if err := pricing.ValidateCoupon(code); err != nil {
		return err
	}

	return s.mutate(ctx, func() bool {
		if s.coupon == code {
			return false
		}
		s.coupon = code
		return true
	})
}

func (s *Store) RemoveCoupon(ctx context.Context) error {
	return s.mutate(ctx, func() bool {
		if s.coupon == "" {
			return false
		}
		s.coupon = ""
		return true
	})
}

func (s *Store) Coupon() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon
}

// Contents returns the lines and the applied coupon as one consistent view.
func (s *Store) Contents() ([]Line, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines), s.coupon
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the undiscounted subtotal before shipping and tax.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Total())
	}
	return total
}

// mutate applies fn under the lock and persists the result when fn reports
// a change. On a failed save the previous state is restored.
func (s *Store) mutate(ctx context.Context, fn func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevLines := cloneLines(s.lines)
	prevCoupon := s.coupon

	if !fn() {
		return nil
	}

	snap := Snapshot{
		Lines:     cloneLines(s.lines),
		Coupon:    s.coupon,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.persister.Save(ctx, s.sessionID, snap); err != nil {
		s.lines = prevLines
		s.coupon = prevCoupon
		log.Printf("Cart.mutate - SessionID: %s, save failed: %v", s.sessionID, err)
		return fmt.Errorf("save cart %s: %w", s.sessionID, err)
	}

	return nil
}

func (s *Store) indexOf(id int64) int {
	for i, line := range s.lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
