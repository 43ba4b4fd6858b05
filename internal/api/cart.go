package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safar/sanli-cicek/internal/cart"
	"github.com/safar/sanli-cicek/internal/pricing"
	"github.com/shopspring/decimal"
)

const (
	cartCookie       = "cart_session"
	cartCookieMaxAge = 30 * 24 * 60 * 60
)

type cartView struct {
	Items      []cart.Line     `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Coupon     string          `json:"coupon,omitempty"`
	Summary    pricing.Quote   `json:"summary"`
}

// sessionCart returns the cart of the caller's session, issuing a new
// session cookie when the request carries none.
func (s *Server) sessionCart(c *gin.Context) (*cart.Store, bool) {
	raw, _ := c.Cookie(cartCookie)
	id, err := uuid.Parse(raw)
	if err != nil {
		id = uuid.New()
	}
	sessionID := id.String()
	c.SetCookie(cartCookie, sessionID, cartCookieMaxAge, "/", "", s.secureCookies, true)

	store, err := s.carts.Open(c.Request.Context(), sessionID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return store, true
}

func (s *Server) viewCart(store *cart.Store) cartView {
	items := store.Lines()
	if items == nil {
		items = []cart.Line{}
	}
	return cartView{
		Items:      items,
		TotalItems: store.TotalItems(),
		TotalPrice: store.TotalPrice(),
		Coupon:     store.Coupon(),
		Summary:    s.checkout.Quote(store),
	}
}

func (s *Server) getCart(c *gin.Context) {
	store, ok := s.sessionCart(c)
	if !ok {
		return
	}
	respondJSON(c, http.StatusOK, s.viewCart(store))
}

func (s *Server) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !product.IsActive {
		respondError(c, http.StatusNotFound, "Ürün bulunamadı")
		return
	}

	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	err = store.AddItem(c.Request.Context(), cart.Line{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Image:    product.PrimaryImage(),
		Quantity: req.Quantity,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, s.viewCart(store))
}

func (s *Server) updateCartItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if err := store.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, s.viewCart(store))
}

func (s *Server) removeCartItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if err := store.RemoveItem(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, s.viewCart(store))
}

func (s *Server) clearCart(c *gin.Context) {
	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if err := store.ClearCart(c.Request.Context()); err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, s.viewCart(store))
}

func (s *Server) applyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if err := store.ApplyCoupon(c.Request.Context(), req.Code); err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, s.viewCart(store))
}

func (s *Server) removeCoupon(c *gin.Context) {
	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if err := store.RemoveCoupon(c.Request.Context()); err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, s.viewCart(store))
}
