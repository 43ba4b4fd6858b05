package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/auth"
	"github.com/safar/sanli-cicek/internal/checkout"
)

// getCheckout renders the checkout summary. An empty cart is sent back to
// the cart page before any pricing happens.
func (s *Server) getCheckout(c *gin.Context) {
	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if store.Empty() {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}

	id, _ := auth.FromContext(c)

	respondJSON(c, http.StatusOK, gin.H{
		"items":         store.Lines(),
		"summary":       s.checkout.CheckoutQuote(store),
		"form":          s.checkout.Prefill(c.Request.Context(), id),
		"authenticated": id != nil,
	})
}

func (s *Server) submitCheckout(c *gin.Context) {
	store, ok := s.sessionCart(c)
	if !ok {
		return
	}

	if store.Empty() {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}

	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, _ := auth.FromContext(c)

	order, err := s.checkout.Submit(c.Request.Context(), id, store, form)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			c.Redirect(http.StatusSeeOther, "/cart")
			return
		}
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newOrderView(order, true))
}
