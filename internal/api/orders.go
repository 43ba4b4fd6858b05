package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/auth"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/safar/sanli-cicek/internal/orderstatus"
)

type orderView struct {
	*models.Order
	Badge    orderstatus.Badge  `json:"badge"`
	Timeline []orderstatus.Step `json:"timeline,omitempty"`
}

func newOrderView(order *models.Order, withTimeline bool) orderView {
	v := orderView{
		Order: order,
		Badge: orderstatus.BadgeFor(order.Status),
	}
	if withTimeline {
		v.Timeline = orderstatus.BuildTimeline(order.Status, order.CreatedAt, order.UpdatedAt, order.DeliveredAt)
	}
	return v
}

func orderViews(items interface{}) []orderView {
	orders, _ := items.([]models.Order)
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i], false))
	}
	return views
}

// trackOrder looks an order up by its number for the tracking page.
func (s *Server) trackOrder(c *gin.Context) {
	order, err := s.orders.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newOrderView(order, true))
}

func (s *Server) listMyOrders(c *gin.Context) {
	id, _ := auth.FromContext(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := s.orders.ListUserOrders(c.Request.Context(), id.UserID, c.Query("cursor"), limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"items":       orderViews(result.Items),
		"next_cursor": result.NextCursor,
		"has_more":    result.HasMore,
	})
}
