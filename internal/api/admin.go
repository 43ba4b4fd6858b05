package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/orderstatus"
)

func (s *Server) stats(c *gin.Context) {
	stats, err := s.orders.Stats(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, stats)
}

func (s *Server) listOrders(c *gin.Context) {
	page, pageSize := pageParams(c)

	status := c.Query("status")
	if status != "" {
		if _, err := orderstatus.Parse(status); err != nil {
			respondErr(c, err)
			return
		}
	}

	result, err := s.orders.ListOrders(c.Request.Context(), page, pageSize, status)
	if err != nil {
		respondErr(c, err)
		return
	}

	result.Items = orderViews(result.Items)
	respondJSON(c, http.StatusOK, result)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newOrderView(order, true))
}

func (s *Server) listUsers(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, err := s.profiles.ListProfiles(c.Request.Context(), page, pageSize)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

func (s *Server) setUserAdmin(c *gin.Context) {
	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := s.profiles.SetAdmin(c.Request.Context(), c.Param("id"), *req.IsAdmin)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, profile)
}
