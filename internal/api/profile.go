package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/auth"
	"github.com/safar/sanli-cicek/internal/models"
)

func (s *Server) getProfile(c *gin.Context) {
	id, _ := auth.FromContext(c)

	profile, err := s.profiles.GetProfile(c.Request.Context(), id.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, profile)
}

// updateProfile saves the caller's own contact details. Email and the admin
// flag are not editable here.
func (s *Server) updateProfile(c *gin.Context) {
	id, _ := auth.FromContext(c)

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		BirthDate string `json:"birth_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	birthDate := strings.TrimSpace(req.BirthDate)
	if birthDate != "" {
		if _, err := time.Parse("2006-01-02", birthDate); err != nil {
			respondError(c, http.StatusBadRequest, "Geçersiz doğum tarihi")
			return
		}
	}

	ctx := c.Request.Context()
	email := id.Email
	if existing, err := s.profiles.GetProfile(ctx, id.UserID); err == nil && existing.Email != "" {
		email = existing.Email
	}

	profile, err := s.profiles.UpsertProfile(ctx, models.Profile{
		ID:        id.UserID,
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		BirthDate: birthDate,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, profile)
}
