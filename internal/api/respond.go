package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/checkout"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/orderstatus"
	"github.com/safar/sanli-cicek/internal/pricing"
	"github.com/safar/sanli-cicek/internal/store"
)

func respondJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondErr maps domain errors to a status and a user-facing message.
func respondErr(c *gin.Context, err error) {
	var formErr *checkout.FormError

	switch {
	case errors.Is(err, database.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "Sipariş bulunamadı")
	case errors.Is(err, database.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "Ürün bulunamadı")
	case errors.Is(err, database.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "Kategori bulunamadı")
	case errors.Is(err, store.ErrInvalidSort):
		respondError(c, http.StatusBadRequest, "Geçersiz sıralama")
	case errors.Is(err, database.ErrProfileNotFound):
		respondError(c, http.StatusNotFound, "Kullanıcı bulunamadı")
	case errors.Is(err, pricing.ErrInvalidCoupon):
		respondError(c, http.StatusBadRequest, "Geçersiz kupon")
	case errors.Is(err, store.ErrInvalidCursor):
		respondError(c, http.StatusBadRequest, "Geçersiz sayfa imleci")
	case errors.Is(err, orderstatus.ErrUnknownStatus):
		respondError(c, http.StatusBadRequest, "Geçersiz sipariş durumu")
	case errors.As(err, &formErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "Lütfen zorunlu alanları doldurun",
			"fields": formErr.Fields,
		})
	case errors.Is(err, checkout.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Sipariş vermek için giriş yapmalısınız",
			"login": "/auth/login?redirect=/checkout",
		})
	case errors.Is(err, checkout.ErrSubmitFailed):
		respondError(c, http.StatusBadGateway, "Sipariş oluşturulurken bir hata oluştu")
	default:
		log.Printf("%s %s - %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}
