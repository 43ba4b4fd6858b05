// Package api is the storefront's HTTP surface.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/auth"
	"github.com/safar/sanli-cicek/internal/cart"
	"github.com/safar/sanli-cicek/internal/checkout"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/safar/sanli-cicek/internal/store"
)

type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListProductsByCategory(ctx context.Context, categoryID int64, sort store.ProductSort, page, pageSize int) (*store.OffsetPage, error)
}

type OrderBackend interface {
	checkout.OrderBackend
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID, cursor string, limit int) (*store.CursorPage, error)
	ListOrders(ctx context.Context, page, pageSize int, status string) (*store.OffsetPage, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type Profiles interface {
	checkout.ProfileSource
	UpsertProfile(ctx context.Context, profile models.Profile) (*models.Profile, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (*models.Profile, error)
	ListProfiles(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
}

type Deps struct {
	Catalog        Catalog
	Orders         OrderBackend
	Profiles       Profiles
	Carts          *cart.Sessions
	Checkout       *checkout.Service
	Verifier       *auth.Verifier
	AllowedOrigins []string
	SecureCookies  bool
}

type Server struct {
	catalog       Catalog
	orders        OrderBackend
	profiles      Profiles
	carts         *cart.Sessions
	checkout      *checkout.Service
	secureCookies bool
}

func NewRouter(d Deps) *gin.Engine {
	s := &Server{
		catalog:       d.Catalog,
		orders:        d.Orders,
		profiles:      d.Profiles,
		carts:         d.Carts,
		checkout:      d.Checkout,
		secureCookies: d.SecureCookies,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(auth.Optional(d.Verifier))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/products", s.listProducts)
	r.GET("/products/:slug", s.getProduct)
	r.GET("/categories", s.listCategories)
	r.GET("/categories/:slug/products", s.listCategoryProducts)

	r.GET("/cart", s.getCart)
	r.POST("/cart/items", s.addCartItem)
	r.PUT("/cart/items/:id", s.updateCartItem)
	r.DELETE("/cart/items/:id", s.removeCartItem)
	r.DELETE("/cart", s.clearCart)
	r.POST("/cart/coupon", s.applyCoupon)
	r.DELETE("/cart/coupon", s.removeCoupon)

	r.GET("/orders/track/:number", s.trackOrder)

	member := r.Group("/", s.loadProfile())
	member.GET("/checkout", s.getCheckout)
	member.POST("/checkout", s.submitCheckout)
	member.GET("/orders", auth.RequireUser(), s.listMyOrders)
	member.GET("/profile", auth.RequireUser(), s.getProfile)
	member.PUT("/profile", auth.RequireUser(), s.updateProfile)

	admin := r.Group("/admin", s.loadProfile(), auth.RequireAdmin())
	admin.GET("/stats", s.stats)
	admin.GET("/orders", s.listOrders)
	admin.PATCH("/orders/:id/status", s.updateOrderStatus)
	admin.GET("/users", s.listUsers)
	admin.PATCH("/users/:id/admin", s.setUserAdmin)

	return r
}

// loadProfile makes sure a signed-in caller has a profile row and takes the
// admin flag from it.
func (s *Server) loadProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromContext(c)
		if !ok || s.profiles == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		profile, err := s.profiles.GetProfile(ctx, id.UserID)
		if errors.Is(err, database.ErrProfileNotFound) {
			profile, err = s.profiles.UpsertProfile(ctx, models.Profile{
				ID:        id.UserID,
				Email:     id.Email,
				FirstName: id.FirstName,
				LastName:  id.LastName,
				Phone:     id.Phone,
			})
		}
		if err != nil {
			log.Printf("loadProfile - UserID: %s, profile unavailable: %v", id.UserID, err)
			c.Next()
			return
		}

		if profile.IsAdmin && !id.Admin {
			enriched := *id
			enriched.Admin = true
			auth.SetIdentity(c, &enriched)
		}
		c.Next()
	}
}
