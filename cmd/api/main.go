package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/api"
	"github.com/safar/sanli-cicek/internal/auth"
	"github.com/safar/sanli-cicek/internal/backend"
	"github.com/safar/sanli-cicek/internal/cart"
	"github.com/safar/sanli-cicek/internal/checkout"
	"github.com/safar/sanli-cicek/internal/config"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	var persister cart.Persister
	switch cfg.Cart.Persister {
	case config.CartPersisterFile:
		persister, err = cart.NewFilePersister(cfg.Cart.Dir)
		if err != nil {
			log.Fatalf("Open cart directory: %v", err)
		}
		log.Printf("Cart sessions stored in %s", cfg.Cart.Dir)
	default:
		persister = store.NewCartPersister(db)
		log.Printf("Cart sessions stored in postgres")
	}

	var orders api.OrderBackend
	switch cfg.Backend.Kind {
	case config.BackendREST:
		orders = backend.New(cfg.Backend)
		log.Printf("Orders served by %s", cfg.Backend.URL)
	default:
		orders = &store.Orders{DB: db}
		log.Printf("Orders served by postgres")
	}

	profiles := &store.Profiles{DB: db}

	router := api.NewRouter(api.Deps{
		Catalog:        &store.Products{DB: db},
		Orders:         orders,
		Profiles:       profiles,
		Carts:          cart.NewSessions(persister, cfg.Cart.IdleTimeout),
		Checkout:       checkout.NewService(orders, profiles),
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  cfg.Server.ReleaseMode,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("Shutting down server")
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
