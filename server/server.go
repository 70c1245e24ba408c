// Package server assembles the mock storefront API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "pharmacy-storefront/common/errors"
	"pharmacy-storefront/common/middleware"
	"pharmacy-storefront/config"
	"pharmacy-storefront/controllers"
	"pharmacy-storefront/database"
	"pharmacy-storefront/events"
	"pharmacy-storefront/pkg/ids"
	"pharmacy-storefront/repository"
	"pharmacy-storefront/routes"
	"pharmacy-storefront/services"
)

const ServiceName = "pharmacy-storefront-api"

// Deps are the infrastructure pieces chosen by the caller. Nil fields fall
// back to in-memory implementations.
type Deps struct {
	Carts     database.CartRepository
	Publisher events.Publisher
	IDs       *ids.Generator
	Metrics   middleware.MetricsRecorder
}

type Server struct {
	Router   *gin.Engine
	Tokens   *services.TokenService
	Injector *middleware.ErrorInjector

	publisher events.Publisher
	logger    *zap.Logger
}

// New wires repositories, services and controllers into a gin engine.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, deps Deps) (*Server, error) {
	if deps.Carts == nil {
		deps.Carts = database.NewMemoryCartRepository()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.IDs == nil {
		deps.IDs = ids.NewGenerator()
	}

	products, err := repository.SeedProducts()
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	categories, err := repository.SeedCategories()
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	articles, err := repository.SeedArticles()
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}

	catalogRepo := repository.NewMemoryCatalogRepository(products, categories)
	userRepo := repository.NewMemoryUserRepository()
	orderRepo := repository.NewMemoryOrderRepository()
	contentRepo := repository.NewMemoryContentRepository(articles)

	if cfg.SeedDemoUser {
		if err := services.SeedDemoAccount(ctx, userRepo, orderRepo); err != nil {
			return nil, fmt.Errorf("seed demo account: %w", err)
		}
		logger.Info("Demo account seeded", zap.String("email", repository.DemoEmail))
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(userRepo, tokens, logger)
	catalogService := services.NewCatalogService(catalogRepo, logger)
	cartService := services.NewCartService(deps.Carts, catalogRepo, deps.IDs, logger)
	orderService := services.NewOrderService(orderRepo, userRepo, catalogRepo, cartService, deps.Publisher, deps.IDs, logger)
	addressService := services.NewAddressService(userRepo, logger)
	contentService := services.NewContentService(contentRepo, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.HTTPMetrics(deps.Metrics, ServiceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	injector := middleware.NewErrorInjector(logger)
	if cfg.ErrorInjection {
		r.Use(injector.Middleware())
		routes.RegisterAdminRoutes(r, injector)
	}

	auth := middleware.AuthMiddleware(tokens)
	routes.RegisterAuthRoutes(r, controllers.NewAuthController(authService), auth)
	routes.RegisterCatalogRoutes(r, controllers.NewProductController(catalogService))
	routes.RegisterCartRoutes(r, controllers.NewCartController(cartService), auth)
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(orderService), auth)
	routes.RegisterAddressRoutes(r, controllers.NewAddressController(addressService), auth)
	routes.RegisterContentRoutes(r, controllers.NewContentController(contentService), auth)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": ServiceName})
	})
	r.NoRoute(func(c *gin.Context) {
		apperrors.Abort(c, apperrors.ErrNotFound)
	})

	return &Server{
		Router:    r,
		Tokens:    tokens,
		Injector:  injector,
		publisher: deps.Publisher,
		logger:    logger,
	}, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Storefront API started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
	}
	return s.Close()
}

func (s *Server) Close() error {
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close event publisher: %w", err)
	}
	return nil
}
