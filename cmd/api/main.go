package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/inkmint/inkmint-backend/api/routes"
	address "github.com/inkmint/inkmint-backend/internal/address"
	"github.com/inkmint/inkmint-backend/internal/cart"
	category "github.com/inkmint/inkmint-backend/internal/categories"
	checkoutsvc "github.com/inkmint/inkmint-backend/internal/checkout"
	coupon "github.com/inkmint/inkmint-backend/internal/coupons"
	order "github.com/inkmint/inkmint-backend/internal/orders"
	product "github.com/inkmint/inkmint-backend/internal/products"
	review "github.com/inkmint/inkmint-backend/internal/reviews"
	user "github.com/inkmint/inkmint-backend/internal/users"
	"github.com/inkmint/inkmint-backend/internal/wishlist"
	"github.com/inkmint/inkmint-backend/pkg/auth/session"
	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/db"
	"github.com/inkmint/inkmint-backend/pkg/logger"
	"github.com/inkmint/inkmint-backend/pkg/metrics"
	"github.com/inkmint/inkmint-backend/pkg/migrate"
	"github.com/inkmint/inkmint-backend/pkg/razorpay"
	"github.com/inkmint/inkmint-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := user.NewRepository(gormDB)
	productRepo := product.NewRepository(gormDB)
	categoryRepo := category.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	wishlistRepo := wishlist.NewRepository(gormDB)
	couponRepo := coupon.NewRepository(gormDB)
	orderRepo := order.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	reviewRepo := review.NewRepository(gormDB)

	userService, err := user.NewService(userRepo, sessionManager, redisClient, cfg.JWT, cfg.Password, cfg.AuthRateLimit)
	if err != nil {
		fatal(logg, "user service", err)
	}
	categoryService, err := category.NewService(categoryRepo)
	if err != nil {
		fatal(logg, "category service", err)
	}
	productService, err := product.NewService(productRepo, categoryRepo)
	if err != nil {
		fatal(logg, "product service", err)
	}
	cartService, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		fatal(logg, "cart service", err)
	}
	wishlistService, err := wishlist.NewService(wishlistRepo, productRepo)
	if err != nil {
		fatal(logg, "wishlist service", err)
	}
	couponService, err := coupon.NewService(couponRepo, cartService)
	if err != nil {
		fatal(logg, "coupon service", err)
	}
	orderService, err := order.NewService(orderRepo)
	if err != nil {
		fatal(logg, "order service", err)
	}
	addressService, err := address.NewService(addressRepo)
	if err != nil {
		fatal(logg, "address service", err)
	}
	reviewService, err := review.NewService(reviewRepo, productRepo)
	if err != nil {
		fatal(logg, "review service", err)
	}
	checkoutService, err := checkoutsvc.NewService(
		cartService,
		addressRepo,
		couponService,
		couponRepo,
		orderRepo,
		cartRepo,
		gateway,
		redisClient,
		dbClient,
		cfg.Checkout,
		cfg.Razorpay.KeyID,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		fatal(logg, "checkout service", err)
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		DB:              dbClient,
		Cache:           redisClient,
		Idempotency:     redisClient,
		Sessions:        sessionManager,
		HTTPMetrics:     httpMetrics,
		MetricsGatherer: registry,
	}, routes.Services{
		Users:      userService,
		Products:   productService,
		Categories: categoryService,
		Cart:       cartService,
		Wishlist:   wishlistService,
		Coupons:    couponService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Addresses:  addressService,
		Reviews:    reviewService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func fatal(logg *logger.Logger, component string, err error) {
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
