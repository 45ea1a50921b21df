package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"

	"auction-platform/internal/api/handlers"
	"auction-platform/internal/cache"
	"auction-platform/internal/config"
	"auction-platform/internal/domain"
	"auction-platform/internal/infrastructure/memory"
	"auction-platform/internal/infrastructure/mysql"
	redisInfra "auction-platform/internal/infrastructure/redis"
	"auction-platform/internal/infrastructure/websocket"
	"auction-platform/internal/schedule"
	"auction-platform/internal/services"
	"auction-platform/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting auction platform service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	sched, err := cfg.Auction.Schedule()
	if err != nil {
		// Already validated in Load; kept as a second guard.
		log.Error("Invalid auction schedule", "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize storage backend
	var (
		ledgerStore domain.LedgerStore
		windowRepo  domain.WindowRepository
		catalogRepo domain.CatalogRepository
	)
	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("Using in-memory ledger store; data will not survive restarts")
		store := memory.NewLedgerStore(clock)
		ledgerStore = store
		windowRepo = store
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			log.Error("Failed to connect to MySQL", "error", err)
			os.Exit(1)
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				log.Error("Failed to close MySQL connection", "error", err)
			}
		}(db)

		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

		if err := db.PingContext(ctx); err != nil {
			log.Error("Failed to ping MySQL", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to MySQL")

		repo := mysql.NewMySQLWindowRepository(db)
		ledgerStore = repo
		windowRepo = repo
		catalogRepo = mysql.NewMySQLCatalogRepository(db)
	default:
		log.Error("Unknown storage backend", "backend", cfg.Storage.Backend)
		os.Exit(1)
	}

	// Cache coordinator and invalidation fan-out
	var cacheOpts []cache.Option
	if cfg.Cache.ServeStale {
		cacheOpts = append(cacheOpts, cache.WithStaleServing())
	}
	coordinator := cache.NewCoordinator(clock, log, cacheOpts...)

	invalidator := services.NewFanoutInvalidator(
		services.NewLocalInvalidator(coordinator),
		redisInfra.NewInvalidationPublisher(rdb),
	)

	// Context shared by the background goroutines; cancelled on shutdown.
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Mirror invalidations published by other instances into the local cache.
	subscriber := redisInfra.NewInvalidationSubscriber(rdb, log)
	go func() {
		if err := subscriber.SubscribeToInvalidations(backgroundCtx, func(tag string) {
			coordinator.Invalidate(tag)
		}); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Invalidation subscriber failed", "error", err)
		}
	}()

	// Core services
	leaderElection := redisInfra.NewLeaderElection(rdb, cfg.Leader.TTL, log)
	ledger := services.NewLedger(ledgerStore, sched, clock, invalidator, log)
	resolver := services.NewStatusResolver(coordinator, ledgerStore)
	provisioner := services.NewWindowProvisioner(
		windowRepo, sched, leaderElection, cfg.Instance.ID, clock,
		cfg.Auction.BuyerCap(), cfg.Auction.SellerCap(), invalidator, log)

	// Countdown ticker feeding the websocket hub
	hub := websocket.NewCountdownHub(log)
	countdown := schedule.NewCountdown(sched, clock, hub.Broadcast, log)
	countdown.Start()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
		MaxAge: 86400,
	}))

	// Handlers and routes
	auctionHandler := handlers.NewAuctionHandler(ledger, resolver, coordinator, windowRepo, log)
	countdownHandler := handlers.NewCountdownHandler(hub, log)

	api := e.Group("/api/v1")
	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.POST("/auctions/:id/participate", auctionHandler.Participate)
	api.GET("/auctions/:id/role", auctionHandler.GetRole)
	api.GET("/window", auctionHandler.GetWindowState)

	if catalogRepo != nil {
		catalogHandler := handlers.NewCatalogHandler(coordinator, catalogRepo, auctionHandler, log)
		api.GET("/auctions/:id/products", catalogHandler.GetAuctionProducts)
		api.GET("/auctions/:id/users/:userId/products", catalogHandler.GetUserAuctionProducts)
		api.GET("/users/:userId/products", catalogHandler.GetUserProducts)
		api.GET("/categories", catalogHandler.GetCategories)
		api.GET("/governorates", catalogHandler.GetGovernorates)
		api.POST("/auctions/:id/invalidate", catalogHandler.InvalidateAuction)
	} else {
		log.Warn("Catalog endpoints disabled: no MySQL backend")
	}

	e.GET("/ws/countdown", countdownHandler.Stream)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-platform",
			"timestamp": clock.Now().Format(time.RFC3339),
			"clients":   hub.Count(),
		})
	})

	// Start background services
	if err := provisioner.Start(context.Background()); err != nil {
		log.Error("Failed to start window provisioner", "error", err)
		os.Exit(1)
	}

	// Try to become leader; stops with the shared background context.
	go services.MaintainLeadership(backgroundCtx, leaderElection, cfg.Instance.ID, 10*time.Second, log)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction platform service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	countdown.Stop()
	hub.Close()
	stopBackground()
	if err := provisioner.Stop(); err != nil {
		log.Error("Failed to stop window provisioner", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction platform service stopped")
}
