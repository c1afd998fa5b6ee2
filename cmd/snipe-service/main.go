package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-sniper/internal/api/handlers"
	"auction-sniper/internal/config"
	"auction-sniper/internal/domain"
	"auction-sniper/internal/infrastructure/leader"
	"auction-sniper/internal/infrastructure/redis"
	"auction-sniper/internal/infrastructure/sqlstore"
	"auction-sniper/internal/infrastructure/websocket"
	"auction-sniper/internal/services"
	"auction-sniper/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New().Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Starting multisnipe service", "config", cfg.GetConfigString())

	if cfg.Instance.ID == "" {
		cfg.Instance.ID = "snipe-service-" + uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize database
	db, dialect, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()
	log.Info("Connected to database", "driver", cfg.Database.Driver)

	store := sqlstore.NewMultiSnipeRepository(db, dialect)
	if err := store.Migrate(ctx); err != nil {
		log.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	repo := redis.NewCachedRepository(store, redis.NewRedisRecordCache(rdb, cfg.Redis.CacheTTL), log)
	eventPublisher := redis.NewRedisEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	bidQueue := redis.NewRedisBidQueue(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	groups := services.NewGroupManager(repo, eventPublisher, domain.NewClockIDSource(), log)
	if _, err := groups.LoadGroups(ctx); err != nil {
		log.Error("Failed to load multisnipes", "error", err)
		os.Exit(1)
	}

	scheduler := services.NewCronSnipeScheduler(cfg.Scheduler.Spec, groups, bidQueue,
		leaderElection, eventPublisher, cfg.Instance.ID, log)

	connManager := websocket.NewConnectionManager(log)
	eventListener := services.NewEventListener(websocket.NewWebSocketNotifier(connManager), connManager, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}"}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       86400,
	}))

	handlers.RegisterRoutes(e,
		handlers.NewMultiSnipeHandler(groups, log),
		handlers.NewWebSocketHandler(groups, connManager, log))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "snipe-service",
			"instance":  cfg.Instance.ID,
			"groups":    len(groups.Groups()),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	if err := scheduler.Start(runCtx); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := eventListener.Start(runCtx, eventSubscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event listener stopped", "error", err)
		}
	}()

	// Try to become leader
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			became, err := leaderElection.BecomeLeader(runCtx, cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
			} else if became {
				log.Info("Became snipe scheduler leader", "instance_id", cfg.Instance.ID)
			}
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting multisnipe server", "address", serverAddr)

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

	log.Info("Shutting down multisnipe service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	stopRun()
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Multisnipe service stopped")
}
