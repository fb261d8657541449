package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/commission-finder/app/config"
	"github.com/commission-finder/app/controllers"
	"github.com/commission-finder/app/middleware"
	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/app/services"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/reload"
	"github.com/commission-finder/internal/search"
	"github.com/commission-finder/internal/snapshot"
	"github.com/commission-finder/routes"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Cannot read .env: %v", err)
	}
	loadConfig()

	// 2. Logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Commission Service")

	// 3. Marketplace registry
	registry := initRegistry(logger)

	// 4. Fuzzy search mirror, hooked before the snapshot restore so restored
	// generations are mirrored too
	mirror := initMirror(logger)
	if mirror != nil {
		registry.OnPublish(mirror.Hook())
	}

	// 5. Last-good snapshots
	store := initSnapshotStore(logger)
	if store != nil {
		defer store.Close()
		if pruned, err := store.Prune(registry.IDs()); err != nil {
			logger.Warn("Cannot prune snapshots", zap.Error(err))
		} else if len(pruned) > 0 {
			logger.Info("Pruned snapshots of unknown marketplaces", zap.Strings("marketplaces", pruned))
		}
		registry.OnPublish(store.Hook())
		if restored := store.RestoreAll(registry, registry.IDs()); len(restored) > 0 {
			logger.Info("Warm start from snapshots", zap.Strings("marketplaces", restored))
		}
	}

	// 6. Search cache (LRU L1, Redis L2 when configured)
	cacheService := initCache(logger)
	defer cacheService.Close()

	// 7. Reload history (MongoDB when configured)
	historyService, mongoClient := initHistory(logger)
	defer historyService.Close()
	if mongoClient != nil {
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
	}

	// 8. Services
	calculatorService := services.NewCalculatorService(logger)
	commissionService := services.NewCommissionService(registry, calculatorService, mirror, logger)
	adminService := services.NewAdminService(registry, historyService, cacheService, logger)
	registry.OnPublish(adminService.CacheHook())

	// 9. Initial load
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths := config.C.Paths()
	for _, missing := range reload.MissingFiles(paths) {
		logger.Warn("Data file not found",
			zap.String("marketplace", missing),
			zap.String("path", paths[missing]))
	}
	if resp, err := adminService.Reload(ctx, requests.ReloadRequest{}, models.TriggerStartup); err == nil && resp.Failed > 0 {
		logger.Warn("Some marketplaces failed to load", zap.Int("failed", resp.Failed))
	}

	// 10. Watcher
	if viper.GetBool("watcher.enabled") {
		watcher := reload.NewWatcher(registry, registry.IDs(), reload.Options{
			Interval: viper.GetDuration("watcher.interval"),
			Paths:    config.C.Paths(),
			FSNotify: viper.GetBool("watcher.fsnotify"),
			OnReport: func(report *commission.ReloadReport, err error) {
				adminService.RecordReport(models.TriggerWatcher, report, err)
			},
		}, logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Fatal("Failed to start reload watcher", zap.Error(err))
		}
		defer watcher.Stop()
		adminService.AttachWatcher(watcher)
	}

	// 11. Controllers
	commissionController := controllers.NewCommissionController(commissionService, cacheService, logger)
	calculatorController := controllers.NewCalculatorController(commissionService, calculatorService, logger)
	adminController := controllers.NewAdminController(adminService, logger)

	// 12. Router
	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	var limiter *middleware.RateLimiter
	if rps := viper.GetFloat64("ratelimit.rps"); rps > 0 {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RPS:   rps,
			Burst: viper.GetInt("ratelimit.burst"),
		}, logger)
	}

	routes.SetupAllRoutes(router, commissionController, calculatorController, adminController, routes.Options{
		CORSOrigins: viper.GetStringSlice("cors.origins"),
		RateLimiter: limiter,
		Logger:      logger,
	})

	// 13. Serve until interrupted
	port := viper.GetString("app.port")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Commission Service listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// loadConfig reads config/app.yaml and the environment.
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("data.dir", "")
	viper.SetDefault("data.marketplaces_file", "")
	viper.SetDefault("watcher.enabled", true)
	viper.SetDefault("watcher.interval", 30*time.Second)
	viper.SetDefault("watcher.fsnotify", true)
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("redis.url", "")
	viper.SetDefault("mongo.url", "")
	viper.SetDefault("mongo.database", "commission_finder")
	viper.SetDefault("meilisearch.url", "")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("snapshot.path", "./data/snapshots.db")
	viper.SetDefault("ratelimit.rps", 50)
	viper.SetDefault("ratelimit.burst", 100)
	viper.SetDefault("cors.origins", []string{})

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// initLogger builds a production logger when APP_ENV=production.
func initLogger() *zap.Logger {
	env := getEnv("APP_ENV", viper.GetString("app.env"))

	var zapConfig zap.Config
	if env == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}

	return logger
}

// initRegistry loads the marketplace registry file and builds the registry.
func initRegistry(logger *zap.Logger) *commission.Registry {
	if err := config.Load(viper.GetString("data.marketplaces_file")); err != nil {
		logger.Fatal("Failed to load marketplace registry", zap.Error(err))
	}
	if dir := viper.GetString("data.dir"); dir != "" && os.Getenv("COMMISSION_DATA_DIR") == "" {
		config.C.DataDir = dir
	}

	markets, err := config.C.Markets()
	if err != nil {
		logger.Fatal("Invalid marketplace registry", zap.Error(err))
	}
	registry, err := commission.NewRegistry(markets, logger)
	if err != nil {
		logger.Fatal("Failed to build registry", zap.Error(err))
	}

	logger.Info("Marketplace registry ready",
		zap.String("data_dir", config.C.DataDir),
		zap.Strings("marketplaces", registry.IDs()))
	return registry
}

func initSnapshotStore(logger *zap.Logger) *snapshot.Store {
	path := viper.GetString("snapshot.path")
	if path == "" {
		return nil
	}
	store, err := snapshot.Open(path, logger)
	if err != nil {
		logger.Warn("Snapshots disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return store
}

func initMirror(logger *zap.Logger) *search.Mirror {
	host := viper.GetString("meilisearch.url")
	if host == "" {
		return nil
	}
	mirror, err := search.NewMirror(search.MirrorConfig{
		Host:    host,
		APIKey:  viper.GetString("meilisearch.master_key"),
		Timeout: 30 * time.Second,
	}, logger)
	if err != nil {
		logger.Warn("Fuzzy search disabled", zap.String("host", host), zap.Error(err))
		return nil
	}
	return mirror
}

func initCache(logger *zap.Logger) services.ICacheService {
	ttl := viper.GetDuration("cache.ttl")
	l1, err := services.NewLRUCacheService(getEnvInt("L1_CACHE_SIZE", viper.GetInt("cache.l1_size")), ttl)
	if err != nil {
		logger.Fatal("Failed to initialize L1 cache", zap.Error(err))
	}

	redisURL := viper.GetString("redis.url")
	if redisURL == "" {
		return l1
	}
	l2, err := services.NewRedisCacheService(redisURL, ttl, logger)
	if err != nil {
		logger.Warn("Redis cache unavailable, using L1 only", zap.Error(err))
		return l1
	}
	return services.NewHybridCacheService(l1, l2, logger)
}

func initHistory(logger *zap.Logger) (services.IHistoryService, *mongo.Client) {
	mongoURL := viper.GetString("mongo.url")
	if mongoURL == "" {
		return services.NewMemoryHistoryService(500), nil
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Warn("MongoDB unavailable, keeping reload history in memory", zap.Error(err))
		return services.NewMemoryHistoryService(500), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Warn("MongoDB unreachable, keeping reload history in memory", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return services.NewMemoryHistoryService(500), nil
	}

	dbName := viper.GetString("mongo.database")
	history, err := services.NewMongoHistoryService(client.Database(dbName), logger)
	if err != nil {
		logger.Warn("Reload history collection unavailable", zap.Error(err))
		return services.NewMemoryHistoryService(500), client
	}
	logger.Info("Connected to MongoDB", zap.String("database", dbName))
	return history, client
}

// getEnv returns the environment value of key or defaultValue.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment value of key as int or defaultValue.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
