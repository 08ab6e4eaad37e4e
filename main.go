package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/address-cleaner/app/config"
	"github.com/address-cleaner/app/controllers"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/bootstrap"
	"github.com/address-cleaner/internal/metrics"
	"github.com/address-cleaner/internal/search"
	"github.com/address-cleaner/routes"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Khởi tạo logger
	logger, err := bootstrap.NewLogger(viper.GetString("app.env"))
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting Address Cleaner Service")

	cleanerCfg, err := config.Parse(viper.GetString("app.cleaner_config"))
	if err != nil {
		logger.Fatal("Failed to load cleaner config", zap.Error(err))
	}

	// 3. Metrics + pipeline
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cleaner, err := bootstrap.NewCleaner(cleanerCfg, logger, m)
	if err != nil {
		logger.Fatal("Failed to initialize cleaner", zap.Error(err))
	}
	catalogVersion := cleaner.Catalog().Version()

	checks := map[string]controllers.HealthCheck{}

	// 4. MongoDB (tùy chọn)
	var mongoDB *mongo.Database
	if mongoURL := viper.GetString("mongo.url"); mongoURL != "" {
		mongoDB, err = initMongoDB(mongoURL, viper.GetString("mongo.database"), logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
		checks["mongodb"] = func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) }
	}

	// 5. Cache
	cacheService := initCache(mongoDB, catalogVersion, checks, m, logger)

	// 6. Meilisearch (tùy chọn, chỉ phục vụ tra cứu catalog)
	var indexer services.CatalogIndexer
	if host := viper.GetString("meilisearch.url"); host != "" {
		index, err := search.NewCatalogIndex(search.Config{
			Host:      host,
			APIKey:    viper.GetString("meilisearch.master_key"),
			IndexName: viper.GetString("meilisearch.index"),
			Timeout:   30 * time.Second,
		}, logger.Named("search"))
		if err != nil {
			logger.Warn("Meilisearch không khả dụng, tắt tra cứu catalog", zap.Error(err))
		} else {
			indexer = index
			checks["meilisearch"] = func(context.Context) error {
				if !index.Healthy() {
					return errors.New("meilisearch unhealthy")
				}
				return nil
			}
		}
	}

	// 7. Khởi tạo services
	addressService := services.NewAddressService(cleaner, cacheService, services.AddressServiceOptions{
		Workers:      cleanerCfg.BatchWorkers,
		MaxBatchSize: cleanerCfg.MaxBatchSize,
	}, logger.Named("address"), m)
	adminService := services.NewAdminService(cleaner.Catalog(), indexer, mongoDB, cacheService, addressService, logger.Named("admin"))

	// 8. Router
	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Controllers{
		Address: controllers.NewAddressController(addressService, logger),
		Admin:   controllers.NewAdminController(adminService, logger),
		Catalog: controllers.NewCatalogController(cleaner.Catalog(), adminService, logger),
		Health:  controllers.NewHealthController(addressService.GetStartTime(), checks),
	}, reg, logger)

	// 9. Khởi động server
	port := viper.GetString("app.port")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.RequestTimeout(),
	}
	go func() {
		logger.Info("Address Cleaner Service starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := addressService.Shutdown(ctx); err != nil {
		logger.Warn("Batch jobs chưa dừng hết", zap.Error(err))
	}
	if cacheService != nil {
		if err := cacheService.Close(); err != nil {
			logger.Error("Error closing cache", zap.Error(err))
		}
	}
	logger.Info("Server exited")
}

// loadConfig load configuration từ file và env vars (APP_PORT, MONGO_URL, REDIS_URL, ...)
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.cleaner_config", "config/cleaner.yaml")
	viper.SetDefault("mongo.url", "")
	viper.SetDefault("mongo.database", "address_cleaner")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("meilisearch.url", "")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("meilisearch.index", "admin_units")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("cache.ttl", "720h")
	viper.SetDefault("cache.warmup", true)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// initMongoDB khởi tạo kết nối MongoDB
func initMongoDB(mongoURL, dbName string, logger *zap.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Connected to MongoDB", zap.String("database", dbName))
	return client.Database(dbName), nil
}

// initCache chọn cache theo các backend đã cấu hình:
// Redis + MongoDB thành hybrid, chỉ một trong hai thì dùng trực tiếp, không có thì LRU trong process.
func initCache(mongoDB *mongo.Database, catalogVersion string, checks map[string]controllers.HealthCheck, m *metrics.Metrics, logger *zap.Logger) services.ICacheService {
	if !viper.GetBool("cache.enabled") {
		logger.Info("Cache bị tắt")
		return nil
	}

	ttl := viper.GetDuration("cache.ttl")
	l1Size := viper.GetInt("cache.l1_size")

	var l1, l2 services.ICacheService
	if redisURL := viper.GetString("redis.url"); redisURL != "" {
		redisCache, err := services.NewRedisCacheService(redisURL, ttl, logger.Named("redis"))
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		checks["redis"] = redisCache.Ping
		l1 = redisCache
	}
	if mongoDB != nil {
		mongoCache, err := services.NewMongoCacheService(mongoDB, l1Size, catalogVersion, logger.Named("mongo_cache"))
		if err != nil {
			logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
		}
		if viper.GetBool("cache.warmup") {
			if err := mongoCache.WarmUp(context.Background(), l1Size/2); err != nil {
				logger.Warn("Failed to warm up cache", zap.Error(err))
			}
		}
		l2 = mongoCache
	}

	switch {
	case l1 != nil && l2 != nil:
		logger.Info("Cache: Redis L1 + MongoDB L2")
		return services.NewHybridCacheService(l1, l2, logger.Named("cache"), m)
	case l1 != nil:
		logger.Info("Cache: Redis")
		return l1
	case l2 != nil:
		logger.Info("Cache: MongoDB")
		return l2
	default:
		logger.Info("Cache: in-memory LRU", zap.Int("size", l1Size))
		return services.NewMemoryCacheService(l1Size, ttl, catalogVersion)
	}
}
