package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-catalog-service/config"
	activityRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/activity/repository"
	activityUCPkg "github.com/fekuna/omnipos-catalog-service/internal/activity/usecase"
	assignRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/assignment/repository"
	assignUCPkg "github.com/fekuna/omnipos-catalog-service/internal/assignment/usecase"
	invListenerPkg "github.com/fekuna/omnipos-catalog-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-catalog-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-catalog-service/internal/product/usecase"
	"github.com/fekuna/omnipos-catalog-service/internal/server"
	storeRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/store/repository"
	"github.com/fekuna/omnipos-catalog-service/pkg/broker"
	"github.com/fekuna/omnipos-catalog-service/pkg/cache"
	"github.com/fekuna/omnipos-catalog-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-catalog-service/pkg/i18n"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/fekuna/omnipos-catalog-service/pkg/observability"
	"github.com/fekuna/omnipos-catalog-service/pkg/search"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	if cfg.Tracing.Enabled {
		shutdownTracing, err := observability.SetupTracingSDK(ctx, &observability.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: cfg.Tracing.ServiceVersion,
			Endpoint:       cfg.Tracing.Endpoint,
			URLPath:        cfg.Tracing.URLPath,
			Insecure:       cfg.Tracing.Insecure,
		})
		if err != nil {
			appLogger.Warn("Could not set up tracing", zap.Error(err))
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				if err := shutdownTracing(flushCtx); err != nil {
					appLogger.Warn("Tracing shutdown failed", zap.Error(err))
				}
			}()
		}
	}

	// 4. i18n
	translator, err := i18n.New()
	if err != nil {
		appLogger.Fatal("Could not load message catalogs", zap.Error(err))
	}

	// 5. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			appLogger.Fatal("Could not apply schema", zap.Error(err))
		}
		appLogger.Info("Schema applied")
	}

	// 6. Initialize Repositories
	txManager := postgres.NewTxManager(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	storeRepo := storeRepoPkg.NewPGRepository(db)
	assignRepo := assignRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	activityRepo := activityRepoPkg.NewPGRepository(db)

	// 7. Initialize Redis
	var searchCache cache.Cache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, search results will not be cached", zap.Error(err))
		} else {
			defer redisClient.Close()
			searchCache = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 8. Initialize Elasticsearch
	var indexer search.Indexer
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not create Elasticsearch client, products will not be indexed", zap.Error(err))
		} else {
			ensureCtx, ensureCancel := context.WithTimeout(ctx, 10*time.Second)
			if err := esClient.EnsureIndex(ensureCtx, product.SearchIndex, product.SearchIndexMapping); err != nil {
				appLogger.Warn("Could not ensure products index", zap.Error(err))
			}
			ensureCancel()
			indexer = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 9. Initialize UseCases
	activityUC := activityUCPkg.NewActivityUseCase(activityRepo, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, prodRepo, storeRepo, assignRepo, txManager, activityUC, searchCache, appLogger, cfg.Catalog.LowStockThreshold)
	assignUC := assignUCPkg.NewAssignmentUseCase(assignRepo, prodRepo, storeRepo, invRepo, invUC, txManager, activityUC, searchCache, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, invRepo, assignUC, txManager, activityUC, searchCache, indexer, appLogger, prodUCPkg.Config{
		RecentSalesWindow: cfg.Catalog.RecentSalesWindow(),
		SearchCacheTTL:    cfg.Catalog.SearchCacheTTL(),
	})

	// 10. Initialize Kafka Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewKafkaConsumer(&broker.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, invUC, txManager, appLogger)
		go invListener.Start(ctx)
	}

	// 11. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := server.New(appLogger, translator, &server.Services{
		Products:    prodUC,
		Assignments: assignUC,
		Inventory:   invUC,
		Activity:    activityUC,
	})

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer stopCancel()
	grpcServer.Stop(stopCtx)
	appLogger.Info("Server stopped")
}
