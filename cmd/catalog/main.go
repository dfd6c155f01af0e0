package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nuvora/catalog-service/config"
	"github.com/nuvora/catalog-service/internal/activity"
	catalogdto "github.com/nuvora/catalog-service/internal/catalog/dto"
	productdto "github.com/nuvora/catalog-service/internal/product/dto"
	"github.com/nuvora/catalog-service/pkg/apperrors"
	"github.com/nuvora/catalog-service/pkg/broker"
	"github.com/nuvora/catalog-service/pkg/cache"
	"github.com/nuvora/catalog-service/pkg/db/postgres"
	"github.com/nuvora/catalog-service/pkg/imagestore"
	"github.com/nuvora/catalog-service/pkg/logger"
	"github.com/nuvora/catalog-service/pkg/response"
	"github.com/nuvora/catalog-service/pkg/search"

	catalogRepoPkg "github.com/nuvora/catalog-service/internal/catalog/repository"
	catalogUCPkg "github.com/nuvora/catalog-service/internal/catalog/usecase"
	categoryRepoPkg "github.com/nuvora/catalog-service/internal/category/repository"
	companyRepoPkg "github.com/nuvora/catalog-service/internal/company/repository"
	optionRepoPkg "github.com/nuvora/catalog-service/internal/option/repository"
	optionUCPkg "github.com/nuvora/catalog-service/internal/option/usecase"
	productRepoPkg "github.com/nuvora/catalog-service/internal/product/repository"
	productUCPkg "github.com/nuvora/catalog-service/internal/product/usecase"
	taxRepoPkg "github.com/nuvora/catalog-service/internal/tax/repository"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
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

	// 4. Initialize Repositories
	productRepo := productRepoPkg.NewPGRepository(db)
	optionRepo := optionRepoPkg.NewPGRepository(db)
	catalogRepo := catalogRepoPkg.NewPGRepository(db)
	categoryRepo := categoryRepoPkg.NewPGRepository(db)
	taxRepo := taxRepoPkg.NewPGRepository(db)
	companyRepo := companyRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka Producer
	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ActivityTopic,
	})
	defer kafkaProducer.Close()
	recorder := activity.NewKafkaRecorder(kafkaProducer, appLogger)
	appLogger.Info("Connected to Kafka Producer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ActivityTopic))

	// 5.8 Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search falls back to the database)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 5.9 Initialize Image Store
	images := imagestore.NewLocalStore(cfg.ImageStore.Root, cfg.ImageStore.BaseURL)

	// 6. Initialize UseCases
	optionUC := optionUCPkg.NewOptionUseCase(optionRepo, images, recorder, appLogger)
	productUC := productUCPkg.NewProductUseCase(
		productRepo, optionUC, optionRepo, taxRepo, companyRepo, categoryRepo,
		images, redisClient, esClient, recorder, appLogger,
	)
	catalogUC := catalogUCPkg.NewCatalogUseCase(catalogRepo, categoryRepo, redisClient, esClient, appLogger)

	// 7. Start HTTP Server. The full API is mounted by the gateway; this
	// binary exposes health plus a read-only catalog surface.
	port := cfg.Server.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/catalog/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			filters := &catalogdto.Filters{
				Query:    r.URL.Query().Get("q"),
				SortBy:   r.URL.Query().Get("sort"),
				Page:     atoiOr(r.URL.Query().Get("page"), 1),
				PageSize: atoiOr(r.URL.Query().Get("page_size"), 20),
			}
			filters.PublishedOnly = true
			list, err := catalogUC.ListAll(r.Context(), filters)
			if err != nil {
				writeJSON(w, response.FromError(err))
				return
			}
			writeJSON(w, response.Success("products listed", list))
		case http.MethodPost:
			input := &productdto.CreateProductInput{}
			if err := json.NewDecoder(r.Body).Decode(input); err != nil {
				writeJSON(w, response.FromError(apperrors.NewValidation("invalid request body")))
				return
			}
			p, err := productUC.Create(r.Context(), input)
			if err != nil {
				writeJSON(w, response.FromError(err))
				return
			}
			writeJSON(w, response.Success("product created", p))
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/v1/catalog/categories", func(w http.ResponseWriter, r *http.Request) {
		categories, err := catalogUC.Categories(r.Context(), r.URL.Query().Get("include_inactive") == "")
		if err != nil {
			writeJSON(w, response.FromError(err))
			return
		}
		writeJSON(w, response.Success("categories listed", categories))
	})
	mux.HandleFunc("/v1/catalog/products/", func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimPrefix(r.URL.Path, "/v1/catalog/products/")
		p, err := catalogUC.GetBySlug(r.Context(), slug)
		if err != nil {
			writeJSON(w, response.FromError(err))
			return
		}
		writeJSON(w, response.Success("product found", p))
	})

	server := &http.Server{Addr: port, Handler: mux}
	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func writeJSON(w http.ResponseWriter, res *response.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_ = json.NewEncoder(w).Encode(res)
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return fallback
}
