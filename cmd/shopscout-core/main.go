package main

// @title           ShopScout Core API
// @version         1.0
// @description     Product search aggregation API. ShopScout Core fans a query out to upstream providers, builds a hybrid lexical and semantic index over the pooled results and returns the reranked, filtered top hits.

// @contact.name   ShopScout OSS
// @contact.url    https://github.com/custodia-labs/shopscout-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/shopscout-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/shopscout-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/shopscout-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/shopscout-core/internal/adapters/driven/providers/catalog"
	"github.com/custodia-labs/shopscout-core/internal/adapters/driven/providers/searx"
	"github.com/custodia-labs/shopscout-core/internal/adapters/driven/rerank"
	httpserver "github.com/custodia-labs/shopscout-core/internal/adapters/driving/http"
	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/custodia-labs/shopscout-core/internal/core/services"
	"github.com/custodia-labs/shopscout-core/internal/fetch"
	"github.com/custodia-labs/shopscout-core/internal/worker"
)

var version = "dev"

func main() {
	log.Printf("shopscout-core %s starting", version)

	// Configuration from environment
	port := getEnvInt("PORT", 8080)
	jwtSecret := getEnv("JWT_SECRET", "development-secret-change-in-production")
	adminKeyHash := getEnv("ADMIN_KEY_HASH", "")
	redisURL := getEnv("REDIS_URL", "redis://localhost:6379")
	databaseURL := getEnv("DATABASE_URL", "")
	openAIKey := getEnv("OPENAI_API_KEY", "")
	embeddingModel := getEnv("OPENAI_EMBEDDING_MODEL", "")
	catalogURL := getEnv("CATALOG_BASE_URL", "")
	searxURL := getEnv("SEARX_BASE_URL", "")
	rerankURL := getEnv("RERANK_URL", "")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize Redis =====
	log.Println("Connecting to Redis...")
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	// ===== Initialize PostgreSQL (optional, search log only) =====
	var db *postgres.DB
	var searchLog driven.SearchLogStore
	if databaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		dbConfig := postgres.Config{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
			ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_SEC", 60)) * time.Second,
		}
		db, err = postgres.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		searchLog = postgres.NewSearchLogStore(db)
		log.Println("PostgreSQL connected and schema initialized")
	} else {
		log.Println("DATABASE_URL not set, search logging disabled")
	}

	// ===== Embedding service =====
	if openAIKey == "" {
		log.Fatalf("OPENAI_API_KEY is required")
	}
	embedder, err := ai.NewOpenAIEmbedding(openAIKey, embeddingModel, getEnv("OPENAI_BASE_URL", ""))
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}

	// ===== Redis-backed stores =====
	resultCache := redisadapter.NewResultCache(redisClient)
	popularity := redisadapter.NewPopularityTracker(redisClient)

	// Vector search needs the RediSearch module; without it the pipeline
	// falls back to the in-process index per request
	var indexFactory driven.VectorIndexFactory
	if getEnvBool("REDISEARCH_ENABLED", false) {
		indexFactory = redisadapter.NewVectorIndexFactory(redisClient, embedder.Dimensions())
		log.Println("Using RediSearch vector backend")
	} else {
		log.Println("RediSearch disabled, using in-process vector index")
	}

	// ===== Reranker (optional) =====
	var reranker driven.Reranker
	if rerankURL != "" {
		reranker, err = rerank.NewHTTPReranker(rerankURL, time.Duration(getEnvInt("RERANK_TIMEOUT_SEC", 30))*time.Second)
		if err != nil {
			log.Fatalf("Failed to create reranker: %v", err)
		}
		log.Println("Reranker enabled")
	} else {
		log.Println("RERANK_URL not set, reranking disabled")
	}

	// ===== Providers =====
	fetchCfg := fetch.DefaultConfig()
	fetchCfg.ConcurrencyLimit = getEnvInt("FETCH_CONCURRENCY", 8)
	fetchCfg.UserAgent = getEnv("FETCH_USER_AGENT", "shopscout-core/"+version)
	fetcher := fetch.NewFetcher(&http.Client{}, fetchCfg)

	var providers []driven.Provider
	if catalogURL != "" {
		catalogCfg := catalog.DefaultConfig(catalogURL)
		catalogCfg.MaxPages = getEnvInt("CATALOG_MAX_PAGES", 3)
		adapter, err := catalog.NewAdapter(catalogCfg, fetcher)
		if err != nil {
			log.Fatalf("Failed to create catalog provider: %v", err)
		}
		providers = append(providers, adapter)
		log.Println("Catalog provider enabled")
	}
	if searxURL != "" {
		searxCfg := searx.DefaultConfig(searxURL)
		searxCfg.MaxResults = getEnvInt("SEARX_MAX_RESULTS", 30)
		adapter, err := searx.NewAdapter(searxCfg, fetcher)
		if err != nil {
			log.Fatalf("Failed to create searx provider: %v", err)
		}
		providers = append(providers, adapter)
		log.Println("SearX provider enabled")
	}
	if len(providers) == 0 {
		log.Fatalf("No providers configured (set CATALOG_BASE_URL and/or SEARX_BASE_URL)")
	}

	// ===== Search service =====
	searchCfg := services.DefaultSearchConfig()
	searchCfg.DefaultCacheTTL = time.Duration(getEnvInt("CACHE_TTL_SEC", 3600)) * time.Second
	searchService := services.NewSearchService(
		providers,
		resultCache,
		embedder,
		indexFactory,
		reranker,
		popularity,
		searchLog,
		searchCfg,
		slog.Default(),
	)

	// ===== Cache warmer =====
	if getEnvBool("WARMER_ENABLED", true) {
		warmer := worker.NewWarmer(worker.WarmerConfig{
			SearchService: searchService,
			Cache:         resultCache,
			Popularity:    popularity,
			Logger:        slog.Default(),
			Interval:      time.Duration(getEnvInt("WARMER_INTERVAL_SEC", 300)) * time.Second,
			TTLThreshold:  time.Duration(getEnvInt("WARMER_TTL_THRESHOLD_SEC", 600)) * time.Second,
			TopN:          getEnvInt("WARMER_TOP_N", 10),
			Mode:          domain.SearchModeBalanced,
			K:             getEnvInt("WARMER_K", 10),
		})
		if err := warmer.Start(ctx); err != nil {
			log.Fatalf("Failed to start cache warmer: %v", err)
		}
		defer warmer.Stop()
		log.Println("Cache warmer started")
	}

	// ===== HTTP server =====
	serverCfg := httpserver.Config{
		Host:         getEnv("HOST", "0.0.0.0"),
		Port:         port,
		Version:      version,
		JWTSecret:    jwtSecret,
		AdminKeyHash: adminKeyHash,
		Logger:       slog.Default(),
	}

	var dbPinger httpserver.Pinger
	if db != nil {
		dbPinger = db
	}
	server := httpserver.NewServer(
		serverCfg,
		searchService,
		resultCache,
		popularity,
		dbPinger,
		redisPinger{redisClient},
	)

	log.Printf("API server starting on :%d", port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// redisPinger adapts the redis client to the server health interface
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
