package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ppc-optimizer/internal/api"
	"github.com/ignite/ppc-optimizer/internal/cache"
	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/inbox"
	"github.com/ignite/ppc-optimizer/internal/pkg/distlock"
	"github.com/ignite/ppc-optimizer/internal/pkg/logger"
	"github.com/ignite/ppc-optimizer/internal/repository/memory"
	"github.com/ignite/ppc-optimizer/internal/repository/postgres"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
	"github.com/ignite/ppc-optimizer/internal/storage"
	"github.com/ignite/ppc-optimizer/internal/warehouse"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if lvl, ok := logger.ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		logger.SetLevel(lvl)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("[storage] %s backend ready", cfg.Storage.Type)

	// Database (client profiles)
	var db *sql.DB
	var profiles optimization.ProfileRepository = memory.NewProfileRepo()
	if cfg.Database.Enabled() {
		db, err = openDatabase(ctx, cfg.Database)
		if err != nil {
			log.Printf("Warning: database unavailable (%s): %v: profiles kept in memory",
				logger.RedactDSN(cfg.Database.URL), err)
			db = nil
		} else {
			profiles = postgres.NewProfileRepo(db)
			defer db.Close()
			log.Printf("[database] connected: %s", logger.RedactDSN(cfg.Database.URL))
		}
	} else {
		log.Println("[database] DATABASE_URL not set: profiles kept in memory")
	}

	// Redis (result cache + run locks)
	var redisClient *redis.Client
	var resultCache optimization.ResultCache
	if cfg.Redis.Enabled() {
		redisClient = openRedis(ctx, cfg.Redis.URL)
		if redisClient != nil {
			defer redisClient.Close()
			resultCache = cache.NewResultCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.ResultTTL())
		}
	} else {
		log.Println("[redis] REDIS_URL not set: no result cache, local run locks")
	}

	// Warehouse sink
	var sink optimization.RunSink
	if cfg.Warehouse.Enabled {
		wh, err := warehouse.Open(cfg.Warehouse)
		if err != nil {
			log.Printf("Warning: warehouse disabled: %v", err)
		} else {
			if err := wh.EnsureTable(ctx); err != nil {
				log.Printf("Warning: warehouse table check failed: %v", err)
			}
			sink = wh
			defer wh.Close()
			log.Printf("[warehouse] %s sink ready (table %s)", cfg.Warehouse.Driver, cfg.Warehouse.Table)
		}
	}

	svc := optimization.NewService(optimization.Deps{
		Profiles: profiles,
		Store:    store,
		Cache:    resultCache,
		Sink:     sink,
		Locks:    distlock.NewFactory(redisClient, db, cfg.Redis.LockTTL()),
	}, optimization.Settings{
		Run:             cfg.Optimizer.Options(),
		DefaultStrategy: domain.Strategy(cfg.Optimizer.DefaultStrategy),
		Export:          cfg.Export.Options(),
		TopChanges:      cfg.Export.TopChanges,
	})

	// Inbox
	var scanner api.Scanner
	if cfg.Inbox.Enabled {
		sc := inbox.NewScanner(store, svc, cfg.Inbox)
		if _, err := sc.Start(ctx); err != nil {
			log.Fatalf("Failed to start inbox: %v", err)
		}
		scanner = sc
	}

	handlers := api.NewHandlers(svc, scanner, api.NewHealthChecker(db, redisClient, store),
		cfg.Server.MaxUploadBytes(), cfg.Export.Options())
	router := api.SetupRoutes(handlers, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	// Cancel background tasks
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openRedis returns nil when Redis cannot be reached.
func openRedis(ctx context.Context, redisURL string) *redis.Client {
	var client *redis.Client
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed (%s): %v: no result cache", logger.RedactDSN(redisURL), err)
		client.Close()
		return nil
	}
	log.Printf("[redis] connected: %s", logger.RedactDSN(redisURL))
	return client
}
