package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Krimson/radar-scope/viewer/internal/batch"
	"github.com/Krimson/radar-scope/viewer/internal/config"
	"github.com/Krimson/radar-scope/viewer/internal/health"
	"github.com/Krimson/radar-scope/viewer/internal/session"
	"github.com/Krimson/radar-scope/viewer/internal/websocket"

	_ "github.com/Krimson/radar-scope/viewer/docs"
)

// @title Radar Scope Viewer API
// @version 1.0
// @description Chart sessions over radar CSV/XLSX recordings.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /
// @schemes http

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("[FATAL] Failed to open log file: %v", err)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Printf("[INFO] Starting radar viewer...")
	log.Printf("[INFO] Configuration loaded: http_port=%s grpc_port=%s storage=%t locale=%q",
		cfg.HTTPPort, cfg.GRPCPort, cfg.StorageEnabled, cfg.Locale)

	healthServer := health.NewHealthServer()

	cache, repository, pingStorage, closeStorage, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize storage: %v", err)
	}
	defer closeStorage()
	healthServer.SetServingStatus(health.ServiceStorage)

	manager := session.NewManager(cache, repository, cfg.Locale)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go healthServer.Monitor(ctx, health.ServiceStorage, 10*time.Second, pingStorage)

	hub := websocket.NewHub(manager, cfg.SnapRadiusPx)
	go hub.Run(ctx)

	var sink batch.Sink = batch.SinkFunc(func(ctx context.Context, b batch.Batch) error {
		hub.NotifySession(b.SessionID, b.SeriesCount)
		return nil
	})
	if cfg.NotifyLog {
		sink = batch.MultiSink(sink, batch.LogSink{})
	}
	notifier := batch.NewBatcher(batch.Config{
		FlushInterval: cfg.NotifyFlushInterval(),
		MaxPending:    cfg.NotifyMaxPending,
	}, sink)
	manager.OnChange(notifier.Add)

	router := mux.NewRouter()
	session.NewHTTPHandler(manager, session.HandlerOptions{
		SnapRadiusPx:   cfg.SnapRadiusPx,
		MaxTicks:       cfg.MaxTicks,
		UploadMaxBytes: cfg.UploadMaxBytes(),
		DataDir:        cfg.DataDir,
	}).RegisterRoutes(router)

	router.HandleFunc("/ws", hub.HandleWebSocket)
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))
	router.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"active_sessions":   manager.ActiveCount(),
			"websocket_clients": hub.ClientCount(),
			"notifications":     notifier.Stats(),
			"timestamp":         time.Now().Format(time.RFC3339),
		})
	}).Methods("GET")

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      enableCORS(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcServer := health.NewGRPCServer(healthServer)

	serverErrChan := make(chan error, 2)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		if err := health.Serve(grpcServer, ":"+cfg.GRPCPort); err != nil {
			serverErrChan <- err
		}
	}()
	healthServer.SetServingStatus(health.ServiceHTTP)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Printf("[ERROR] Server error: %v", err)

	case sig := <-shutdownChan:
		log.Printf("[INFO] Received signal %v, starting graceful shutdown...", sig)
	}

	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] HTTP server forced to shutdown: %v", err)
	}
	notifier.Stop()
	cancel()
	grpcServer.GracefulStop()

	log.Printf("[INFO] Server stopped")
}

// openStorage connects Redis and PostgreSQL, or returns in-memory stores when storage is disabled.
// The returned ping checks both connections for the health monitor.
func openStorage(cfg *config.Config) (session.CacheStore, session.Repository, health.Pinger, func(), error) {
	if !cfg.StorageEnabled {
		log.Printf("[INFO] Storage disabled, keeping sessions in memory")
		noop := func(context.Context) error { return nil }
		return session.NewMemoryCache(cfg.SessionCacheTTL()), session.NewMemoryRepository(), noop, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Printf("[INFO] Connected to Redis at %s", cfg.RedisAddr)

	repository, err := session.NewPostgresRepositoryFromDSN(cfg.PostgresDSN)
	if err != nil {
		redisClient.Close()
		return nil, nil, nil, nil, err
	}
	log.Printf("[INFO] Connected to PostgreSQL")

	closeAll := func() {
		if err := repository.Close(); err != nil {
			log.Printf("[WARN] Failed to close PostgreSQL: %v", err)
		}
		if err := redisClient.Close(); err != nil {
			log.Printf("[WARN] Failed to close Redis: %v", err)
		}
	}
	ping := func(ctx context.Context) error {
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if err := repository.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	}
	return session.NewRedisStore(redisClient, cfg.SessionCacheTTL()), repository, ping, closeAll, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}
