package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"edge-gatekeeper/internal/bots"
	"edge-gatekeeper/internal/common/logging"
	"edge-gatekeeper/internal/config"
	"edge-gatekeeper/internal/gatekeeper"
	"edge-gatekeeper/internal/identity"
	"edge-gatekeeper/internal/middleware"
	"edge-gatekeeper/internal/profiles"
	"edge-gatekeeper/internal/ratelimit"
	"edge-gatekeeper/internal/redis"
	"edge-gatekeeper/internal/routes"
	"edge-gatekeeper/internal/server"
	"edge-gatekeeper/internal/telemetry"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.InitGlobalLogger()
	defer logging.MustSync()

	// Counter store. Its absence disables rate limiting; an unreachable
	// store when one is configured is a startup error.
	var store *redis.Client
	backend := cfg.LimiterBackend()
	if backend == config.BackendRedis {
		var err error
		store, err = redis.NewClient(&redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer store.Close()
	}

	limiterConfig := ratelimit.Config{
		Backend: backend,
		API:     ratelimit.Budget{Max: cfg.APIMax, Window: cfg.APIWindow},
		Global:  ratelimit.Budget{Max: cfg.GlobalMax, Window: cfg.GlobalWindow},
	}
	var counterStore ratelimit.StoreInterface
	if store != nil {
		counterStore = store
	}
	limiter, err := ratelimit.New(limiterConfig, counterStore)
	if err != nil {
		log.Fatalf("Failed to build rate limiter: %v", err)
	}

	// Session resolution. A configured JWT secret verifies cookies
	// locally; otherwise sessions resolve through the identity service.
	var resolver identity.Resolver
	switch {
	case cfg.IdentityJWTSecret != "":
		resolver = identity.NewJWTResolver(cfg.AuthCookieName, cfg.IdentityJWTSecret)
	case cfg.IdentityServiceURL != "":
		resolver = identity.NewHTTPResolver(cfg.IdentityServiceURL, cfg.IdentityServiceKey)
	default:
		logging.Warn("No identity backend configured, admin access will be denied")
	}

	var profileStore identity.ProfileStore
	switch cfg.ProfileStore {
	case "postgres", "postgresql":
		port, _ := strconv.Atoi(cfg.PostgresPort)
		sqlStore, err := profiles.Open(profiles.PostgresConfig(
			cfg.PostgresHost, port, cfg.PostgresUser,
			cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode))
		if err != nil {
			log.Fatalf("Failed to open profile store: %v", err)
		}
		defer sqlStore.Close()
		profileStore = sqlStore
	case "sqlite":
		sqlStore, err := profiles.Open(profiles.SQLiteConfig(cfg.SQLitePath))
		if err != nil {
			log.Fatalf("Failed to open profile store: %v", err)
		}
		defer sqlStore.Close()
		profileStore = sqlStore
	default:
		logging.Warn("No profile store configured, admin access will be denied")
	}

	var sink telemetry.Sink = telemetry.NopSink{}
	if store != nil {
		sink = telemetry.NewRedisSink(store, cfg.TelemetryChannel)
	}

	gk := gatekeeper.New(gatekeeper.Options{
		Classifier:       routes.NewClassifier(cfg.AdminPathPrefix, cfg.APIPathPrefix, cfg.StaticPathPrefixes),
		Bots:             bots.NewDetector(cfg.ExtraBotSignatures...),
		Gate:             identity.NewGate(resolver, profileStore),
		Limiter:          limiter,
		Sink:             sink,
		EnforceAdminGate: cfg.EnforceAdminGate,
	})

	upstream := upstreamHandler(cfg.UpstreamURL)

	// Health stays outside the gatekeeper so probes never consume a
	// budget; everything else goes through the decision pipeline.
	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler(limiter)).Methods("GET")
	router.PathPrefix("/").Handler(middleware.Gatekeeper(gk)(upstream))

	handler := middleware.Logging(router)

	srv := server.New(handler, cfg.Port)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	logging.Info("Gatekeeper started",
		logging.Field{Key: "port", Value: cfg.Port},
		logging.Field{Key: "limiter_backend", Value: limiter.Backend()},
		logging.Field{Key: "admin_gate_enforced", Value: cfg.EnforceAdminGate})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed", err)
	}
}

// upstreamHandler proxies allowed requests to the configured origin.
// Without one the gatekeeper still answers, so its decisions can be
// exercised before an origin exists.
func upstreamHandler(upstreamURL string) http.Handler {
	if upstreamURL == "" {
		logging.Warn("No upstream configured, allowed requests get 404")
		return http.NotFoundHandler()
	}

	target, err := url.Parse(upstreamURL)
	if err != nil {
		log.Fatalf("Invalid UPSTREAM_URL: %v", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.Error("Upstream request failed", err,
			logging.Field{Key: "path", Value: r.URL.Path})
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy
}

func healthHandler(limiter ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		health := map[string]string{
			"status":          "healthy",
			"limiter_backend": limiter.Backend(),
		}
		if err := limiter.Health(); err != nil {
			status = http.StatusServiceUnavailable
			health["status"] = "unhealthy"
			health["error"] = err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(health)
	}
}
