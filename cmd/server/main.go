package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"devmatch/internal/auth"
	"devmatch/internal/config"
	"devmatch/internal/database"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/events"
	"devmatch/internal/handler"
	"devmatch/internal/handler/sse"
	"devmatch/internal/metrics"
	"devmatch/internal/middleware"
	"devmatch/internal/realtime"
	"devmatch/internal/repository/memory"
	redisrepo "devmatch/internal/repository/redis"
	"devmatch/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	policy, err := config.LoadPolicy(cfg.MatchingPolicyFile)
	if err != nil {
		log.Fatalf("Failed to load matching policy: %v", err)
	}
	logger.Info("matching policy loaded",
		"reswipe", policy.Reswipe,
		"superlike_satisfies_like", policy.Reciprocity.SuperlikeSatisfiesLike,
		"retry_attempts", policy.Retry.MaxAttempts,
	)

	// JWKS when a Supabase project is configured, shared secret otherwise
	var jwtVerifier auth.JWTVerifier
	if cfg.SupabaseJWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	} else {
		jwtVerifier, err = auth.NewHMACVerifier(cfg.JWTSecret, logger)
	}
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg, cfg.AutoMigrate, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	m := metrics.New()

	// Event bus: NATS fans events out across instances
	var bus events.Bus
	if cfg.NATSURL != "" {
		natsBus, err := events.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		bus = natsBus
		logger.Info("event bus connected", "url", cfg.NATSURL)
	} else {
		bus = events.NewLocalBus()
		logger.Warn("NATS_URL not set, events stay in this process")
	}
	defer bus.Close()

	// Rate limiter: Redis shares counters across instances
	var limiter repositories.RateLimiter
	if cfg.RedisAddr != "" {
		client, err := redisrepo.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		limiter = redisrepo.NewRateLimiter(client, logger)
		logger.Info("rate limiter connected", "addr", cfg.RedisAddr)
	} else {
		limiter = memory.NewRateLimiter()
	}

	svc := service.SetupServices(db, policy, bus, m, logger)

	hub := realtime.NewHub(m, logger)
	if err := hub.Start(bus); err != nil {
		log.Fatalf("Failed to start realtime hub: %v", err)
	}
	defer hub.Close()

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")

	healthHandler := handler.NewHealthHandler(db.Ping)
	swipeHandler := handler.NewSwipeHandler(svc.Swipes, logger)
	matchHandler := handler.NewMatchHandler(svc.Matches, svc.Swipes, logger)
	chatHandler := handler.NewChatHandler(svc.Chat, logger)
	profileHandler := handler.NewProfileHandler(svc.Profiles, logger)
	projectHandler := handler.NewProjectHandler(svc.Projects, logger)
	realtimeHandler := handler.NewRealtimeHandler(hub, svc.Chat, corsOrigins, logger)
	eventsHandler := handler.NewEventsHandler(hub, svc.Chat, sse.DefaultConfig(), logger)

	logger.Info("services initialized", "storage_postgres", db.IsPostgres())

	window := policy.RateLimits.Window
	swipeLimit := middleware.RateLimit(limiter, "swipe", policy.RateLimits.Swipes, window, m, logger)
	messageLimit := middleware.RateLimit(limiter, "message", policy.RateLimits.Messages, window, m, logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", m.Handler())

	// Swipe routes
	mux.Handle("POST /api/swipes", swipeLimit(http.HandlerFunc(swipeHandler.Swipe)))
	mux.Handle("POST /api/interests", swipeLimit(http.HandlerFunc(swipeHandler.RecordInterest)))
	mux.HandleFunc("GET /api/interests/reciprocal", swipeHandler.FindReciprocal)

	// Match routes
	mux.HandleFunc("POST /api/matches", matchHandler.CreateMatch)
	mux.HandleFunc("GET /api/matches", matchHandler.ListMatches)
	mux.HandleFunc("GET /api/matches/{id}", matchHandler.GetMatch)
	mux.HandleFunc("POST /api/matches/{id}/room", matchHandler.EnsureRoom)

	// Chat routes
	mux.HandleFunc("GET /api/rooms/{id}", chatHandler.GetRoom)
	mux.HandleFunc("GET /api/rooms/{id}/messages", chatHandler.ListMessages)
	mux.Handle("POST /api/rooms/{id}/messages", messageLimit(http.HandlerFunc(chatHandler.SendMessage)))
	mux.HandleFunc("POST /api/rooms/{id}/read", chatHandler.MarkRead)

	// Realtime routes
	mux.HandleFunc("GET /ws/rooms/{id}", realtimeHandler.ServeRoom)
	mux.HandleFunc("GET /ws/me", realtimeHandler.ServeUser)
	mux.HandleFunc("GET /api/events", eventsHandler.Stream)

	// Profile routes
	mux.HandleFunc("PUT /api/profiles/me", profileHandler.UpsertMe)
	mux.HandleFunc("GET /api/profiles/{id}", profileHandler.GetProfile)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)

	// Deck routes
	mux.HandleFunc("GET /api/deck/profiles", profileHandler.Deck)
	mux.HandleFunc("GET /api/deck/projects", projectHandler.Deck)

	// Build middleware chain
	var h http.Handler = middleware.RoutePattern(mux)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Logging → Recovery → Auth → Timeout → Routes
	h = middleware.Timeout(cfg.RequestTimeout)(h)
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger, m)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// Websockets manage their own write deadlines
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// Websocket connections are hijacked, so Shutdown does not wait for them.
		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
}
