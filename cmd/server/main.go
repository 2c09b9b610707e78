package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/handler"
	"github.com/yourorg/affiliateportal/internal/infrastructure/logger"
	"github.com/yourorg/affiliateportal/internal/infrastructure/media"
	"github.com/yourorg/affiliateportal/internal/infrastructure/notify"
	redisinfra "github.com/yourorg/affiliateportal/internal/infrastructure/redis"
	"github.com/yourorg/affiliateportal/internal/observability/metrics"
	"github.com/yourorg/affiliateportal/internal/observability/tracing"
	"github.com/yourorg/affiliateportal/internal/reliability/circuitbreaker"
	"github.com/yourorg/affiliateportal/internal/repository"
	"github.com/yourorg/affiliateportal/internal/security/auth"
	"github.com/yourorg/affiliateportal/internal/security/middleware"
	"github.com/yourorg/affiliateportal/internal/security/ratelimit"
	"github.com/yourorg/affiliateportal/internal/service"
	"github.com/yourorg/affiliateportal/internal/state"
	"github.com/yourorg/affiliateportal/pkg/config"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting affiliate portal", slog.String("environment", cfg.Environment))

	// 3. Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(context.Background(), log, "affiliateportal", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Local snapshot store
	snapshots, err := repository.NewSQLiteSnapshotStore(cfg.SnapshotPath, log)
	if err != nil {
		log.Error("failed to open snapshot store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer snapshots.Close()

	// 5. Remote document store per configured driver
	var remote domain.RemoteStore
	switch cfg.RemoteDriver {
	case "postgres":
		pg, err := repository.NewPostgresRemoteStore(cfg.PostgresDSN, cfg.DocumentID, log)
		if err != nil {
			log.Warn("remote store unavailable, running local-only", slog.String("error", err.Error()))
		} else {
			defer pg.Close()
			schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := pg.EnsureSchema(schemaCtx); err != nil {
				log.Warn("remote schema setup failed", slog.String("error", err.Error()))
			}
			cancel()
			remote = pg
		}
	case "redis":
		client, err := redisinfra.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("remote store unavailable, running local-only", slog.String("error", err.Error()))
		} else {
			defer client.Close()
			remote = repository.NewRedisRemoteStore(client, cfg.DocumentID, log)
		}
	case "none":
		log.Info("remote sync disabled by configuration")
	}

	// 6. State store seeded with the owner account and configured pricing
	seed := domain.SeedState(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	applyTierConfig(seed, cfg, log)
	store := state.New(snapshots, seed, log)

	// 7. Push scheduler with circuit breaker
	var scheduler *state.PushScheduler
	if remote != nil {
		breaker := circuitbreaker.New(5, 30*time.Second)
		scheduler = state.NewPushScheduler(remote, store.Snapshot, breaker, log,
			time.Duration(cfg.PushDebounceMS)*time.Millisecond)
		store.AttachScheduler(scheduler)

		// Boot-time reconciliation runs off the request path. A failed or
		// empty fetch still marks the cloud initialized so later mutations
		// sync.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			store.Reconcile(remote.Fetch(ctx))
		}()
	} else {
		store.Reconcile(nil)
	}

	// 8. Collaborators
	var notifier service.Notifier = service.NopNotifier{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Warn("telegram notifier disabled", slog.String("error", err.Error()))
		} else {
			notifier = tg
		}
	}

	var uploader handler.ImageUploader
	if cfg.CloudinaryURL != "" {
		up, err := media.NewUploader(cfg.CloudinaryURL, cfg.CloudinaryFolder, log)
		if err != nil {
			log.Warn("image uploads disabled", slog.String("error", err.Error()))
		} else {
			uploader = up
		}
	}

	// 9. Services
	authService := service.NewAuthService(store, log)
	membershipService := service.NewMembershipService(store, log, notifier, nil)
	withdrawalService := service.NewWithdrawalService(store, log, notifier)
	complaintService := service.NewComplaintService(store, log)
	adminService := service.NewAdminService(store, log)

	// 10. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "affiliateportal")
	rateLimiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// 11. Handlers
	authHandler := handler.NewAuthHandler(authService, tokenManager, log)
	profileHandler := handler.NewProfileHandler(store, log)
	membershipHandler := handler.NewMembershipHandler(membershipService, uploader, log)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService, store, log)
	complaintHandler := handler.NewComplaintHandler(complaintService, store, uploader, log)
	adminHandler := handler.NewAdminHandler(adminService, log)
	healthHandler := handler.NewHealthHandler(remote, log)
	eventsHandler := handler.NewEventsHandler(store, log, cfg.CORSAllowedOrigins)

	// 12. Routes
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/settings", handler.NewSettingsHandler(store))

	mux.HandleFunc("GET /api/me", profileHandler.Me)
	mux.HandleFunc("GET /api/me/referrals", profileHandler.Referrals)
	mux.HandleFunc("POST /api/membership/activate", membershipHandler.SubmitActivation)
	mux.HandleFunc("POST /api/withdrawals", withdrawalHandler.Submit)
	mux.HandleFunc("GET /api/withdrawals", withdrawalHandler.ListMine)
	mux.HandleFunc("POST /api/complaints", complaintHandler.Submit)
	mux.HandleFunc("GET /api/complaints", complaintHandler.ListMine)

	adminOnly := func(h http.HandlerFunc) http.Handler { return middleware.AdminOnly(h) }
	mux.Handle("GET /api/admin/users", adminOnly(adminHandler.ListUsers))
	mux.Handle("PATCH /api/admin/users/{id}", adminOnly(adminHandler.UpdateUser))
	mux.Handle("POST /api/admin/users/{id}/ban", adminOnly(adminHandler.SetBanned))
	mux.Handle("POST /api/admin/activations/{id}/approve", adminOnly(membershipHandler.Approve))
	mux.Handle("POST /api/admin/activations/{id}/reject", adminOnly(membershipHandler.Reject))
	mux.Handle("GET /api/admin/withdrawals", adminOnly(adminHandler.ListWithdrawals))
	mux.Handle("POST /api/admin/withdrawals/{id}/approve", adminOnly(withdrawalHandler.Approve))
	mux.Handle("POST /api/admin/withdrawals/{id}/reject", adminOnly(withdrawalHandler.Reject))
	mux.Handle("GET /api/admin/complaints", adminOnly(adminHandler.ListComplaints))
	mux.Handle("POST /api/admin/complaints/{id}/reply", adminOnly(complaintHandler.Reply))
	mux.Handle("GET /api/admin/referrals", adminOnly(adminHandler.ListReferrals))
	mux.Handle("GET /api/admin/stats", adminOnly(adminHandler.Stats))
	mux.Handle("GET /api/admin/settings", middleware.AdminOnly(handler.NewSettingsHandler(store)))
	mux.Handle("PUT /api/admin/settings", adminOnly(adminHandler.UpdateSettings))

	mux.Handle("GET /ws/events", middleware.AdminOnly(eventsHandler))

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: tracing -> JWT -> rate limit -> metrics -> CORS -> mux
	rootHandler := otelhttp.NewHandler(
		middleware.JWTMiddleware(tokenManager, log)(
			middleware.RateLimitMiddleware(rateLimiter, log)(
				metrics.HTTPMetricsMiddleware(handlerWithCORS),
			),
		),
		"affiliateportal.http",
	)

	// 13. HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("remote_driver", cfg.RemoteDriver),
		slog.String("snapshot_path", cfg.SnapshotPath),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	rateLimiter.Close()

	if scheduler != nil {
		// Cancel the pending debounce, then push the final state once.
		scheduler.Stop()
		scheduler.Flush()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// applyTierConfig overlays the YAML pricing file onto the seed settings.
// Only the seed is affected: an existing snapshot keeps its own settings.
func applyTierConfig(seed *domain.AppState, cfg *config.Config, log *slog.Logger) {
	if cfg.TierConfigPath == "" {
		return
	}
	tc, err := config.LoadTierConfig(cfg.TierConfigPath)
	if err != nil {
		log.Warn("tier config ignored", slog.String("error", err.Error()))
		return
	}
	for name, price := range tc.Tiers {
		seed.SystemSettings.TierPrices[domain.MembershipTier(strings.ToUpper(name))] = price
	}
	if tc.Level1Percent > 0 {
		seed.SystemSettings.Level1Percent = int(tc.Level1Percent)
	}
	if tc.Level2Percent > 0 {
		seed.SystemSettings.Level2Percent = int(tc.Level2Percent)
	}
	if tc.MinWithdrawal > 0 {
		seed.SystemSettings.MinWithdrawal = tc.MinWithdrawal
	}
	log.Info("tier config applied", slog.String("path", cfg.TierConfigPath))
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
