package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"booking-service/internal/config"
	"booking-service/internal/directory"
	availGet "booking-service/internal/http-server/handlers/availability/get"
	availSet "booking-service/internal/http-server/handlers/availability/set"
	bookingCancel "booking-service/internal/http-server/handlers/bookings/cancel"
	bookingComplete "booking-service/internal/http-server/handlers/bookings/complete"
	bookingCreate "booking-service/internal/http-server/handlers/bookings/create"
	bookingGet "booking-service/internal/http-server/handlers/bookings/get"
	"booking-service/internal/http-server/handlers/health"
	slotGet "booking-service/internal/http-server/handlers/slots/get"
	"booking-service/internal/lock"
	svc "booking-service/internal/service"
	"booking-service/internal/storage/memory"
	"booking-service/internal/storage/postgres"
	slogpretty "booking-service/pkg/handlers/slogPretty"
	"booking-service/pkg/middleware/mwLogger"
	"booking-service/pkg/middleware/ratelimit"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type storage interface {
	svc.Store
	Close() error
}

type locker interface {
	lock.Locker
	Close() error
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	store, profiles, err := setupStorage(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	slotLocker, err := setupLocker(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init lock", sl.Err(err))
		os.Exit(1)
	}

	dir, err := directory.NewCached(log, profiles, cfg.Directory.CacheSize)
	if err != nil {
		log.Error("Failed to init directory", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(store, slotLocker, dir, cfg.LockTTL)

	router := newRouter(log, service, cfg.RateLimit)

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := store.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := slotLocker.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
	}

	log.Info("Shutdown finished, server stopped")

}

func newRouter(log *slog.Logger, service *svc.Service, limits config.RateLimit) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(ratelimit.New(log, limits.RPS, limits.Burst))
	router.Use(CORS)

	router.Get("/health", health.New())

	// Availability
	router.Put("/specialists/{email}/availability", availSet.New(log, service))
	router.Get("/specialists/{email}/availability", availGet.New(log, service))

	// Slots
	router.Get("/specialists/{email}/slots", slotGet.New(log, service))

	// Appointments
	router.Post("/appointments", bookingCreate.New(log, service))
	router.Post("/appointments/cancel", bookingCancel.New(log, service))
	router.Post("/appointments/complete", bookingComplete.New(log, service))
	router.Get("/appointments", bookingGet.New(log, service))

	return router
}

// setupStorage picks postgres when a DSN is configured. Profiles come from the
// same database; the in-memory setup starts with an empty directory.
func setupStorage(dsn string) (storage, directory.Source, error) {
	if dsn == "" {
		return memory.New(), directory.NewStatic(), nil
	}

	pg, err := postgres.New(dsn)
	if err != nil {
		return nil, nil, err
	}

	return pg, pg, nil
}

func setupLocker(redisAddr string) (locker, error) {
	if redisAddr == "" {
		return lock.NewMemoryLock(), nil
	}

	rl, err := lock.NewRedisLock(redisAddr)
	if err != nil {
		return nil, err
	}

	return rl, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
