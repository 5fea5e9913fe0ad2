package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/adapters"
	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/cache"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

const (
	memoryCacheEntries     = 4096
	sessionCleanupInterval = time.Hour
)

func main() {
	bootLogger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.cleanupSessions(ctx, sessionCleanupInterval)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("room booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

type app struct {
	handler http.Handler
	repos   adapters.Repositories
	logger  *slog.Logger
	closers []func() error
}

// newApp opens storage, applies migrations and wires every service behind the router.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	storage, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a := &app{logger: logger, closers: []func() error{storage.Close}}

	if err := storage.Migrate(ctx, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	availabilityCache, err := newAvailabilityCache(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closer, ok := availabilityCache.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := func() time.Time { return time.Now().UTC() }

	repos := adapters.FromStorage(storage)
	a.repos = repos

	userService := application.NewUserServiceWithLogger(repos.Users, application.HashPassword, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(repos.Users, repos.Sessions, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)
	roomService := application.NewRoomServiceWithLogger(repos.Rooms, availabilityCache, idGenerator, now, logger)
	fixedScheduleService := application.NewFixedScheduleServiceWithLogger(repos.Schedules, repos.Rooms, availabilityCache, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithLogger(repos.Rooms, repos.Schedules, repos.Bookings, availabilityCache, cfg.Policy(), idGenerator, now, logger)

	if cfg.AdminEmail != "" {
		admin, created, err := userService.EnsureBootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("bootstrap administrator created", "user_id", admin.ID)
		}
	}

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Rooms:          httptransport.NewRoomHandler(roomService, logger),
		FixedSchedules: httptransport.NewFixedScheduleHandler(fixedScheduleService, logger),
		Bookings:       httptransport.NewBookingHandler(bookingService, logger),
		Session:        httptransport.RequireSession(authService, logger),
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) cleanupSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.repos.Sessions.DeleteExpiredSessions(ctx, time.Now().UTC()); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn("failed to delete expired sessions", "error", err)
			}
		}
	}
}

func newAvailabilityCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (application.AvailabilityCache, error) {
	if cfg.RedisAddr == "" {
		return application.NewMemoryAvailabilityCache(cfg.CacheTTL, memoryCacheEntries, nil), nil
	}
	redisCache, err := cache.NewRedisAvailabilityCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, TTL: cfg.CacheTTL}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("using redis availability cache", "addr", cfg.RedisAddr)
	return redisCache, nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
