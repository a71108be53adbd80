package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creastat/booking/cache"
	"github.com/creastat/booking/config"
	"github.com/creastat/booking/logger"
	"github.com/creastat/booking/server"
	"github.com/creastat/booking/session"
	"github.com/creastat/booking/session/drivers"
	"github.com/creastat/booking/supabase"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	backend, err := supabase.New(supabase.Config{
		URL:     cfg.SupabaseURL,
		APIKey:  cfg.SupabaseAPIKey,
		Schema:  cfg.SupabaseSchema,
		Timeout: cfg.BackendTimeout,
		Tables: supabase.Tables{
			Profiles:     cfg.TableProfiles,
			Site:         cfg.TableSite,
			Schedule:     cfg.TableSchedule,
			Reservations: cfg.TableReservations,
		},
		SiteScreen: cfg.SiteScreen,
	})
	if err != nil {
		return err
	}
	defer backend.Close()
	slog.Info("Supabase configured", "url", cfg.SupabaseURL, "schema", cfg.SupabaseSchema)

	c := cache.New(cfg.CacheTTL)
	defer c.Close()
	slog.Info("Cache initialized", "ttl", cfg.CacheTTL)

	h := server.NewHandler(cfg, backend, store, c)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "base_path", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("Server stopped cleanly")
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	opts := []drivers.StoreOption{drivers.WithTTL(cfg.SessionTTL)}

	if cfg.SessionStore == string(drivers.StoreTypeRedis) {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		opts = append(opts, drivers.WithRedisClient(client))
	}

	store, err := drivers.NewStore(drivers.StoreType(cfg.SessionStore), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	slog.Info("Session store initialized", "type", cfg.SessionStore, "ttl", cfg.SessionTTL)
	return store, nil
}
