package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/gymsession/internal/api"
	"example.com/gymsession/internal/config"
	"example.com/gymsession/internal/feedback"
	"example.com/gymsession/internal/session"
	"example.com/gymsession/internal/store"
	httptransport "example.com/gymsession/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionStore, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer closeStore()

	client := api.NewClient(cfg.APIBaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		api.WithRateLimit(cfg.APIRateLimit, cfg.APIRateBurst),
	)

	manager := session.NewManager(sessionStore, client,
		session.WithBackgroundGrace(cfg.BackgroundGrace),
		session.WithInactivityLimit(cfg.InactivityLimit),
	)
	defer manager.Close()

	if err := manager.Bootstrap(ctx); err != nil {
		log.Printf("bootstrap failed: %v", err)
	}

	tracker := session.NewTracker(sessionStore,
		session.WithTickInterval(cfg.TrackerInterval),
	)
	go tracker.Start(ctx)

	var poller *feedback.Poller
	if user := manager.User(); user != nil {
		poller = feedback.NewPoller(client, user.ID, cfg.Exercise, nil,
			feedback.WithInterval(cfg.PollInterval),
		)
		go poller.Start(ctx)
	}

	mux := http.NewServeMux()
	httptransport.RegisterRoutes(mux, func() httptransport.Status {
		status := httptransport.Status{
			Route:      string(manager.Route()),
			WorkingOut: tracker.Active(),
			Elapsed:    tracker.Elapsed(),
		}
		if user := manager.User(); user != nil {
			status.UserID = user.ID
		}
		return status
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, mux)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gymsession agent listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	tracker.Wait()
	if poller != nil {
		poller.Wait()
	}
}

func buildStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		redisStore, err := store.NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return redisStore, func() { _ = redisStore.Close() }, nil
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		fileStore, err := store.NewFile(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, func() {}, nil
	}
}
