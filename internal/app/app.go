// Package app wires configuration into the stores, queue and controller
// shared by the api, worker and admin binaries.
package app

import (
	"context"
	"fmt"
	"log"

	"eduscan/internal/attendance"
	"eduscan/internal/config"
	"eduscan/internal/delivery"
	"eduscan/internal/directory"
	"eduscan/internal/entrance"
	"eduscan/internal/notify"
	"eduscan/internal/queue"
	"eduscan/internal/store"
	"eduscan/internal/textgen"
)

// DeliveryQueueKey is the Redis list holding delivery jobs.
const DeliveryQueueKey = "eduscan:deliveries"

// App holds the long-lived components built from config.
type App struct {
	Config     config.App
	KV         store.KV
	Queue      queue.Queue
	Dispatcher *notify.Dispatcher
	Controller *entrance.Controller

	redis *store.Redis
}

// Build opens storage, the delivery queue and the controller.
func Build(ctx context.Context, cfg config.App) (*App, error) {
	kv, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		RedisAddr:   cfg.RedisAddr,
		Namespace:   cfg.StoreNamespace,
	})
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, KV: kv}
	a.Queue = a.newQueue()

	var gen notify.Generator
	if cfg.TextGenAPIKey != "" {
		client, err := textgen.New(ctx, cfg.TextGenURL, cfg.TextGenAPIKey, cfg.TextGenModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		gen = client
	} else {
		log.Println("text generation not configured (TEXTGEN_API_KEY not set), using fallback messages")
	}
	opts := []notify.Option{notify.WithTimeout(cfg.TextGenTimeout), notify.WithQueue(a.Queue)}
	if cfg.TemplateEnforce {
		opts = append(opts, notify.WithPolicy(notify.DefaultPolicy()))
	}
	a.Dispatcher = notify.NewDispatcher(gen, opts...)

	var seed []directory.Student
	if cfg.SeedFile != "" {
		if seed, err = directory.LoadYAML(cfg.SeedFile); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed file: %w", err)
		}
	}

	a.Controller, err = entrance.New(ctx, attendance.NewRepository(kv), a.Dispatcher, entrance.Config{
		Cooldown:        cfg.ScanCooldown,
		ReopenDelay:     cfg.ScanReopenDelay,
		Location:        cfg.Location(),
		DeliverOnScan:   true,
		DayCloseDeliver: cfg.DayCloseDeliver,
		Seed:            seed,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// NewQueue builds the delivery queue without the rest of the app.
func NewQueue(cfg config.App) (queue.Queue, func()) {
	a := &App{Config: cfg}
	q := a.newQueue()
	return q, a.Close
}

func (a *App) newQueue() queue.Queue {
	if a.Config.QueueBackend == "redis" {
		a.redis = store.NewRedis(a.Config.RedisAddr)
		return queue.NewRedisQueue(a.redis.Client, DeliveryQueueKey)
	}
	return queue.NewInMemory(256)
}

// InProcessDelivery reports whether jobs must be consumed by this process.
func (a *App) InProcessDelivery() bool {
	_, ok := a.Queue.(*queue.InMemory)
	return ok
}

// NewSender returns the configured outbound channel.
func NewSender(ctx context.Context, cfg config.App) (delivery.Sender, error) {
	switch cfg.DeliveryBackend {
	case "", "log":
		return delivery.LogSender{}, nil
	case "sns":
		return delivery.NewSNSSender(ctx, cfg.SNSRegion)
	default:
		return nil, fmt.Errorf("unknown delivery backend %q", cfg.DeliveryBackend)
	}
}

// Checks returns the health probes exposed on /healthz.
func (a *App) Checks() map[string]func(context.Context) bool {
	checks := map[string]func(context.Context) bool{"store": a.KV.Healthy}
	if a.redis != nil {
		checks["queue"] = a.redis.Healthy
	}
	return checks
}

// Close releases storage and queue connections.
func (a *App) Close() {
	if a.KV != nil {
		_ = a.KV.Close()
	}
	if a.redis != nil {
		_ = a.redis.Client.Close()
	}
}
