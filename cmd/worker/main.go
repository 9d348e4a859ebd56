package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"eduscan/internal/app"
	"eduscan/internal/config"
	"eduscan/internal/delivery"
)

// Worker consumes delivery jobs from the shared queue and sends them.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis, got %q; the api delivers in-process otherwise", cfg.QueueBackend)
	}

	q, closeQueue := app.NewQueue(cfg)
	defer closeQueue()

	sender, err := app.NewSender(ctx, cfg)
	if err != nil {
		log.Fatalf("delivery sender init failed: %v", err)
	}

	log.Printf("worker started (%s sender), waiting for jobs...", cfg.DeliveryBackend)
	if err := delivery.Run(ctx, q, sender); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}
	log.Println("worker stopped")
}
