package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"eduscan/internal/app"
	"eduscan/internal/auth"
	"eduscan/internal/cloudinary"
	"eduscan/internal/config"
	"eduscan/internal/delivery"
	"eduscan/internal/handler"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Printf("store backend %s, queue backend %s", cfg.StoreBackend, cfg.QueueBackend)

	if a.InProcessDelivery() {
		sender, err := app.NewSender(ctx, cfg)
		if err != nil {
			return err
		}
		go func() {
			if err := delivery.Run(ctx, a.Queue, sender); err != nil {
				log.Printf("delivery worker stopped: %v", err)
			}
		}()
		log.Println("delivering notifications in-process")
	}

	opts := handler.Options{
		Issuer:          auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL),
		RequireToken:    cfg.RequireDeviceToken,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Checks:          a.Checks(),
	}
	if cfg.CloudinaryEnabled() {
		opts.Uploader = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	// Graceful shutdown
	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     handler.New(a.Controller, opts).Router(),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: /v1/events streams
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
