// server runs the PurityScan HTTP API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	analysisrepo "purityscan/backend/internal/analysis/repository"
	analysisservice "purityscan/backend/internal/analysis/service"
	analyticsrepo "purityscan/backend/internal/analytics/repository"
	analyticsservice "purityscan/backend/internal/analytics/service"
	"purityscan/backend/internal/audit"
	auditrepo "purityscan/backend/internal/audit/repository"
	"purityscan/backend/internal/config"
	"purityscan/backend/internal/db"
	devicerepo "purityscan/backend/internal/device/repository"
	identityservice "purityscan/backend/internal/identity/service"
	"purityscan/backend/internal/inference"
	"purityscan/backend/internal/security"
	"purityscan/backend/internal/server"
	"purityscan/backend/internal/server/middleware"
	"purityscan/backend/internal/spectrum"
	"purityscan/backend/internal/telemetry"
	telemetryotel "purityscan/backend/internal/telemetry/otel"
	"purityscan/backend/internal/telemetry/producer"
	userrepo "purityscan/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTPublicKey == "" {
		log.Fatal("JWT_PUBLIC_KEY is required")
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "purityscan-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(nil, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(pool)
	devices := devicerepo.NewPostgresRepository(pool)
	sessions := analysisrepo.NewPostgresRepository(pool)
	analytics := analyticsrepo.NewPostgresRepository(pool)

	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(pool), middleware.ClientIPFromContext)
	gate := identityservice.NewGate(tokens, users, devices, hasher)

	emitters := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}

	var analyzer inference.Analyzer
	if cfg.InferenceURL != "" {
		analyzer = inference.NewClient(cfg.InferenceURL, cfg.InferenceDeadline())
		log.Printf("inference: using %s (deadline %s)", cfg.InferenceURL, cfg.InferenceDeadline())
	} else {
		analyzer = inference.NewMock()
		log.Print("inference: INFERENCE_URL not set, using deterministic mock")
	}

	decoder := spectrum.NewDecoder(spectrum.Limits{
		MinPoints: cfg.MinSpectrumPoints,
		MaxPoints: cfg.MaxSpectrumPoints,
		MaxBytes:  cfg.MaxUploadBytes,
	})

	handler := server.NewRouter(server.Deps{
		Gate:           gate,
		Auditor:        auditor,
		Telemetry:      emitters,
		Registry:       analysisservice.NewRegistry(sessions, devices, auditor, emitters),
		Coordinator:    analysisservice.NewCoordinator(sessions, devices, analyzer, decoder, auditor, emitters),
		Analytics:      analyticsservice.NewService(analytics),
		Decoder:        decoder,
		HealthPinger:   pool,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// In-flight telemetry goroutines get a drain window before the exporters close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	log.Println("HTTP server stopped")
}
