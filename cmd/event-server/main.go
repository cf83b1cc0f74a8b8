package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relayworks/eventserver-go/pkg/certificate"
	"github.com/relayworks/eventserver-go/pkg/config"
	"github.com/relayworks/eventserver-go/pkg/events"
	"github.com/relayworks/eventserver-go/pkg/logger"
	"github.com/relayworks/eventserver-go/pkg/pow"
	"github.com/relayworks/eventserver-go/pkg/server"
	"github.com/relayworks/eventserver-go/pkg/storage"
	"github.com/relayworks/eventserver-go/pkg/storage/memory"
	"github.com/relayworks/eventserver-go/pkg/storage/s3"
)

func main() {
	app := &cli.App{
		Name:  "event-server",
		Usage: "Stateless ingestion server for signed event packages",
		Description: `Receives event packages from field relays and stores them in
S3-compatible object storage.

Clients authenticate in two layers:
- Proof-of-work device enrollment issuing a certificate bearer token
- Per-event ES256 signatures verified against the enrolled device key`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "HTTP listen host",
				Value:   "0.0.0.0",
				EnvVars: []string{config.EnvServerHost},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP listen port",
				Value:   config.DefaultServerPort,
				EnvVars: []string{config.EnvServerPort},
			},
			&cli.Int64Flag{
				Name:    "max-body-bytes",
				Usage:   "Maximum accepted request body size in bytes",
				Value:   config.DefaultMaxBodyBytes,
				EnvVars: []string{config.EnvServerMaxBodyBytes},
			},
			&cli.StringFlag{
				Name:    "environment",
				Usage:   "Deployment environment (development or production)",
				Value:   config.EnvironmentDevelopment,
				EnvVars: []string{config.EnvEnvironment},
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "HMAC secret for certificate tokens (required in production)",
				EnvVars: []string{config.EnvJWTSecret},
			},
			&cli.IntFlag{
				Name:    "certificate-validity-hours",
				Usage:   "Certificate lifetime in hours",
				Value:   config.DefaultCertificateValidityHours,
				EnvVars: []string{config.EnvCertificateValidityHours},
			},
			&cli.IntFlag{
				Name:    "pow-difficulty",
				Usage:   "Required leading zero hex nibbles in PoW solutions",
				Value:   config.DefaultPowDifficulty,
				EnvVars: []string{config.EnvPowDifficulty},
			},
			&cli.IntFlag{
				Name:    "pow-challenge-lifetime-minutes",
				Usage:   "PoW challenge lifetime in minutes",
				Value:   config.DefaultPowChallengeLifetimeMinutes,
				EnvVars: []string{config.EnvPowChallengeLifetimeMinutes},
			},
			&cli.StringFlag{
				Name:    "s3-endpoint",
				Usage:   "Custom S3 endpoint (MinIO and friends); empty uses AWS",
				EnvVars: []string{config.EnvS3Endpoint},
			},
			&cli.StringFlag{
				Name:    "s3-region",
				Usage:   "S3 region",
				Value:   "us-east-1",
				EnvVars: []string{config.EnvS3Region},
			},
			&cli.StringFlag{
				Name:    "s3-bucket",
				Usage:   "S3 bucket for event objects",
				Value:   "eventserver-storage",
				EnvVars: []string{config.EnvS3Bucket},
			},
			&cli.StringFlag{
				Name:    "s3-access-key-id",
				Usage:   "Static S3 access key id (falls back to the AWS credential chain)",
				EnvVars: []string{config.EnvS3AccessKeyID},
			},
			&cli.StringFlag{
				Name:    "s3-secret-access-key",
				Usage:   "Static S3 secret access key",
				EnvVars: []string{config.EnvS3SecretAccessKey},
			},
			&cli.BoolFlag{
				Name:    "s3-use-path-style",
				Usage:   "Use path-style S3 addressing",
				EnvVars: []string{config.EnvS3UsePathStyle},
			},
			&cli.BoolFlag{
				Name:    "memory-storage",
				Usage:   "Use in-memory storage instead of S3 (development only)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Action: runEventServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runEventServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{
		Debug: c.Bool("verbose"),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := parseConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()

	var store storage.ObjectStore
	if c.Bool("memory-storage") {
		l.Sugar().Warnw("Using in-memory storage, objects are lost on restart")
		store = memory.NewMemoryStore()
	} else {
		store, err = s3.NewStore(ctx, cfg.Storage, l)
		if err != nil {
			return fmt.Errorf("failed to create S3 store: %w", err)
		}
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(ctx); err != nil {
		l.Sugar().Warnw("Storage health check failed at startup", "error", err)
	}

	powService := pow.NewService(cfg.Security.PowDifficulty, cfg.ChallengeLifetime(), l)
	certService := certificate.NewService(cfg.Security.JWTSecret, cfg.CertificateValidity(), l)
	eventService := events.NewService(store, l)

	srv := server.NewServer(cfg, powService, certService, eventService, store, l)

	if c.Bool("verbose") {
		l.Sugar().Infow("Event Server Configuration",
			"environment", cfg.Environment,
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"pow_difficulty", cfg.Security.PowDifficulty,
			"certificate_validity_hours", cfg.Security.CertificateValidityHours,
			"bucket", cfg.Storage.Bucket)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Event Server running", "host", cfg.Server.Host, "port", cfg.Server.Port)
	l.Sugar().Infow("Available endpoints",
		"health", "GET /health",
		"pow", "POST /api/v1/pow/*",
		"events", "POST /api/v1/events",
		"relays", "GET /api/v1/relays")
	l.Sugar().Info("Press Ctrl+C to stop")

	// Keep the server running
	select {}
}

func parseConfig(c *cli.Context) *config.AppConfig {
	cfg := config.NewDefaultConfig()
	cfg.Environment = c.String("environment")
	cfg.Debug = c.Bool("verbose")

	cfg.Server.Host = c.String("host")
	cfg.Server.Port = c.Int("port")
	cfg.Server.MaxBodyBytes = c.Int64("max-body-bytes")

	if secret := c.String("jwt-secret"); secret != "" {
		cfg.Security.JWTSecret = secret
	}
	cfg.Security.CertificateValidityHours = c.Int("certificate-validity-hours")
	cfg.Security.PowDifficulty = c.Int("pow-difficulty")
	cfg.Security.PowChallengeLifetimeMins = c.Int("pow-challenge-lifetime-minutes")

	cfg.Storage.Endpoint = c.String("s3-endpoint")
	cfg.Storage.Region = c.String("s3-region")
	cfg.Storage.Bucket = c.String("s3-bucket")
	cfg.Storage.AccessKeyID = c.String("s3-access-key-id")
	cfg.Storage.SecretAccessKey = c.String("s3-secret-access-key")
	cfg.Storage.UsePathStyle = c.Bool("s3-use-path-style")

	return cfg
}
