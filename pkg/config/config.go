package config

import (
	"fmt"
	"time"
)

// Environment variable names for event server configuration
const (
	EnvJWTSecret                   = "JWT_SECRET"
	EnvEnvironment                 = "ENVIRONMENT"
	EnvCertificateValidityHours    = "CERTIFICATE_VALIDITY_HOURS"
	EnvPowDifficulty               = "POW_DIFFICULTY"
	EnvPowChallengeLifetimeMinutes = "POW_CHALLENGE_LIFETIME_MINUTES"
	EnvServerHost                  = "SERVER_HOST"
	EnvServerPort                  = "SERVER_PORT"
	EnvServerMaxBodyBytes          = "SERVER_MAX_BODY_BYTES"
	EnvS3Endpoint                  = "S3_ENDPOINT"
	EnvS3Region                    = "S3_REGION"
	EnvS3Bucket                    = "S3_BUCKET"
	EnvS3AccessKeyID               = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey           = "S3_SECRET_ACCESS_KEY"
	EnvS3UsePathStyle              = "S3_USE_PATH_STYLE"
	EnvVerbose                     = "EVENT_SERVER_VERBOSE"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"

	// DevJWTSecret is the fallback signing secret outside production
	DevJWTSecret = "development-jwt-secret-do-not-use-in-production"

	DefaultCertificateValidityHours    = 24
	DefaultPowDifficulty               = 4
	DefaultPowChallengeLifetimeMinutes = 10
	DefaultServerPort                  = 3000
	DefaultMaxBodyBytes                = 100 * 1024 * 1024
)

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	MaxBodyBytes int64  `json:"max_body_bytes"`
}

// SecurityConfig holds the PoW and certificate issuance settings
type SecurityConfig struct {
	JWTSecret                string `json:"-"`
	CertificateValidityHours int    `json:"certificate_validity_hours"`
	PowDifficulty            int    `json:"pow_difficulty"`
	PowChallengeLifetimeMins int    `json:"pow_challenge_lifetime_minutes"`
}

// StorageConfig holds the S3-compatible object store settings.
// Endpoint is optional; when set (MinIO and friends) path-style addressing
// is usually required as well.
type StorageConfig struct {
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"-"`
	SecretAccessKey string `json:"-"`
	UsePathStyle    bool   `json:"use_path_style"`
}

// AppConfig represents the complete configuration for the event server
type AppConfig struct {
	Environment string         `json:"environment"`
	Server      ServerConfig   `json:"server"`
	Security    SecurityConfig `json:"security"`
	Storage     StorageConfig  `json:"storage"`
	Debug       bool           `json:"debug"`
}

// NewDefaultConfig returns a development configuration with all defaults set
func NewDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: EnvironmentDevelopment,
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Security: SecurityConfig{
			JWTSecret:                DevJWTSecret,
			CertificateValidityHours: DefaultCertificateValidityHours,
			PowDifficulty:            DefaultPowDifficulty,
			PowChallengeLifetimeMins: DefaultPowChallengeLifetimeMinutes,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
			Bucket: "eventserver-storage",
		},
	}
}

// IsProduction reports whether the server runs with production hardening
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// CertificateValidity returns the configured certificate lifetime
func (c *AppConfig) CertificateValidity() time.Duration {
	return time.Duration(c.Security.CertificateValidityHours) * time.Hour
}

// ChallengeLifetime returns the configured PoW challenge lifetime
func (c *AppConfig) ChallengeLifetime() time.Duration {
	return time.Duration(c.Security.PowChallengeLifetimeMins) * time.Minute
}

// Validate validates the event server configuration
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1-65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	if c.IsProduction() && c.Security.JWTSecret == DevJWTSecret {
		return fmt.Errorf("%s must be set explicitly when %s=%s", EnvJWTSecret, EnvEnvironment, EnvironmentProduction)
	}
	if c.Security.PowDifficulty < 1 {
		return fmt.Errorf("PoW difficulty must be at least 1, got %d", c.Security.PowDifficulty)
	}
	if c.Security.PowChallengeLifetimeMins < 1 {
		return fmt.Errorf("PoW challenge lifetime must be at least 1 minute, got %d", c.Security.PowChallengeLifetimeMins)
	}
	if c.Security.CertificateValidityHours < 1 {
		return fmt.Errorf("certificate validity must be at least 1 hour, got %d", c.Security.CertificateValidityHours)
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket cannot be empty")
	}
	if c.Storage.Region == "" {
		return fmt.Errorf("storage region cannot be empty")
	}

	return nil
}
