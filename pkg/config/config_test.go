package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 24*time.Hour, cfg.CertificateValidity())
	assert.Equal(t, 10*time.Minute, cfg.ChallengeLifetime())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"port too low", func(c *AppConfig) { c.Server.Port = 0 }},
		{"port too high", func(c *AppConfig) { c.Server.Port = 70000 }},
		{"zero body limit", func(c *AppConfig) { c.Server.MaxBodyBytes = 0 }},
		{"empty jwt secret", func(c *AppConfig) { c.Security.JWTSecret = "" }},
		{"zero difficulty", func(c *AppConfig) { c.Security.PowDifficulty = 0 }},
		{"zero challenge lifetime", func(c *AppConfig) { c.Security.PowChallengeLifetimeMins = 0 }},
		{"zero certificate validity", func(c *AppConfig) { c.Security.CertificateValidityHours = 0 }},
		{"empty bucket", func(c *AppConfig) { c.Storage.Bucket = "" }},
		{"empty region", func(c *AppConfig) { c.Storage.Region = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProductionRequiresExplicitSecret(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Environment = EnvironmentProduction
	require.Error(t, cfg.Validate())

	cfg.Security.JWTSecret = "an-actual-production-secret"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsProduction())
}
