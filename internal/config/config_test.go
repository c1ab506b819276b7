package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "shop")
	t.Setenv("DB_NAME", "gidimart")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("APP_PORT", "")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "")
	t.Setenv("MIGRATIONS_PATH", "")

	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.AppPort, "default port")
	assert.Equal(t, "./migrations", cfg.MigrationsPath, "default migrations path")
	assert.Equal(t, "sk_test_abc", cfg.PaystackWebhookSecret,
		"webhook secret falls back to the secret key")
}

func TestLoadConfig_ExplicitWebhookSecret(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "whsec_123")

	cfg := LoadConfig()
	assert.Equal(t, "whsec_123", cfg.PaystackWebhookSecret)
}
