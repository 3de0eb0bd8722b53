package internal

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestConfigFrom_Defaults(t *testing.T) {
	cfg, err := configFrom(testViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 72*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "orders.paid", cfg.NATS.Subject)
	assert.Equal(t, int64(10000), cfg.Shipping.FreeShippingThreshold)
	assert.Equal(t, int64(500), cfg.Shipping.StandardShippingCost)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.False(t, cfg.Stripe.Configured())
	assert.Empty(t, cfg.AdminEmails)
	assert.True(t, cfg.MetricsEnabled)
}

func TestConfigFrom_Lists(t *testing.T) {
	cfg, err := configFrom(testViper(map[string]any{
		"ADMIN_EMAILS":    " ops@loomworks.test, ,owner@loomworks.test ",
		"ALLOWED_ORIGINS": "https://shop.loomworks.test",
		"BASE_URL":        "https://shop.loomworks.test/",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"ops@loomworks.test", "owner@loomworks.test"}, cfg.AdminEmails)
	assert.Equal(t, []string{"https://shop.loomworks.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://shop.loomworks.test", cfg.BaseURL)
}

func TestConfigFrom_Fallbacks(t *testing.T) {
	cfg, err := configFrom(testViper(map[string]any{
		"ENV":             "staging",
		"LOG_LEVEL":       "LOUD",
		"IDEMPOTENCY_TTL": "0s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 72*time.Hour, cfg.Idempotency.TTL)
}

func TestConfigFrom_Errors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown backend", map[string]any{"STORE_BACKEND": "sqlite"}},
		{"stripe key without webhook secret", map[string]any{"STRIPE_SECRET_KEY": "sk_test_123"}},
		{"negative shipping", map[string]any{"STANDARD_SHIPPING_COST": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := configFrom(testViper(tt.overrides))
			assert.Error(t, err)
		})
	}
}

func TestConfigFrom_StripeConfigured(t *testing.T) {
	cfg, err := configFrom(testViper(map[string]any{
		"STRIPE_SECRET_KEY":     "sk_test_123",
		"STRIPE_WEBHOOK_SECRET": "whsec_123",
		"STRIPE_CURRENCY":       "EUR",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Stripe.Configured())
	assert.Equal(t, "eur", cfg.Stripe.Currency)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "warn")

	logger.Info("hidden")
	logger.Warn("shown", "order_id", "o1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "o1", line["order_id"])
	assert.Equal(t, "loomworks", line["app"])
	_, err := time.Parse(time.RFC3339Nano, line["time"].(string))
	assert.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	_, ok := ParseLevel("debug")
	assert.True(t, ok)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}
