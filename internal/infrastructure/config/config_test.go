package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "marketplace", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "mysql", cfg.Database.Driver)
		assert.Equal(t, 3306, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 15*time.Minute, cfg.Reservation.TTL)
		assert.Equal(t, 30*time.Minute, cfg.Reservation.PaymentTTL)
		assert.Equal(t, time.Minute, cfg.Reservation.CleanupInterval)
		assert.True(t, decimal.RequireFromString("0.1").Equal(cfg.Order.CommissionRate))
		assert.Equal(t, time.Hour, cfg.ExchangeRate.CacheTTL)
	})

	t.Run("loads values from environment variables with MARKET prefix", func(t *testing.T) {
		t.Setenv("MARKET_APP_NAME", "test-app")
		t.Setenv("MARKET_APP_PORT", "9000")
		t.Setenv("MARKET_DATABASE_DRIVER", "postgres")
		t.Setenv("MARKET_DATABASE_HOST", "testdb.local")
		t.Setenv("MARKET_DATABASE_USER", "testuser")
		t.Setenv("MARKET_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("MARKET_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("MARKET_RESERVATION_TTL", "10m")
		t.Setenv("MARKET_ORDER_COMMISSION_RATE", "0.15")
		t.Setenv("MARKET_STRIPE_SECRET_KEY", "sk_test_123")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 10*time.Minute, cfg.Reservation.TTL)
		assert.True(t, decimal.RequireFromString("0.15").Equal(cfg.Order.CommissionRate))
		assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("MARKET_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("MARKET_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		t.Setenv("MARKET_DATABASE_DRIVER", "oracle")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects invalid commission rate", func(t *testing.T) {
		t.Setenv("MARKET_ORDER_COMMISSION_RATE", "abc")
		_, err := Load()
		require.Error(t, err)

		t.Setenv("MARKET_ORDER_COMMISSION_RATE", "1.5")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commission_rate")
	})

	t.Run("payment hold cannot be shorter than reservation hold", func(t *testing.T) {
		t.Setenv("MARKET_RESERVATION_TTL", "20m")
		t.Setenv("MARKET_RESERVATION_PAYMENT_TTL", "10m")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment_ttl")
	})
}

func TestValidate_Production(t *testing.T) {
	newProdConfig := func() *Config {
		cfg := &Config{App: AppConfig{Env: "production"}}
		applyDefaults(cfg)
		cfg.Database.Password = "secret"
		cfg.SSO.TokenSecret = "0123456789abcdef0123456789abcdef"
		cfg.Stripe.SecretKey = "sk_live_x"
		cfg.Stripe.WebhookSecret = "whsec_x"
		cfg.Coin.BaseURL = "http://coin"
		cfg.Coin.APIKey = "key"
		return cfg
	}

	t.Run("accepts complete config", func(t *testing.T) {
		assert.NoError(t, newProdConfig().validate())
	})

	t.Run("requires database password", func(t *testing.T) {
		cfg := newProdConfig()
		cfg.Database.Password = ""
		assert.ErrorContains(t, cfg.validate(), "database.password")
	})

	t.Run("requires long sso secret", func(t *testing.T) {
		cfg := newProdConfig()
		cfg.SSO.TokenSecret = "short"
		assert.ErrorContains(t, cfg.validate(), "sso.token_secret")
	})

	t.Run("requires stripe credentials", func(t *testing.T) {
		cfg := newProdConfig()
		cfg.Stripe.WebhookSecret = ""
		assert.ErrorContains(t, cfg.validate(), "stripe")
	})

	t.Run("rejects wildcard cors", func(t *testing.T) {
		cfg := newProdConfig()
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.ErrorContains(t, cfg.validate(), "cors_allow_origins")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("mysql", func(t *testing.T) {
		d := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "app", Password: "p@ss", DBName: "market"}
		dsn := d.DSN()
		assert.Contains(t, dsn, "app:p@ss@tcp(db:3306)/market?")
		assert.Contains(t, dsn, "parseTime=True")
		assert.Contains(t, dsn, "charset=utf8mb4")
		assert.Contains(t, dsn, "clientFoundRows=true")
	})

	t.Run("postgres escapes password", func(t *testing.T) {
		d := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "market", SSLMode: "disable"}
		dsn := d.DSN()
		assert.Contains(t, dsn, "postgres://app:p%40ss%2Fword@db:5432/market")
		assert.Contains(t, dsn, "sslmode=disable")
	})
}
