package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhunt/identity/pkg/config"
)

// Each test declares its own config type: loaded configurations are cached
// per type for the lifetime of the process.

func TestLoad(t *testing.T) {
	t.Run("parses tagged fields from the environment", func(t *testing.T) {
		type smtpConfig struct {
			Host    string        `env:"TEST_SMTP_HOST,required"`
			Port    int           `env:"TEST_SMTP_PORT" envDefault:"25"`
			Timeout time.Duration `env:"TEST_SMTP_TIMEOUT" envDefault:"5s"`
		}

		t.Setenv("TEST_SMTP_HOST", "mail.example.com")
		t.Setenv("TEST_SMTP_PORT", "587")

		var cfg smtpConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "mail.example.com", cfg.Host)
		assert.Equal(t, 587, cfg.Port)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("returns the cached value on repeat loads", func(t *testing.T) {
		type cachedConfig struct {
			Value string `env:"TEST_CACHED_VALUE"`
		}

		t.Setenv("TEST_CACHED_VALUE", "first")
		var first cachedConfig
		require.NoError(t, config.Load(&first))
		require.Equal(t, "first", first.Value)

		// Environment changes after the first load are not observed.
		t.Setenv("TEST_CACHED_VALUE", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		type strictConfig struct {
			Secret string `env:"TEST_ABSENT_SECRET,required"`
		}

		var cfg strictConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer fails", func(t *testing.T) {
		type nilConfig struct {
			Value string `env:"TEST_NIL_VALUE"`
		}

		var cfg *nilConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics when loading fails", func(t *testing.T) {
		type fatalConfig struct {
			Secret string `env:"TEST_ABSENT_FATAL_SECRET,required"`
		}

		assert.Panics(t, func() {
			var cfg fatalConfig
			config.MustLoad(&cfg)
		})
	})
}
