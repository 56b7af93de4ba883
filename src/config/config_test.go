package config

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		cfg := Load(v)

		assert.Equal(t, Dev, cfg.Env)
		assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
		assert.Equal(t, tracelog.LogLevelWarn, cfg.Postgres.LogLevel)
		assert.Equal(t, "user=collab password=password host=localhost port=5432 dbname=collab", cfg.Postgres.DSN())
		assert.Equal(t, 5, cfg.Notifications.MaxAttempts)
		assert.Equal(t, 15*time.Minute, cfg.Notifications.ClaimLease)
		assert.False(t, cfg.Email.Configured())
	})
	t.Run("overrides", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set("loglevel", "debug")
		v.Set("baseurl", "https://collab.example/")
		v.Set("notifications.retrymin", "250ms")
		v.Set("email.serveraddress", "smtp.example")
		v.Set("email.fromaddress", "noreply@collab.example")
		cfg := Load(v)

		assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
		assert.Equal(t, "https://collab.example", cfg.BaseUrl)
		assert.Equal(t, 250*time.Millisecond, cfg.Notifications.RetryMin)
		assert.True(t, cfg.Email.Configured())
	})
	t.Run("bad log level falls back", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set("loglevel", "chatty")
		assert.Equal(t, zerolog.InfoLevel, Load(v).LogLevel)
	})
}
