package config

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config is loaded once at startup. Every key can be overridden by an
// environment variable: postgres.hostname becomes COLLAB_POSTGRES_HOSTNAME.
var Config CollabConfig

func init() {
	_ = godotenv.Load() // a missing .env is fine

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("collab")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	Config = Load(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", string(Dev))
	v.SetDefault("addr", ":9001")
	v.SetDefault("baseurl", "http://localhost:9001")
	v.SetDefault("loglevel", "info")

	v.SetDefault("postgres.user", "collab")
	v.SetDefault("postgres.password", "password")
	v.SetDefault("postgres.hostname", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.dbname", "collab")
	v.SetDefault("postgres.loglevel", "warn")
	v.SetDefault("postgres.minconn", 2)
	v.SetDefault("postgres.maxconn", 20)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.queuekey", "collab:transitions")

	v.SetDefault("email.serveraddress", "")
	v.SetDefault("email.serverport", 587)
	v.SetDefault("email.fromaddress", "")
	v.SetDefault("email.fromname", "Collab")
	v.SetDefault("email.mailerusername", "")
	v.SetDefault("email.mailerpassword", "")
	v.SetDefault("email.forcetoaddress", "")

	v.SetDefault("auth.tokensecret", "collab-dev-secret")
	v.SetDefault("auth.tokenissuer", "collab")
	v.SetDefault("auth.tokenttl", 24*time.Hour)

	v.SetDefault("notifications.workers", 2)
	v.SetDefault("notifications.maxattempts", 5)
	v.SetDefault("notifications.retrymin", time.Second)
	v.SetDefault("notifications.retrymax", time.Minute)
	v.SetDefault("notifications.sweepinterval", 5*time.Minute)
	v.SetDefault("notifications.claimlease", 15*time.Minute)
}

// Load builds a config from an already-populated viper instance.
func Load(v *viper.Viper) CollabConfig {
	logLevel, err := zerolog.ParseLevel(v.GetString("loglevel"))
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	pgLogLevel, err := tracelog.LogLevelFromString(v.GetString("postgres.loglevel"))
	if err != nil {
		pgLogLevel = tracelog.LogLevelWarn
	}

	return CollabConfig{
		Env:      Environment(v.GetString("env")),
		Addr:     v.GetString("addr"),
		BaseUrl:  strings.TrimSuffix(v.GetString("baseurl"), "/"),
		LogLevel: logLevel,
		Postgres: PostgresConfig{
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Hostname: v.GetString("postgres.hostname"),
			Port:     v.GetInt("postgres.port"),
			DbName:   v.GetString("postgres.dbname"),
			LogLevel: pgLogLevel,
			MinConn:  v.GetInt32("postgres.minconn"),
			MaxConn:  v.GetInt32("postgres.maxconn"),
		},
		Redis: RedisConfig{
			Url:      v.GetString("redis.url"),
			QueueKey: v.GetString("redis.queuekey"),
		},
		Email: EmailConfig{
			ServerAddress:  v.GetString("email.serveraddress"),
			ServerPort:     v.GetInt("email.serverport"),
			FromAddress:    v.GetString("email.fromaddress"),
			FromName:       v.GetString("email.fromname"),
			MailerUsername: v.GetString("email.mailerusername"),
			MailerPassword: v.GetString("email.mailerpassword"),
			ForceToAddress: v.GetString("email.forcetoaddress"),
		},
		Auth: AuthConfig{
			TokenSecret: v.GetString("auth.tokensecret"),
			TokenIssuer: v.GetString("auth.tokenissuer"),
			TokenTTL:    v.GetDuration("auth.tokenttl"),
		},
		Notifications: NotificationsConfig{
			Workers:       v.GetInt("notifications.workers"),
			MaxAttempts:   v.GetInt("notifications.maxattempts"),
			RetryMin:      v.GetDuration("notifications.retrymin"),
			RetryMax:      v.GetDuration("notifications.retrymax"),
			SweepInterval: v.GetDuration("notifications.sweepinterval"),
			ClaimLease:    v.GetDuration("notifications.claimlease"),
		},
	}
}
