package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Beta Environment = "beta"
	Dev  Environment = "dev"
)

type CollabConfig struct {
	Env      Environment
	Addr     string
	BaseUrl  string
	LogLevel zerolog.Level

	Postgres      PostgresConfig
	Redis         RedisConfig
	Email         EmailConfig
	Auth          AuthConfig
	Notifications NotificationsConfig
}

type PostgresConfig struct {
	User     string
	Password string
	Hostname string
	Port     int
	DbName   string
	LogLevel tracelog.LogLevel
	MinConn  int32
	MaxConn  int32
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}

// When Url is empty, transition events are queued in memory.
type RedisConfig struct {
	Url      string
	QueueKey string
}

type EmailConfig struct {
	ServerAddress  string
	ServerPort     int
	FromAddress    string
	FromName       string
	MailerUsername string
	MailerPassword string
	ForceToAddress string
}

func (c EmailConfig) Configured() bool {
	return c.ServerAddress != "" && c.FromAddress != ""
}

type AuthConfig struct {
	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration
}

type NotificationsConfig struct {
	Workers       int
	MaxAttempts   int
	RetryMin      time.Duration
	RetryMax      time.Duration
	SweepInterval time.Duration

	// How long a worker holds the notifications it is delivering before
	// another worker may take them over.
	ClaimLease time.Duration
}
