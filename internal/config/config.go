package config

import (
	"time"

	"github.com/bookline/service-booking/internal/pkg/config"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	RedisConfig config.RedisConfig

	// AutoMigrate syncs tables from the GORM models instead of running the
	// SQL migrations. The models carry no foreign keys, so it is for scratch
	// databases only.
	AutoMigrate   bool
	MigrationsDir string

	RequestTimeout time.Duration
	LockTTL        time.Duration
	LockWait       time.Duration
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	return &ServiceConfig{
		Port:           config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:         config.GetAppEnv(v),
		DBConfig:       config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:      config.LoadJWTConfig(v),
		KafkaConfig:    config.LoadKafkaConfig(v),
		RedisConfig:    config.LoadRedisConfig(v),
		AutoMigrate:    v.GetBool("DB_AUTO_MIGRATE"),
		MigrationsDir:  v.GetString("MIGRATIONS_DIR"),
		RequestTimeout: config.GetDuration(v, "REQUEST_TIMEOUT", 10*time.Second),
		LockTTL:        config.GetDuration(v, "LOCK_TTL", 5*time.Second),
		LockWait:       config.GetDuration(v, "LOCK_WAIT", 500*time.Millisecond),
	}, nil
}
