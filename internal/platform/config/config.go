package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Calendar CalendarConfig
	Virtual  VirtualConfig
	Pending  PendingConfig
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr       string
	AdminToken string
}

// DatabaseConfig selects Postgres. An empty URL runs on in-memory stores.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig enables the calendar cache and the batch-job lock.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables registration notifications.
type KafkaConfig struct {
	Brokers     []string
	NotifyTopic string
}

// StorageConfig enables the GCS file store.
type StorageConfig struct {
	Bucket          string
	CredentialsJSON string
}

// CalendarConfig controls how timestamps are localized and seeded.
type CalendarConfig struct {
	Timezone string
	SeedFile string
	CacheTTL time.Duration
}

// VirtualConfig names the fixed system areas used by anonymous submissions.
type VirtualConfig struct {
	AgencyID     int64
	IntakeAreaID int64
	FrontDeskID  int64
}

// PendingConfig tunes the deferred-registration release job.
type PendingConfig struct {
	Interval time.Duration
	LockTTL  time.Duration
}

// Location resolves the calendar time zone.
func (c CalendarConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: Server{
			Addr:       getString("TRAMITE_ADDR", ":8080"),
			AdminToken: os.Getenv("ADMIN_TOKEN"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     20,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			NotifyTopic: getString("NOTIFY_TOPIC", "tramite.registrations"),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("GCS_BUCKET"),
			CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		},
		Calendar: CalendarConfig{
			Timezone: getString("TIMEZONE", "America/Lima"),
			SeedFile: os.Getenv("CALENDAR_SEED_FILE"),
			CacheTTL: 5 * time.Minute,
		},
		Pending: PendingConfig{
			LockTTL: 2 * time.Minute,
		},
		LogLevel: getString("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Pending.Interval, err = getDuration("PENDING_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Virtual.AgencyID, err = getInt("VIRTUAL_AGENCY_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.Virtual.IntakeAreaID, err = getInt("VIRTUAL_INTAKE_AREA_ID", 0); err != nil {
		return Config{}, err
	}
	if cfg.Virtual.FrontDeskID, err = getInt("FRONT_DESK_AREA_ID", 0); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Calendar.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
