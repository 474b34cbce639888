package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/schedule"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Cache      CacheConfig      `yaml:"cache"`
	Events     EventsConfig     `yaml:"events"`
	Venue      VenueConfig      `yaml:"venue"`
	Recurring  RecurringConfig  `yaml:"recurring"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the database connection configuration. Driver is
// "postgres" for the main deployment or "sqlite" for the lightweight one.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig holds the admin session settings.
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	AccessTTLMin int    `yaml:"access_ttl_minutes"`
	BcryptCost   int    `yaml:"bcrypt_cost"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// CacheConfig selects the device-status cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // "memory" or "redis"
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
}

// EventsConfig holds the analytics event broker settings. Publishing is a
// no-op when the URL is empty.
type EventsConfig struct {
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
}

// VenueConfig describes the venue's operating window and timezone. Hours are
// in display space (late-night hours read 24-29).
type VenueConfig struct {
	Timezone  string `yaml:"timezone"`
	OpenHour  int    `yaml:"open_hour"`
	CloseHour int    `yaml:"close_hour"`
}

// Window returns the operating window as a display-hour range.
func (v VenueConfig) Window() timeslot.TimeRange {
	return timeslot.TimeRange{
		Start: timeslot.DisplayHour(v.OpenHour),
		End:   timeslot.DisplayHour(v.CloseHour),
	}
}

// Location resolves the venue timezone, falling back to local time.
func (v VenueConfig) Location() *time.Location {
	if v.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		log.Printf("invalid venue timezone %q, falling back to local: %v", v.Timezone, err)
		return time.Local
	}
	return loc
}

// RecurringConfig drives the background schedule generator.
type RecurringConfig struct {
	Enabled       bool            `yaml:"enabled"`
	IntervalHours int             `yaml:"interval_hours"`
	Interval      time.Duration   `yaml:"-"` // Ignored by YAML parser
	Rules         []schedule.Rule `yaml:"rules"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Auth.AccessTTLMin <= 0 {
		cfg.Auth.AccessTTLMin = 60
	}
	if cfg.Auth.BcryptCost <= 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 30
	}

	if cfg.Events.Queue == "" {
		cfg.Events.Queue = "gameplaza.reservation.events"
	}

	if cfg.Venue.OpenHour <= 0 {
		cfg.Venue.OpenHour = 10
	}
	if cfg.Venue.CloseHour <= cfg.Venue.OpenHour {
		cfg.Venue.CloseHour = 29
	}

	if cfg.Recurring.IntervalHours <= 0 {
		cfg.Recurring.IntervalHours = 24
	}
	cfg.Recurring.Interval = time.Duration(cfg.Recurring.IntervalHours) * time.Hour
	for _, rule := range cfg.Recurring.Rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("recurring rule %q: %w", rule.Name, err)
		}
	}

	return &cfg, nil
}
