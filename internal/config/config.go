package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig          `yaml:"app"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Redis        RedisConfig        `yaml:"redis"`
	Logger       LoggerConfig       `yaml:"logger"`
	Auth         AuthConfig         `yaml:"auth"`
	Notification NotificationConfig `yaml:"notification"`
	Assignment   AssignmentConfig   `yaml:"assignment"`
	Balance      BalanceConfig      `yaml:"balance"`
	Directory    DirectoryConfig    `yaml:"directory"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                     string `yaml:"addr"`
	Password                 string `yaml:"password"`
	DB                       int    `yaml:"db"`
	DirectoryCacheTTLSeconds int    `yaml:"directory_cache_ttl_seconds"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig defines token verification parameters.
type AuthConfig struct {
	JWTSecret             string `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
}

// NotificationConfig controls the outbound event hand-off.
type NotificationConfig struct {
	KafkaEnabled bool     `yaml:"kafka_enabled"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	EmailFrom    string   `yaml:"email_from"`
	WebhookURL   string   `yaml:"webhook_url"`
}

// AssignmentConfig tunes the assignment engine.
type AssignmentConfig struct {
	Strategy              string `yaml:"strategy"`
	AutoRouteOnCreate     bool   `yaml:"auto_route_on_create"`
	CountResolvedAsActive bool   `yaml:"count_resolved_as_active"`
}

// BalanceConfig controls the periodic workload balancer.
type BalanceConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
}

// DirectoryConfig seeds the in-process staff directory used when no
// Postgres DSN is set. It is ignored otherwise.
type DirectoryConfig struct {
	Staff    []StaffSeed   `yaml:"staff"`
	Projects []ProjectSeed `yaml:"projects"`
}

// StaffSeed is one staff record. Staff are active unless marked inactive.
type StaffSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Inactive bool   `yaml:"inactive"`
}

// ProjectSeed is a project and the staff ids serving it.
type ProjectSeed struct {
	ID      string   `yaml:"id"`
	Members []string `yaml:"members"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Name:                  "complaint-service",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8080",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Redis: RedisConfig{
			DirectoryCacheTTLSeconds: 30,
		},
		Logger: LoggerConfig{Level: "info"},
		Auth: AuthConfig{
			JWTSecret:             "dev-secret",
			AccessTokenTTLMinutes: 60,
		},
		Notification: NotificationConfig{
			KafkaTopic: "complaint-events",
			EmailFrom:  "noreply@example.com",
		},
		Assignment: AssignmentConfig{Strategy: "count"},
		Balance: BalanceConfig{
			IntervalSeconds: 300,
			LockTTLSeconds:  60,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnv("APP_PORT", cfg.App.Port)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.RequestTimeoutSeconds = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds)

	cfg.Postgres.DSN = getEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))
	cfg.Postgres.MinConns = int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns)))
	cfg.Postgres.RunMigrations = getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations)
	cfg.Postgres.ConnMaxIdleSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec)))
	cfg.Postgres.ConnMaxLifeSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec)))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = redisDB
	cfg.Redis.DirectoryCacheTTLSeconds = getEnvAsInt("REDIS_DIRECTORY_CACHE_TTL_SECONDS", cfg.Redis.DirectoryCacheTTLSeconds)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTLMinutes = getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.Auth.AccessTokenTTLMinutes)

	cfg.Notification.KafkaEnabled = getEnvAsBool("NOTIFY_KAFKA_ENABLED", cfg.Notification.KafkaEnabled)
	cfg.Notification.KafkaBrokers = getEnvAsList("NOTIFY_KAFKA_BROKERS", cfg.Notification.KafkaBrokers)
	cfg.Notification.KafkaTopic = getEnv("NOTIFY_KAFKA_TOPIC", cfg.Notification.KafkaTopic)
	cfg.Notification.EmailFrom = getEnv("NOTIFY_EMAIL_FROM", cfg.Notification.EmailFrom)
	cfg.Notification.WebhookURL = getEnv("NOTIFY_WEBHOOK_URL", cfg.Notification.WebhookURL)

	cfg.Assignment.Strategy = strings.ToLower(getEnv("ASSIGNMENT_STRATEGY", cfg.Assignment.Strategy))
	cfg.Assignment.AutoRouteOnCreate = getEnvAsBool("ASSIGNMENT_AUTO_ROUTE_ON_CREATE", cfg.Assignment.AutoRouteOnCreate)
	cfg.Assignment.CountResolvedAsActive = getEnvAsBool("ASSIGNMENT_COUNT_RESOLVED_AS_ACTIVE", cfg.Assignment.CountResolvedAsActive)

	cfg.Balance.Enabled = getEnvAsBool("BALANCE_ENABLED", cfg.Balance.Enabled)
	cfg.Balance.IntervalSeconds = getEnvAsInt("BALANCE_INTERVAL_SECONDS", cfg.Balance.IntervalSeconds)
	cfg.Balance.LockTTLSeconds = getEnvAsInt("BALANCE_LOCK_TTL_SECONDS", cfg.Balance.LockTTLSeconds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch c.Assignment.Strategy {
	case "count", "weighted":
	default:
		return fmt.Errorf("invalid ASSIGNMENT_STRATEGY %q", c.Assignment.Strategy)
	}
	if c.Notification.KafkaEnabled && len(c.Notification.KafkaBrokers) == 0 {
		return fmt.Errorf("NOTIFY_KAFKA_BROKERS required when kafka is enabled")
	}
	if c.Balance.Enabled && c.Balance.IntervalSeconds <= 0 {
		return fmt.Errorf("BALANCE_INTERVAL_SECONDS must be positive")
	}
	return c.Directory.Validate()
}

// Validate checks that every seeded staff member has an id and a staff
// role and that project members refer to seeded staff.
func (d DirectoryConfig) Validate() error {
	known := make(map[string]bool, len(d.Staff))
	for _, s := range d.Staff {
		if s.ID == "" {
			return fmt.Errorf("directory staff entry without id")
		}
		switch strings.ToUpper(s.Role) {
		case "SUPPORT", "ADMIN":
		default:
			return fmt.Errorf("directory staff %q has invalid role %q", s.ID, s.Role)
		}
		known[s.ID] = true
	}
	for _, p := range d.Projects {
		if p.ID == "" {
			return fmt.Errorf("directory project entry without id")
		}
		for _, member := range p.Members {
			if !known[member] {
				return fmt.Errorf("directory project %q lists unknown staff %q", p.ID, member)
			}
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the directory cache lifetime.
func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.DirectoryCacheTTLSeconds) * time.Second
}

// Interval returns the balancing period.
func (b BalanceConfig) Interval() time.Duration {
	return time.Duration(b.IntervalSeconds) * time.Second
}

// LockTTL returns how long one balancing run may hold the lock.
func (b BalanceConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
