package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DBConnStr       string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnLifetime  time.Duration
	HTTPPort        int
	GRPCPort        int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	JWTSecret    string
	JWTIssuer    string
	JWTTTL       time.Duration
	APIKeySecret string

	LogLevel  string
	LogPretty bool

	SnapshotTimezone   string
	SchedulerEnabled   bool
	SnapshotCron       string
	APIKeyExpiryCron   string
	PriceRetentionDays int
	PricePurgeCron     string
	JobTimeout         time.Duration

	AdminEmail    string
	AdminPassword string

	problems []string
}

// Load reads configuration from environment variables, after loading .env if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.DBConnStr = dbConnStr()
	cfg.DBMaxOpenConns = cfg.getInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = cfg.getInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnLifetime = cfg.getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.HTTPPort = cfg.getInt("HTTP_PORT", 8080)
	cfg.GRPCPort = cfg.getInt("GRPC_PORT", 9090)
	cfg.RequestTimeout = cfg.getDuration("REQUEST_TIMEOUT", 30*time.Second)
	cfg.ShutdownTimeout = cfg.getDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "assetmanager")
	cfg.JWTTTL = cfg.getDuration("JWT_TTL", 24*time.Hour)
	cfg.APIKeySecret = os.Getenv("API_KEY_SECRET")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.LogPretty = cfg.getBool("LOG_PRETTY", false)

	cfg.SnapshotTimezone = getEnv("SNAPSHOT_TIMEZONE", "UTC")
	cfg.SchedulerEnabled = cfg.getBool("SCHEDULER_ENABLED", true)
	cfg.SnapshotCron = getEnv("SNAPSHOT_CRON", "0 5 0 * * *")
	cfg.APIKeyExpiryCron = getEnv("API_KEY_EXPIRY_CRON", "@hourly")
	cfg.PriceRetentionDays = cfg.getInt("PRICE_RETENTION_DAYS", 0)
	cfg.PricePurgeCron = getEnv("PRICE_PURGE_CRON", "0 30 3 * * *")
	cfg.JobTimeout = cfg.getDuration("JOB_TIMEOUT", 10*time.Minute)

	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dbConnStr prefers DB_CONN_STR and otherwise builds one from the DB_* parts
func dbConnStr() string {
	if s := os.Getenv("DB_CONN_STR"); s != "" {
		return s
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "assetmanager"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// Validate checks required values and reports every problem at once
func (c *Config) Validate() error {
	errs := make([]error, 0, len(c.problems))
	for _, p := range c.problems {
		errs = append(errs, errors.New(p))
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.APIKeySecret) == "" {
		errs = append(errs, errors.New("API_KEY_SECRET is required"))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d is out of range", c.HTTPPort))
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("GRPC_PORT %d is out of range", c.GRPCPort))
	}
	if c.HTTPPort == c.GRPCPort {
		errs = append(errs, errors.New("HTTP_PORT and GRPC_PORT must differ"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.PriceRetentionDays < 0 {
		errs = append(errs, errors.New("PRICE_RETENTION_DAYS cannot be negative"))
	}
	if _, err := time.LoadLocation(c.SnapshotTimezone); err != nil {
		errs = append(errs, fmt.Errorf("SNAPSHOT_TIMEZONE %q: %w", c.SnapshotTimezone, err))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

// Location returns the time zone snapshot dates are computed in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SnapshotTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HTTPAddr is the listen address of the REST server
func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

// GRPCAddr is the listen address of the ops gRPC server
func (c *Config) GRPCAddr() string { return fmt.Sprintf(":%d", c.GRPCPort) }

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return intVal
}

func (c *Config) getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return boolVal
}

func (c *Config) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be a duration, got %q", key, value))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
