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

type Config struct {
	Addr                     string
	DatabaseURL              string
	JWTSecret                string
	DataEncryptionKey        string
	FrontendDir              string
	FrontendBaseURL          string
	PasswordResetTTL         time.Duration
	Environment              string
	LogLevel                 string
	SeedTenantName           string
	SeedAdminEmail           string
	SeedAdminPassword        string
	ModuleCatalogPath        string
	EmailFrom                string
	EmailEnabled             bool
	SMTPHost                 string
	SMTPPort                 int
	SMTPUser                 string
	SMTPPassword             string
	SMTPUseTLS               bool
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	PermissionCacheTTL       time.Duration
	RunMigrations            bool
	RunSeed                  bool
	MigrationsDir            string
	MaxBodyBytes             int64
	RateLimitPerMinute       int
	LeaveReminderInterval    time.Duration
	LeaveReminderAfter       time.Duration
	RecruitmentSweepInterval time.Duration
	WorkdayStart             string
	MetricsEnabled           bool
}

// Load reads .env (when present) and then the process environment.
// Variables already set in the environment are never overridden by .env.
// Unparseable values fall back to the default.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:                     env("APP_ADDR", ":8080", str),
		DatabaseURL:              env("DATABASE_URL", "", str),
		JWTSecret:                env("JWT_SECRET", "", str),
		DataEncryptionKey:        env("DATA_ENCRYPTION_KEY", "", str),
		FrontendDir:              env("FRONTEND_DIR", "frontend/dist", str),
		FrontendBaseURL:          env("FRONTEND_BASE_URL", "http://localhost:8080", str),
		PasswordResetTTL:         env("PASSWORD_RESET_TTL", 2*time.Hour, time.ParseDuration),
		Environment:              env("APP_ENV", "development", str),
		LogLevel:                 env("LOG_LEVEL", "info", str),
		SeedTenantName:           env("SEED_TENANT_NAME", "Default Company", str),
		SeedAdminEmail:           env("SEED_ADMIN_EMAIL", "", str),
		SeedAdminPassword:        env("SEED_ADMIN_PASSWORD", "", str),
		ModuleCatalogPath:        env("MODULE_CATALOG_PATH", "", str),
		EmailFrom:                env("EMAIL_FROM", "no-reply@example.com", str),
		EmailEnabled:             env("EMAIL_ENABLED", false, strconv.ParseBool),
		SMTPHost:                 env("SMTP_HOST", "", str),
		SMTPPort:                 env("SMTP_PORT", 587, strconv.Atoi),
		SMTPUser:                 env("SMTP_USER", "", str),
		SMTPPassword:             env("SMTP_PASSWORD", "", str),
		SMTPUseTLS:               env("SMTP_USE_TLS", true, strconv.ParseBool),
		RedisAddr:                env("REDIS_ADDR", "", str),
		RedisPassword:            env("REDIS_PASSWORD", "", str),
		RedisDB:                  env("REDIS_DB", 0, strconv.Atoi),
		PermissionCacheTTL:       env("PERMISSION_CACHE_TTL", 5*time.Minute, time.ParseDuration),
		RunMigrations:            env("RUN_MIGRATIONS", true, strconv.ParseBool),
		RunSeed:                  env("RUN_SEED", true, strconv.ParseBool),
		MigrationsDir:            env("MIGRATIONS_DIR", "migrations", str),
		MaxBodyBytes:             env("MAX_BODY_BYTES", int64(1<<20), parseInt64),
		RateLimitPerMinute:       env("RATE_LIMIT_PER_MINUTE", 120, strconv.Atoi),
		LeaveReminderInterval:    env("LEAVE_REMINDER_INTERVAL", 12*time.Hour, time.ParseDuration),
		LeaveReminderAfter:       env("LEAVE_REMINDER_AFTER", 48*time.Hour, time.ParseDuration),
		RecruitmentSweepInterval: env("RECRUITMENT_SWEEP_INTERVAL", 6*time.Hour, time.ParseDuration),
		WorkdayStart:             env("WORKDAY_START", "09:00", str),
		MetricsEnabled:           env("METRICS_ENABLED", true, strconv.ParseBool),
	}
}

func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func str(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// WorkdayStartOffset returns WorkdayStart as an offset from midnight.
func (c Config) WorkdayStartOffset() (time.Duration, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(c.WorkdayStart))
	if err != nil {
		return 0, fmt.Errorf("WORKDAY_START must be HH:MM: %w", err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	check(blank(c.DatabaseURL), "DATABASE_URL is required")
	if c.Environment == "production" {
		check(blank(c.JWTSecret), "JWT_SECRET must be set to a strong value in production")
		check(blank(c.DataEncryptionKey), "DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		check(c.RunSeed && blank(c.SeedAdminPassword), "SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
	}
	check(c.MaxBodyBytes < 1024, "MAX_BODY_BYTES must be at least 1024")
	check(c.RateLimitPerMinute <= 0, "RATE_LIMIT_PER_MINUTE must be positive")
	check(c.EmailEnabled && blank(c.SMTPHost), "SMTP_HOST must be set when EMAIL_ENABLED is true")
	if _, err := c.WorkdayStartOffset(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
