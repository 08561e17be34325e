package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Roster snapshot anchors accepted by ROSTER_SNAPSHOT_ANCHOR.
const (
	AnchorCreatedAt = "created_at"
	AnchorStartsAt  = "starts_at"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Academic   AcademicConfig
	Attendance AttendanceConfig
	Validation ValidationConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	AutoMigrate   bool
	StatementTime time.Duration
}

// URL renders the connection settings as a postgres:// URL for pgx based tooling.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AcademicConfig defines how calendar dates map onto academic-year labels.
type AcademicConfig struct {
	BoundaryMonth time.Month
	BoundaryDay   int
	Timezone      string
}

// AttendanceConfig tunes the session state machine and expectation resolution.
type AttendanceConfig struct {
	GracePeriod    time.Duration
	SweepInterval  time.Duration
	SweepEnabled   bool
	StrictResolver bool
	SnapshotAnchor string
}

// ValidationConfig controls assignment integrity checks and the audit cache.
type ValidationConfig struct {
	OnMutation    bool
	Workers       int
	CacheEnabled  bool
	AuditCacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:   v.GetBool("DB_AUTO_MIGRATE"),
		StatementTime: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	month, day, err := ParseBoundary(v.GetString("ACADEMIC_YEAR_BOUNDARY"))
	if err != nil {
		return nil, err
	}
	cfg.Academic = AcademicConfig{
		BoundaryMonth: month,
		BoundaryDay:   day,
		Timezone:      v.GetString("ACADEMIC_YEAR_TIMEZONE"),
	}

	anchor := strings.ToLower(v.GetString("ROSTER_SNAPSHOT_ANCHOR"))
	if anchor != AnchorCreatedAt && anchor != AnchorStartsAt {
		anchor = AnchorCreatedAt
	}
	cfg.Attendance = AttendanceConfig{
		GracePeriod:    parseDuration(v.GetString("SESSION_GRACE_PERIOD"), 2*time.Hour),
		SweepInterval:  parseDuration(v.GetString("SESSION_SWEEP_INTERVAL"), 5*time.Minute),
		SweepEnabled:   v.GetBool("ENABLE_SESSION_SWEEPER"),
		StrictResolver: v.GetBool("RESOLVER_STRICT"),
		SnapshotAnchor: anchor,
	}

	cfg.Validation = ValidationConfig{
		OnMutation:    v.GetBool("VALIDATION_ON_MUTATION"),
		Workers:       v.GetInt("VALIDATION_WORKERS"),
		CacheEnabled:  v.GetBool("ENABLE_AUDIT_CACHE"),
		AuditCacheTTL: parseDuration(v.GetString("AUDIT_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edu_system")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "edu-system")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ACADEMIC_YEAR_BOUNDARY", "08-01")
	v.SetDefault("ACADEMIC_YEAR_TIMEZONE", "UTC")

	v.SetDefault("SESSION_GRACE_PERIOD", "2h")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "5m")
	v.SetDefault("ENABLE_SESSION_SWEEPER", true)
	v.SetDefault("RESOLVER_STRICT", false)
	v.SetDefault("ROSTER_SNAPSHOT_ANCHOR", AnchorCreatedAt)

	v.SetDefault("VALIDATION_ON_MUTATION", true)
	v.SetDefault("VALIDATION_WORKERS", 2)
	v.SetDefault("ENABLE_AUDIT_CACHE", false)
	v.SetDefault("AUDIT_CACHE_TTL", "10m")
}

// ParseBoundary parses an academic-year boundary written as MM-DD.
func ParseBoundary(raw string) (time.Month, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.August, 1, nil
	}
	t, err := time.Parse("01-02", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ACADEMIC_YEAR_BOUNDARY %q, expected MM-DD: %w", raw, err)
	}
	if t.Month() == time.February && t.Day() == 29 {
		return 0, 0, fmt.Errorf("invalid ACADEMIC_YEAR_BOUNDARY %q: boundary must exist every year", raw)
	}
	return t.Month(), t.Day(), nil
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
