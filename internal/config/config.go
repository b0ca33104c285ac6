package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	ServerPort  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SealKey     string // 32-byte key for at-rest sealing of sensitive store keys
	SwaggerHost string

	Security SecurityConfig
	Time     TimeConfig
	Report   ReportConfig
}

// SecurityConfig groups session and lockout policy.
type SecurityConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	IdleTimeout      time.Duration
	MaxSessionAge    time.Duration
}

// TimeConfig groups the clock rounding and break policy.
type TimeConfig struct {
	WorkStart     string // earliest counted clock-in, "HH:MM"
	WorkEnd       string // latest counted clock-out, "HH:MM"
	MinWorkHours  float64
	RoundUpMins   int
	MaxBreakMins  int
	BreakWarnMins int
}

// ReportConfig groups daily report validation policy.
type ReportConfig struct {
	MaxTextLength int
	MinTempC      float64
	MaxTempC      float64
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		AppEnv:      getEnv("APP_ENV", "production"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/careattend?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		SealKey:     os.Getenv("SEAL_KEY"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		Security:    DefaultSecurity(),
		Time:        DefaultTime(),
		Report:      DefaultReport(),
	}
}

// DefaultSecurity returns the facility's session and lockout policy.
func DefaultSecurity() SecurityConfig {
	return SecurityConfig{
		MaxLoginAttempts: 3,
		LockoutDuration:  15 * time.Minute,
		IdleTimeout:      30 * time.Minute,
		MaxSessionAge:    24 * time.Hour,
	}
}

// DefaultTime returns the facility's working-hours policy.
func DefaultTime() TimeConfig {
	return TimeConfig{
		WorkStart:     "09:00",
		WorkEnd:       "15:45",
		MinWorkHours:  1,
		RoundUpMins:   15,
		MaxBreakMins:  60,
		BreakWarnMins: 55,
	}
}

// DefaultReport returns the daily report validation policy.
func DefaultReport() ReportConfig {
	return ReportConfig{
		MaxTextLength: 500,
		MinTempC:      35.0,
		MaxTempC:      40.0,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
