package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Port string
	Env  string

	ElevationURL     string
	ElevationScheme  string
	ElevationTimeout time.Duration

	ShareBaseURL string

	// sqlite, postgres or redis
	StoreBackend    string
	SQLitePath      string
	DatabaseURL     string
	RedisAddr       string
	StoreTTL        time.Duration
	ProfileCacheTTL time.Duration

	ChartWidth  int
	ChartHeight int

	LogLevel string
}

// Load reads .env (when present) and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found (using environment variables)")
	}

	return &Config{
		Port: Get("PORT", "8080"),
		Env:  Get("ENVIRONMENT", "development"),

		ElevationURL:     Get("ELEVATION_URL", "http://localhost/cgi-bin/srtm.py"),
		ElevationScheme:  Get("ELEVATION_SCHEME", "srtm"),
		ElevationTimeout: GetDuration("ELEVATION_TIMEOUT", 30*time.Second),

		ShareBaseURL: Get("SHARE_BASE_URL", "http://localhost:8080/profiler"),

		StoreBackend:    strings.ToLower(Get("STORE_BACKEND", "sqlite")),
		SQLitePath:      Get("SQLITE_PATH", "data/profiler.db"),
		DatabaseURL:     Get("DATABASE_URL", ""),
		RedisAddr:       Get("REDIS_ADDR", ""),
		StoreTTL:        GetDuration("STORE_TTL", 3650*24*time.Hour),
		ProfileCacheTTL: GetDuration("PROFILE_CACHE_TTL", 24*time.Hour),

		ChartWidth:  GetInt("CHART_WIDTH", 1024),
		ChartHeight: GetInt("CHART_HEIGHT", 400),

		LogLevel: Get("LOG_LEVEL", "info"),
	}
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v := Get(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logrus.WithField("key", key).Warn("invalid integer, using default")
	}
	return fallback
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	if v := Get(key, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logrus.WithField("key", key).Warn("invalid duration, using default")
	}
	return fallback
}

// ConfigureLogger applies LOG_LEVEL and the output format to the standard logger.
func ConfigureLogger(level string, json bool) {
	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
