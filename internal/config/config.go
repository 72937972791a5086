package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"artistnet/tagsim/internal/logging"
)

// Config holds settings read from the environment (and an optional .env file).
type Config struct {
	LastFMAPIKey    string
	LastFMBaseURL   string
	ArtistCount     int
	MaxRetries      int
	RequestInterval time.Duration
	HTTPTimeout     time.Duration

	StoreBackend  string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OutputDir string
	LogLevel  string
	LogFormat string
}

// Load reads env files and then the environment. With no envFiles it reads
// ".env" from the working directory if present. Files named explicitly must
// exist and parse.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	return &Config{
		LastFMAPIKey:    getEnv("LASTFM_API_KEY", ""),
		LastFMBaseURL:   getEnv("LASTFM_BASE_URL", "http://ws.audioscrobbler.com/2.0/"),
		ArtistCount:     getEnvInt("TAGSIM_ARTIST_COUNT", 30),
		MaxRetries:      getEnvInt("TAGSIM_MAX_RETRIES", 5),
		RequestInterval: getEnvDuration("TAGSIM_REQUEST_INTERVAL", time.Second),
		HTTPTimeout:     getEnvDuration("TAGSIM_HTTP_TIMEOUT", 15*time.Second),

		StoreBackend:  getEnv("TAGSIM_STORE", "sqlite"),
		DBPath:        getEnv("TAGSIM_DB", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OutputDir: getEnv("TAGSIM_OUTPUT_DIR", "."),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("[config] not an integer, using default")
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("[config] not a duration, using default")
		return def
	}
	return d
}
