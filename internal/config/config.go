// Package config reads process settings from the environment, after
// loading an optional .env file from the working directory.
package config

import (
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Score backends.
const (
    BackendFile   = "file"
    BackendSQLite = "sqlite"
    BackendMemory = "memory"
)

const devSecret = "dev_secret_change_me"

// Config holds everything cmd/papersoccer needs to start.
type Config struct {
    Port         string
    LogLevel     string
    LogFormat    string // "json" or "console"
    ScoreBackend string
    ScorePath    string
    TokenSecret  string
    TokenTTL     time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
    _ = godotenv.Load()
    return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
    c := Config{
        Port:         getEnv("PORT", "8080"),
        LogLevel:     getEnv("LOG_LEVEL", "info"),
        LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "json")),
        ScoreBackend: strings.ToLower(getEnv("SCORE_BACKEND", BackendFile)),
        TokenSecret:  getEnv("TOKEN_SECRET", devSecret),
    }
    switch c.ScoreBackend {
    case BackendFile:
        c.ScorePath = getEnv("SCORE_PATH", "./data/score.env")
    case BackendSQLite:
        c.ScorePath = getEnv("SCORE_PATH", "./data/score.db")
    case BackendMemory:
    default:
        return Config{}, fmt.Errorf("unknown SCORE_BACKEND %q", c.ScoreBackend)
    }
    if c.LogFormat != "json" && c.LogFormat != "console" {
        return Config{}, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
    }
    days, err := strconv.Atoi(getEnv("TOKEN_TTL_DAYS", "14"))
    if err != nil || days <= 0 {
        return Config{}, fmt.Errorf("bad TOKEN_TTL_DAYS %q", os.Getenv("TOKEN_TTL_DAYS"))
    }
    c.TokenTTL = time.Duration(days) * 24 * time.Hour
    return c, nil
}

// DevSecret reports whether cookies are signed with the built-in secret.
func (c Config) DevSecret() bool { return c.TokenSecret == devSecret }

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return def
}
