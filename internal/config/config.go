package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port         string
	Storage      string
	DatabaseURL  string
	HoldingsSeed string
	// Provider
	Provider       string
	TwelveDataBase string
	TwelveDataKey  string
	RequestTimeout time.Duration
	// Refresh
	CacheBackend string
	CacheTTL     time.Duration
	Pacing       time.Duration
	RefreshEvery time.Duration
	RefreshLock  string
	LockTTL      time.Duration
	// Redis (shared cache, refresh lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func msDef(key string, def int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, ""), def)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:            getEnv("ENV", "local"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnv("PORT", "8080"),
		Storage:        getEnv("STORAGE", "memory"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		HoldingsSeed:   getEnv("HOLDINGS_SEED", ""),
		Provider:       getEnv("PROVIDER", "fake"),
		TwelveDataBase: getEnv("TWELVEDATA_BASE", "https://api.twelvedata.com"),
		TwelveDataKey:  getEnv("TWELVEDATA_API_KEY", ""),
		RequestTimeout: msDef("REQUEST_TIMEOUT_MS", 10000),
		CacheBackend:   getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:       msDef("CACHE_TTL_MS", 60000),
		Pacing:         msDef("PACING_MS", 500),
		RefreshEvery:   msDef("REFRESH_EVERY_MS", 0),
		RefreshLock:    getEnv("REFRESH_LOCK", "none"),
		LockTTL:        msDef("REFRESH_LOCK_TTL_MS", 300000),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        atoiDef(getEnv("REDIS_DB", "0"), 0),
	}
}
