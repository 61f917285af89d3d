// Package config loads engine configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	// LogConsole switches output from JSON to the human console writer.
	LogConsole bool

	// RegistryPath is the sqlite file holding the layer registry.
	RegistryPath string

	CacheDir         string
	MemoryBackend    string // "lru" or "redis"
	MemoryMaxEntries int
	RedisAddr        string

	ExtractWorkers int

	WatcherEnabled  bool
	WatcherDebounce time.Duration

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	workers := getint("EXTRACT_WORKERS", 8)
	if workers < 1 {
		workers = 1
	}

	return Config{
		Addr:         getenv("ADDR", ":8090"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogConsole:   getbool("LOG_CONSOLE", false),
		RegistryPath: getenv("REGISTRY_PATH", "layers.db"),

		CacheDir:         getenv("CACHE_DIR", "cache/shapefiles"),
		MemoryBackend:    strings.ToLower(getenv("CACHE_MEMORY_BACKEND", "lru")),
		MemoryMaxEntries: getint("CACHE_MEMORY_MAX_ENTRIES", 512),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),

		ExtractWorkers: workers,

		WatcherEnabled:  getbool("WATCHER_ENABLED", true),
		WatcherDebounce: getduration("WATCHER_DEBOUNCE", 500*time.Millisecond),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Brokers: splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getenv("KAFKA_TOPIC", "layer-invalidation"),
			GroupID: getenv("KAFKA_GROUP_ID", "shptiles-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
