// Package config loads quizhub's environment into a typed, defaulted
// struct, env-with-fallback style.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime setting the room runtime and its HTTP/socket
// surfaces need.
type Config struct {
	ListenAddress string

	StoreDataDir string
	RedisAddr    string

	JWTSecret string
	JWTTTL    time.Duration

	AdminSeedUser string
	AdminSeedPass string

	CORSOrigins []string

	RoomMaxSockets  int
	RoomAcceptRate  int
	MaxParticipants int

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	LogDir   string
	LogLevel string
}

// Load reads environment variables and applies defaults, never failing —
// the service must be able to boot even in an incomplete environment.
func Load() Config {
	return Config{
		ListenAddress: envStr("QUIZHUB_LISTEN_ADDR", ":8090"),

		StoreDataDir: envStr("QUIZHUB_STORE_DATA_DIR", "/data/quizhub"),
		RedisAddr:    envStr("QUIZHUB_REDIS_ADDR", "localhost:6379"),

		JWTSecret: envStr("QUIZHUB_JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:    envDuration("QUIZHUB_JWT_TTL", 24*time.Hour),

		AdminSeedUser: envStr("QUIZHUB_ADMIN_SEED_USER", "admin"),
		AdminSeedPass: envStr("QUIZHUB_ADMIN_SEED_PASS", "admin"),

		CORSOrigins: parseOrigins(envStr("QUIZHUB_CORS_ORIGINS", "*")),

		RoomMaxSockets:  envInt("QUIZHUB_ROOM_MAX_SOCKETS", 250),
		RoomAcceptRate:  envInt("QUIZHUB_ROOM_ACCEPT_RATE", 10),
		MaxParticipants: envInt("QUIZHUB_MAX_PARTICIPANTS", 1000),

		HeartbeatInterval: envDuration("QUIZHUB_HEARTBEAT_INTERVAL", 15*time.Second),
		HeartbeatTimeout:  envDuration("QUIZHUB_HEARTBEAT_TIMEOUT", 25*time.Second),

		LogDir:   envStr("QUIZHUB_LOG_DIR", "/data/quizhub/log"),
		LogLevel: envStr("QUIZHUB_LOG_LEVEL", "INFO"),
	}
}

// AllowCredentialed reports whether CORS origins permit credentialed
// requests; a wildcard origin list forbids them.
func (c Config) AllowCredentialed() bool {
	return !(len(c.CORSOrigins) == 1 && c.CORSOrigins[0] == "*")
}

func parseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "*" || raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
