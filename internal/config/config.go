package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	RoomTTLMinutes int // 0 disables stale-room eviction
	SendBuffer     int // per-observer outbound queue length
	CORSAllow      []string
}

func Load() Config {
	// Local .env, dev only; ignored when absent
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		RoomTTLMinutes: getEnvInt("ROOM_TTL_MINUTES", 60),
		SendBuffer:     getEnvInt("SEND_BUFFER", 64),
		CORSAllow:      splitCSV(getEnv("CORS_ALLOW", "*")),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
