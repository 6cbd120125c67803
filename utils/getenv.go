package utils

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func GetEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt は環境変数を整数として読みます。未設定や不正値のときはdefaultValueを返します。
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer env, using default", "key", key, "value", value, "err", err)
		return defaultValue
	}
	return n
}

// GetEnvDuration は環境変数を "150ms" や "5s" 形式のDurationとして読みます。
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration env, using default", "key", key, "value", value, "err", err)
		return defaultValue
	}
	return d
}
