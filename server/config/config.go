package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"alpaca/server/domain"
	"alpaca/utils"
)

// Config はサーバーの起動パラメータです。
type Config struct {
	Addr         string
	Port         string
	LogLevel     slog.Level
	TickInterval time.Duration
	Variant      string
	VariantsFile string
	IdleTimeout  time.Duration
	PingInterval time.Duration
	OTLPEndpoint string
	ServiceName  string
}

// ListenAddr は "addr:port" を返します。
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Addr, c.Port)
}

// Endpoint はSessionEndpoint用の設定を返します。
func (c Config) Endpoint() domain.EndpointConfig {
	return domain.EndpointConfig{
		IdleTimeout:  c.IdleTimeout,
		PingInterval: c.PingInterval,
	}
}

// LoadDotEnv はfilenamesの.envファイルを環境変数に読み込みます。ファイルが無ければ何もしません。
// 既に設定されている環境変数は上書きしません。
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load は.envと環境変数から設定を読み込みます。
func Load() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv は環境変数のみから設定を組み立てます。
func FromEnv() Config {
	return Config{
		Addr:         utils.GetEnvDefault("ADDR", "localhost"),
		Port:         utils.GetEnvDefault("PORT", "9090"),
		LogLevel:     ParseLevel(utils.GetEnvDefault("LOG_LEVEL", "info")),
		TickInterval: utils.GetEnvDuration("TICK_INTERVAL", domain.DefaultTickInterval),
		Variant:      utils.GetEnvDefault("VARIANT", "alpaca"),
		VariantsFile: utils.GetEnvDefault("VARIANTS_FILE", ""),
		IdleTimeout:  utils.GetEnvDuration("IDLE_TIMEOUT", domain.DefaultIdleTimeout),
		PingInterval: utils.GetEnvDuration("PING_INTERVAL", domain.DefaultPingInterval),
		OTLPEndpoint: utils.GetEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  utils.GetEnvDefault("SERVICE_NAME", "alpaca"),
	}
}

// ParseLevel は "debug" / "info" / "warn" / "error" をslog.Levelに変換します。不明な値はinfoです。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
