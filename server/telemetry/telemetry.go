package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config はログとトレースの出力先設定です。
type Config struct {
	ServiceName  string
	OTLPEndpoint string // 空ならOTLPへは送らない
	Level        slog.Level
}

// ShutdownFunc はエクスポーターをフラッシュして停止します。
type ShutdownFunc func(ctx context.Context) error

// NewTextLogger はwへテキスト形式で出力するロガーを返します。
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup はデフォルトのslogロガーを設定します。
// OTLPEndpointが指定されていればログはotelslog経由でOTLPへ、トレースもOTLPへ送ります。
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.OTLPEndpoint == "" {
		slog.SetDefault(NewTextLogger(os.Stdout, cfg.Level))
		return func(context.Context) error { return nil }, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	logExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("otlp log exporter: %w", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("otlp trace exporter: %w", err), loggerProvider.Shutdown(ctx))
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)

	handler := otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(loggerProvider))
	slog.SetDefault(slog.New(&levelHandler{level: cfg.Level, Handler: handler}))

	return func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), loggerProvider.Shutdown(ctx))
	}, nil
}

// levelHandler はlevel未満のレコードを捨てるslog.Handlerです。
type levelHandler struct {
	level slog.Level
	slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.Handler.Enabled(ctx, level)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, Handler: h.Handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, Handler: h.Handler.WithGroup(name)}
}
