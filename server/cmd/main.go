package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alpaca/server"
	"alpaca/server/application"
	"alpaca/server/config"
	"alpaca/server/domain"
	"alpaca/server/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Level:        cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()

	variants, err := application.LoadVariants(cfg.VariantsFile)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load variants", "err", err)
		os.Exit(1)
	}
	variant, err := variants.Lookup(cfg.Variant)
	if err != nil {
		slog.ErrorContext(ctx, "failed to select variant", "err", err)
		os.Exit(1)
	}

	// PubSub初期化
	pubsub := domain.NewSimplePubSub()

	// セッションごとにルーム(=ゲーム)を生成する
	roomManager := domain.NewSessionRoomManager(ctx, pubsub, func(id domain.RoomID) domain.Application {
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		game := application.NewGame(variant, application.SystemClock(), rng)
		return application.NewShooterApplication(id, game)
	}, cfg.TickInterval)

	handler := server.Route(pubsub, roomManager, cfg.Endpoint())
	s := server.NewServer(cfg.ListenAddr(), handler)

	go func() {
		if err := s.Serve(); err != nil {
			log.Fatalf("http server error: %v", err)
		}
	}()
	slog.InfoContext(ctx, "server listening", "addr", s.Addr(), "variant", variant.Name, "tick", cfg.TickInterval)

	<-ctx.Done()
	slog.InfoContext(ctx, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			slog.ErrorContext(ctx, "forced close failed", "error", err)
		}
	}
	slog.InfoContext(ctx, "server shutdown complete", "rooms", roomManager.Len())
}
