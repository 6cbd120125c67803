package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"alpaca/client"
	"alpaca/server/application"
	"alpaca/server/config"
	"alpaca/server/telemetry"
	"alpaca/utils"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	slog.SetDefault(telemetry.NewTextLogger(os.Stdout, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botCount := utils.GetEnvInt("BOT_COUNT", 3)
	variants, err := application.LoadVariants(cfg.VariantsFile)
	if err != nil {
		slog.Error("failed to load variants", "err", err)
		os.Exit(1)
	}
	variant, err := variants.Lookup(cfg.Variant)
	if err != nil {
		slog.Error("failed to select variant", "err", err)
		os.Exit(1)
	}

	serverURL := fmt.Sprintf("ws://%s/ws", cfg.ListenAddr())
	slog.Info("starting bots", "count", botCount, "server", serverURL, "variant", variant.Name)

	var wg sync.WaitGroup
	for i := range botCount {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, serverURL, id, &variant)
		}(i)
	}

	wg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL string, id int, variant *application.Variant) {
	logger := slog.With("botID", id)

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, logger, variant)
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func botSession(ctx context.Context, serverURL string, logger *slog.Logger, variant *application.Variant) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := client.Dial(ctx, serverURL, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	logger.Info("connected")

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	select {
	case <-c.Assigned():
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	controller := application.NewRuleBotController()
	restarting := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-c.Snapshots():
			if !ok {
				return <-runErr
			}
			if s.State == application.StateActive {
				restarting = false
			}
			if s.State == application.StateGameOver {
				if restarting {
					continue
				}
				restarting = true
				logger.Info("game over, restarting", "score", s.Score, "tick", s.Tick)
				if err := c.Start(ctx); err != nil {
					return fmt.Errorf("restart: %w", err)
				}
				continue
			}
			for _, key := range controller.Decide(s, variant) {
				if err := c.SendKey(ctx, key); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	}
}
