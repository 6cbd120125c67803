package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"alpaca/client"
	"alpaca/server/application"
	"alpaca/server/config"
	"alpaca/server/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg := config.FromEnv()
	// 画面を壊さないようにログはstderrへ
	slog.SetDefault(telemetry.NewTextLogger(os.Stderr, slog.LevelError))

	variants, err := application.LoadVariants(cfg.VariantsFile)
	if err != nil {
		return err
	}
	variant, err := variants.Lookup(cfg.Variant)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := client.Dial(ctx, fmt.Sprintf("ws://%s/ws", cfg.ListenAddr()), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	r := newRenderer(screen, &variant)
	r.drawWaiting()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			return err
		case s, ok := <-c.Snapshots():
			if !ok {
				return <-runErr
			}
			r.draw(s)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				action, key := translateKey(ev)
				switch action {
				case actionQuit:
					return nil
				case actionStart:
					if err := c.Start(ctx); err != nil && err != client.ErrNotAssigned {
						return err
					}
				case actionKey:
					if err := c.SendKey(ctx, key); err != nil && err != client.ErrNotAssigned {
						return err
					}
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}
}
