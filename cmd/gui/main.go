package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thermogo/internal/app"
	"thermogo/internal/ui"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run gui", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close runtime", "error", closeErr)
		}
	}()

	window := ui.NewApp(ui.Dependencies{
		Ctx:            rt.Ctx,
		Logger:         rt.LogManager.Logger("ui"),
		Bus:            rt.Bus,
		Registry:       rt.Registry,
		Window:         rt.Config.Plot.WindowSeconds,
		RedrawInterval: time.Duration(rt.Config.Plot.RedrawIntervalMS) * time.Millisecond,
		OnQuit:         stop,
	})

	rt.StartAlerts(window.Sender())
	go func() {
		if err := rt.Monitor.Run(rt.Ctx); err != nil {
			slog.Error("telemetry producer stopped", "error", err)
		}
	}()

	window.Run()

	return nil
}
