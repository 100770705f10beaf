package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chris/stk-confirmation/pkg/bootstrap"
	"github.com/chris/stk-confirmation/pkg/config"
)

var Version = "dev"

func main() {
	rootCmd := newRootCmd(loadEngine)
	rootCmd.Version = Version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadEngine(ctx context.Context, needGateway bool) (*bootstrap.Engine, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if needGateway {
		if err := cfg.ValidateGateway(); err != nil {
			return nil, nil, err
		}
	}

	// Operator output goes to stdout; keep engine logs on stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	engine, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return engine, cfg, nil
}
