package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/rosemary/config"
)

// rootFlags son los flags comunes a todos los subcomandos.
type rootFlags struct {
	configPath string
	verbose    bool
	logFormat  string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("rosemary exited with error", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "rosemary",
		Short:         "Regime-adaptive position and portfolio engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(flags)
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "config/config.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "set log level to debug")
	root.PersistentFlags().StringVar(&flags.logFormat, "format", "", "log format: text|json (overrides config)")

	root.AddCommand(
		newRunCmd(cfg),
		newFeaturesCmd(cfg),
		newHistoryCmd(cfg),
		newShowCmd(cfg),
	)
	return root
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	setupLogger(cfg.Log)

	slog.Debug("config loaded", "config", flags.configPath, "mode", cfg.Allocator.Mode)
	return cfg, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
