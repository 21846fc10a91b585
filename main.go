package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	app "github.com/rocketscienceinc/tictactoe-gateway/internal"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var CLI struct {
	Config  string `help:"Path to the configuration file." default:"config.yml" type:"path"`
	Debug   bool   `help:"Whether to enable debug logging."`
	Version bool   `help:"Print version information and exit." short:"v"`
}

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	kong.Parse(&CLI,
		kong.Name("tictactoe"),
		kong.Description("a real-time two-player tic-tac-toe gateway"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Version {
		fmt.Printf("tictactoe %s\n", version)
		os.Exit(0)
	}

	conf := config.MustLoad(CLI.Config)
	logger := initLogger(conf.LogLevel, CLI.Debug)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize logger.
func initLogger(logLevel string, debug bool) *slog.Logger {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
