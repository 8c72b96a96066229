package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/pokerroom/pokerroom/internal/api"
	"github.com/pokerroom/pokerroom/internal/channel"
	"github.com/pokerroom/pokerroom/internal/config"
	"github.com/pokerroom/pokerroom/internal/tui"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"pokerroom.hcl" help:"Path to HCL configuration file"`
	API      string `short:"a" long:"api" help:"HTTP API base URL (overrides config)"`
	Socket   string `short:"s" long:"socket" help:"WebSocket URL (overrides config)"`
	Player   string `short:"p" long:"player" help:"Player name (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	LogFile  string `long:"log-file" help:"Log file path (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Load configuration
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.API != "" {
		cfg.Server.APIURL = CLI.API
	}
	if CLI.Socket != "" {
		cfg.Server.SocketURL = CLI.Socket
	}
	if CLI.Player != "" {
		cfg.Player.Name = CLI.Player
	}
	if CLI.LogLevel != "" {
		cfg.UI.LogLevel = CLI.LogLevel
	}
	if CLI.LogFile != "" {
		cfg.UI.LogFile = CLI.LogFile
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		kctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.New(logFile)
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting pokerroom client",
		"api", cfg.Server.APIURL,
		"socket", cfg.Server.SocketURL,
		"config", CLI.Config)

	apiClient := api.New(cfg.Server.APIURL, api.WithLogger(logger))
	ch := channel.New(cfg.Server.SocketURL,
		channel.WithLogger(logger),
		channel.WithSettleDelay(cfg.SettleDelay()),
	)
	defer ch.Cleanup()

	model := tui.New(cfg, apiClient, ch, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		_, err := program.Run()
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		program.Quit()
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		kctx.Exit(1)
	}
}
