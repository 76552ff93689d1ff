// Package main runs the product table: a terminal client of the catalog API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/catalogtable/internal/producttable/client"
	"github.com/abgdnv/catalogtable/internal/producttable/config"
	"github.com/abgdnv/catalogtable/internal/producttable/query"
	"github.com/abgdnv/catalogtable/internal/producttable/remote"
	"github.com/abgdnv/catalogtable/internal/producttable/table"
	"github.com/abgdnv/catalogtable/internal/producttable/tui"
	"github.com/abgdnv/catalogtable/pkg/bootstrap"
	"github.com/abgdnv/catalogtable/pkg/config/configloader"
	pkgnats "github.com/abgdnv/catalogtable/pkg/nats"
	"github.com/abgdnv/catalogtable/pkg/telemetry"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const serviceName = "producttable"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		baseURL    string
	)
	cmd := &cobra.Command{
		Use:          "producttable",
		Short:        "Browse, add, edit and delete catalog products in the terminal",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cfg, err := loadConfig(configFile, baseURL)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "producttable.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "catalog API base URL, overrides api.baseurl")
	return cmd
}

func loadConfig(configFile, baseURL string) (*config.Config, error) {
	cfg, err := configloader.Load[*config.Config](serviceName,
		configloader.WithFile(configFile),
		configloader.WithDefaults(config.Defaults()))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
		if err := cfg.API.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	return cfg, nil
}

// run wires the client stack and blocks in the terminal UI until the user quits or ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	logOut, closeLog, err := bootstrap.OpenLogOutput(cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger := bootstrap.NewLogger(cfg.Log.Level, logOut)
	slog.SetDefault(logger)
	logger.Info("Configuration loaded", "config", cfg.String())

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer provider", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	api := client.New(cfg.API.BaseURL, cfg.API.Timeout, cfg.CircuitBreaker, client.WithLogger(logger))
	cache := query.NewCache[[]client.Product]()
	ctrl := table.NewController(api, cache, logger)

	if cfg.NATS.Enabled {
		stopListening, err := listen(ctx, cfg, cache, logger)
		if err != nil {
			return err
		}
		defer stopListening()
	}

	model := tui.New(ctx, ctrl, tui.Options{RowHeight: cfg.Table.RowHeight, Overscan: cfg.Table.Overscan})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// listen connects to NATS and invalidates the product list on every change
// event. The returned function stops the subscription and closes the connection.
func listen(ctx context.Context, cfg *config.Config, cache remote.Invalidator, logger *slog.Logger) (func(), error) {
	nc, err := pkgnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, err
	}
	js, err := pkgnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := remote.Listen(ctx, js, cfg.NATS, cache, table.ProductsKey, logger); err != nil {
			logger.Error("Product change listener stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
		nc.Close()
	}, nil
}
