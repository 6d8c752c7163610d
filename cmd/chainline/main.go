// Package main is the entry point for the chainline binary.
// It provides a CLI for applying, validating and serving configured
// transformation pipelines.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainline/chainline/pkg/config"
	"github.com/chainline/chainline/pkg/domain"
	"github.com/chainline/chainline/pkg/engine"
	"github.com/chainline/chainline/pkg/logging"
	"github.com/chainline/chainline/pkg/runner"
	"github.com/chainline/chainline/pkg/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultConfigPath = "chainline.yaml"
	defaultLogLevel   = "info"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for chainline
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chainline",
		Short: "Configurable ordered transformation pipelines",
		Long: `chainline composes named transformations into ordered pipelines.

The available transformations and the pipelines built from them are declared
in a YAML configuration file; the execution order is exactly the configured
order, first step applied first.

Example:
  chainline run --config chainline.yaml --pipeline normalize --input "Hello World"`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Enable pretty console logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if flagLevel, err := cmd.Flags().GetString("log-level"); err == nil && cmd.Flags().Changed("log-level") {
		level = flagLevel
	}
	pretty := cfg.Logging.Pretty
	if flagPretty, err := cmd.Flags().GetBool("pretty"); err == nil && flagPretty {
		pretty = true
	}

	logger := logging.NewLogger(logging.Config{Level: level, Pretty: pretty})
	slog.SetDefault(logger)
	return logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Apply a configured pipeline to input",
		Long: `Apply a named pipeline once. With --input the single value is
transformed and printed; without it, stdin is transformed line by line.`,
		RunE: runRun,
	}

	runCmd.Flags().StringP("pipeline", "p", "", "Name of the pipeline to apply (required)")
	runCmd.Flags().StringP("input", "i", "", "Input value; stdin lines are used when omitted")
	_ = runCmd.MarkFlagRequired("pipeline")

	return runCmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	name, err := cmd.Flags().GetString("pipeline")
	if err != nil {
		return fmt.Errorf("failed to get pipeline flag: %w", err)
	}

	set := runner.NewSet(logger)
	snapshot := config.NewSnapshot(cfg, 1)
	if err := set.Update(cmd.Context(), snapshot); err != nil {
		return err
	}

	entry, err := set.Select(name)
	if err != nil {
		return err
	}
	for _, id := range entry.Skipped {
		logger.Warn("identifier skipped during composition", "pipeline", name, "identifier", id)
	}

	out := cmd.OutOrStdout()

	if cmd.Flags().Changed("input") {
		input, _ := cmd.Flags().GetString("input")
		fmt.Fprintln(out, entry.Pipeline.Apply(cmd.Context(), input))
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		fmt.Fprintln(out, entry.Pipeline.Apply(cmd.Context(), scanner.Text()))
	}
	return scanner.Err()
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and compose every pipeline",
		Long: `Load the configuration, build the registry, and compose every
declared pipeline under the fail-fast policy. Unknown identifiers are
reported with their position; the command exits non-zero if any pipeline
fails to compose.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry, err := runner.BuildRegistry(cfg.Steps)
	if err != nil {
		return err
	}
	snap := registry.Freeze().Snapshot()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d transformations, %d pipelines\n", path, snap.Len(), len(cfg.Pipelines))

	failed := 0
	for _, spec := range cfg.Pipelines {
		// Validation always composes fail-fast so misconfigured
		// identifiers surface even in skip_unresolved pipelines.
		composition, err := engine.Compose(snap, spec.Steps, domain.FailFast)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  FAIL %s: %v\n", spec.Name, err)
			continue
		}
		fmt.Fprintf(out, "  ok   %s: %d stages (policy=%s)\n",
			spec.Name, composition.Pipeline.Len(), spec.UnresolvedPolicy())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pipelines failed to compose", failed, len(cfg.Pipelines))
	}
	return nil
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve configured pipelines over HTTP",
		Long: `Start the HTTP host: pipelines are composed from the configuration
file, exposed under /v1/pipelines, and recomposed automatically when the
file changes. Prometheus metrics are served on /metrics.`,
		RunE: runServe,
	}

	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	listenAddr := cfg.Server.ListenAddress
	if flagListen, _ := cmd.Flags().GetString("listen"); flagListen != "" {
		listenAddr = flagListen
	}

	ctx := cmd.Context()

	shutdownTelemetry, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "chainline",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	provider, err := config.NewFileProvider(path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Error("failed to close config provider", "error", err)
		}
	}()

	metrics := runner.NewMetrics()
	set := runner.NewSet(logger)

	if err := set.Update(ctx, provider.Current()); err != nil {
		return fmt.Errorf("initial composition failed: %w", err)
	}
	metrics.SetActivePipelines(set.Len())

	go watchConfig(ctx, provider, set, metrics, logger)

	apiHandler := runner.NewHandler(runner.HandlerConfig{
		Set:     set,
		Logger:  logger,
		Metrics: metrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", otelhttp.NewHandler(apiHandler, "chainline.api"))

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chainline serving", "addr", listenAddr, "config", path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func watchConfig(ctx context.Context, provider *config.FileProvider, set *runner.Set, metrics *runner.Metrics, logger *slog.Logger) {
	updates := provider.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if snapshot.Generation <= set.Generation() {
				continue
			}
			if err := set.Update(ctx, snapshot); err != nil {
				// Keep serving the last good set; the operator fixes
				// the file and saves again.
				logger.Error("recomposition failed, keeping previous pipelines",
					"generation", snapshot.Generation, "error", err)
				metrics.RecordReload("error")
				continue
			}
			metrics.RecordReload("ok")
			metrics.SetActivePipelines(set.Len())
			for _, name := range set.Names() {
				if entry, err := set.Select(name); err == nil {
					metrics.RecordSkipped(name, len(entry.Skipped))
				}
			}
		}
	}
}
