package commands

import (
	"catalog-scraper/internal/components/chrono"
	"catalog-scraper/internal/components/telemetry"
	"catalog-scraper/pkg/configutil"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	configPath  *string
	verbose     *bool
	metricsAddr *string
)

// set up by the root command before any subcommand runs
var (
	cfg       Config
	clock     chrono.API
	tel       telemetry.API
	providers telemetry.Telemetry
	logger    io.Closer
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file, <name>.local.json5 next to it overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug reports.")
	metricsAddr = rootCmd.PersistentFlags().String("metrics-addr", "", "Serve prometheus metrics on this address (ex. :9090).")
}

var rootCmd = &cobra.Command{
	Use:   "catalog-cli",
	Short: "catalog-cli crawls the CUHK course catalog into per-subject JSON files.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = configutil.ReadOptional(*configPath, defaultConfig)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if *verbose {
			cfg.Log.Verbose = true
		}
		if *metricsAddr != "" {
			cfg.MetricsAddr = *metricsAddr
		}

		logger = telemetry.InitSlog(cfg.Log)

		providers, err = telemetry.Setup(cmd.Context(), "catalog-cli", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		if providers.MeterProvider != nil {
			telemetry.InstrumentPerfStats(cmd.Context(), time.Minute)
		}

		tel = telemetry.SlogAPI{}
		if cfg.MetricsAddr != "" {
			tel = telemetry.MultiAPI{tel, telemetry.NewPrometheusAPI(prometheus.DefaultRegisterer)}
			telemetry.ExposeMetrics(cmd.Context(), cfg.MetricsAddr)
		}

		clock, err = chrono.NewStandardImpl(chrono.CatalogZone)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
		logger.Close()
	},
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
