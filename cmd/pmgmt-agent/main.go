package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pmgmt/agent/internal/agent"
	"github.com/pmgmt/agent/internal/backend"
	"github.com/pmgmt/agent/internal/config"
	"github.com/pmgmt/agent/internal/logging"
	"github.com/pmgmt/agent/internal/sink"
)

var (
	version = "0.1.0"
	cfgFile string

	flagSendToAPI bool
	flagAPIURL    string
	flagAPIKey    string
	flagHostname  string
	flagFormat    string
	flagS3Bucket  string
	flagTimeout   int
)

var rootCmd = &cobra.Command{
	Use:   "pmgmt-agent",
	Short: "Package update inventory agent",
	Long:  `pmgmt-agent queries the host's package manager for pending updates and reports them to stdout, a collector API, or S3.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for pending package updates and deliver a report",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runScan(cmd))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pmgmt-agent v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/pmgmt-agent/agent.yaml)")

	scanCmd.Flags().BoolVar(&flagSendToAPI, "send-to-api", false, "deliver the report to the collector API instead of stdout")
	scanCmd.Flags().StringVar(&flagAPIURL, "api-url", "", "collector API endpoint")
	scanCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "collector API key")
	scanCmd.Flags().StringVar(&flagHostname, "hostname", "", "hostname to report (default: auto-detect)")
	scanCmd.Flags().StringVar(&flagFormat, "format", "", "stdout report format: json or yaml")
	scanCmd.Flags().StringVar(&flagS3Bucket, "s3-bucket", "", "S3 bucket to upload the report to")
	scanCmd.Flags().IntVar(&flagTimeout, "timeout", 0, "scan timeout in seconds")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command) int {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	applyFlags(cmd, cfg)

	// Logs go to stderr so a stdout report stays machine-readable.
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	log := logging.L("main")
	cfg.Validate()

	dest, err := selectSink(cfg)
	if err != nil {
		log.Error("invalid delivery configuration", logging.KeyError, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := agent.New(cfg, dest).Run(ctx)
	if err != nil {
		logScanError(log, err)
		return 1
	}

	log.Info("scan complete", "totalUpdates", rep.TotalUpdates, "securityUpdates", rep.SecurityUpdates)
	return 0
}

// applyFlags overlays explicitly set command-line flags onto the loaded
// config. Flags win over file and environment values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = flagAPIURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if cmd.Flags().Changed("hostname") {
		cfg.Hostname = flagHostname
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = flagFormat
	}
	if cmd.Flags().Changed("s3-bucket") {
		cfg.S3Bucket = flagS3Bucket
	}
	if cmd.Flags().Changed("timeout") {
		cfg.ScanTimeoutSeconds = flagTimeout
	}
}

// selectSink picks the delivery target: the collector API when requested,
// S3 when a bucket is configured, stdout otherwise.
func selectSink(cfg *config.Config) (sink.Sink, error) {
	switch {
	case flagSendToAPI:
		if err := cfg.ValidateAPIDelivery(); err != nil {
			return nil, err
		}
		return sink.NewAPISink(cfg.APIURL, cfg.APIKey), nil
	case cfg.S3Bucket != "":
		if err := cfg.ValidateS3Delivery(); err != nil {
			return nil, err
		}
		return sink.NewS3Sink(cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, cfg.S3AccessKeyID, cfg.S3SecretAccessKey), nil
	default:
		return &sink.StdoutSink{W: os.Stdout, Format: cfg.OutputFormat}, nil
	}
}

func logScanError(log *slog.Logger, err error) {
	var (
		execErr        *backend.ExecError
		parseErr       *backend.ParseError
		unsupportedErr *backend.UnsupportedDistroError
		deliveryErr    *sink.DeliveryError
	)
	switch {
	case errors.As(err, &unsupportedErr):
		log.Error("no backend for this distribution", logging.KeyDistro, string(unsupportedErr.Family))
	case errors.As(err, &execErr):
		log.Error("backend command failed", logging.KeyBackend, execErr.Tool, "timeout", execErr.Timeout, logging.KeyError, err)
	case errors.As(err, &parseErr):
		log.Error("backend output could not be parsed", logging.KeyBackend, parseErr.Tool, logging.KeyError, err)
	case errors.As(err, &deliveryErr):
		log.Error("report delivery failed", "target", deliveryErr.Target, logging.KeyError, err)
	default:
		log.Error("scan failed", logging.KeyError, err)
	}
}
