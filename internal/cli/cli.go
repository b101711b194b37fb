package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/parkrun-stats/internal/analysis"
	"github.com/pfrederiksen/parkrun-stats/internal/config"
	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitNotFound = 3
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	format     string
	strict     bool
	verbose    bool
	now        func() time.Time
}

// app is the wired pipeline for one command invocation.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	fetcher   *scraper.Client
	analyzer  *analysis.Analyzer
	locations *location.Client
}

func (o *rootOptions) newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Context(), o.configPath)
	if err != nil {
		return nil, err
	}
	if o.strict {
		cfg.Strict = true
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	if o.verbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	fetcher := scraper.New(
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithTimeout(cfg.Timeout),
		scraper.WithRateLimit(cfg.RequestsPerSecond),
		scraper.WithLogger(log),
	)

	log.Debug("configuration loaded", logger.Fields{
		"base_url":   cfg.BaseURL,
		"events_url": cfg.EventsURL,
		"strict":     cfg.Strict,
	})

	return &app{
		cfg:       cfg,
		log:       log,
		fetcher:   fetcher,
		analyzer:  analysis.New(fetcher, cfg.BaseURL, analysis.WithStrict(cfg.Strict), analysis.WithLogger(log)),
		locations: location.NewClient(fetcher, cfg.EventsURL),
	}, nil
}

func (o *rootOptions) outputFormat(allowed ...OutputFormat) (OutputFormat, error) {
	return ParseFormat(o.format, allowed...)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "parkrun-stats",
		Short: "Analyze an athlete's parkrun results",
		Long: `A CLI tool to fetch an athlete's public parkrun results and derive
personal bests, per-location statistics and monthly attendance.
Every invocation fetches fresh data; nothing is stored.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Define flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default $PARKRUN_CONFIG)")
	pf.StringVar(&opts.format, "format", "text", "Output format: text, json or csv")
	pf.BoolVar(&opts.strict, "strict", false, "Fail on malformed or duplicate result rows instead of dropping them")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newResultsCmd(opts),
		newAttendanceCmd(opts),
		newLocationsCmd(opts),
		newExportCmd(opts),
		newFeedCmd(opts),
		newEventCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, scraper.ErrNotFound):
		return ExitNotFound
	default:
		return ExitError
	}
}

// Run executes the root command with args and returns the exit status.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}
