package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/parkrun-stats/internal/calendar"
	"github.com/pfrederiksen/parkrun-stats/internal/export"
	"github.com/pfrederiksen/parkrun-stats/internal/filter"
	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/server"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

// filterFlags are the run filters shared by athlete commands.
type filterFlags struct {
	events    []string
	pbOnly    bool
	from      string
	to        string
	dateRange string
	last      int
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&ff.events, "event", nil, "Only runs at these events (repeatable or comma separated)")
	cmd.Flags().BoolVar(&ff.pbOnly, "pb-only", false, "Only personal-best runs")
	cmd.Flags().StringVar(&ff.from, "from", "", "Earliest run date (e.g. 2023, 2023-04, 2023-04-01)")
	cmd.Flags().StringVar(&ff.to, "to", "", "Latest run date (e.g. 2023, 2023-06, 2023-06-30)")
	cmd.Flags().StringVar(&ff.dateRange, "range", "", "Date range (e.g. 2023, 'April 2023', 2023-01-01..2023-06-30)")
	cmd.Flags().IntVar(&ff.last, "last", 0, "Only the most recent N runs")
}

// build turns the flags into a Filter. --from and --to win over --range.
func (ff *filterFlags) build() (*filter.Filter, error) {
	f := filter.New()
	for _, e := range ff.events {
		if e = strings.TrimSpace(e); e != "" {
			f.Events = append(f.Events, e)
		}
	}
	f.PBOnly = ff.pbOnly
	f.Last = ff.last

	if ff.dateRange != "" {
		from, to, err := filter.ParseDateRange(ff.dateRange)
		if err != nil {
			return nil, fmt.Errorf("--range: %w", err)
		}
		f.From, f.To = from, to
	}
	if ff.from != "" {
		from, _, err := filter.ParseDateRange(ff.from)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		f.From = from
	}
	if ff.to != "" {
		_, to, err := filter.ParseDateRange(ff.to)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		f.To = to
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func newResultsCmd(opts *rootOptions) *cobra.Command {
	var ff filterFlags
	var sortBy string

	cmd := &cobra.Command{
		Use:   "results <athlete-id>",
		Short: "List an athlete's results with PB markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat(FormatText, FormatJSON, FormatCSV)
			if err != nil {
				return err
			}
			order, err := ParseSortOrder(sortBy)
			if err != nil {
				return err
			}
			f, err := ff.build()
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			athlete, err := a.analyzer.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := athlete.View(f, stats.OrderByTime, opts.now())
			if err != nil {
				return err
			}
			rows := view.Display
			sortDisplay(rows, order)
			return WriteResults(cmd.OutOrStdout(), athlete, view, rows, format)
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", string(SortByDate), "Sort order: date, event or time")
	return cmd
}

func newAttendanceCmd(opts *rootOptions) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "attendance <athlete-id>",
		Short: "Show monthly attendance as a year by month grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat(FormatText, FormatJSON, FormatCSV)
			if err != nil {
				return err
			}
			f, err := ff.build()
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			athlete, err := a.analyzer.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := athlete.View(f, stats.OrderByTime, opts.now())
			if err != nil {
				return err
			}
			return WriteAttendance(cmd.OutOrStdout(), view.Monthly, format)
		},
	}
	ff.register(cmd)
	return cmd
}

func newLocationsCmd(opts *rootOptions) *cobra.Command {
	var ff filterFlags
	var orderBy string
	var withFeed bool

	cmd := &cobra.Command{
		Use:   "locations <athlete-id>",
		Short: "Rank the events an athlete has run by fastest time or visits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat(FormatText, FormatJSON, FormatCSV)
			if err != nil {
				return err
			}
			order, err := stats.ParseOrder(orderBy)
			if err != nil {
				return err
			}
			f, err := ff.build()
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			athlete, err := a.analyzer.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := athlete.View(f, order, opts.now())
			if err != nil {
				return err
			}

			var idx *location.Index
			if withFeed {
				locs, err := a.locations.Fetch(cmd.Context())
				if err != nil {
					a.log.Warn("location feed unavailable", logger.Fields{"error": err.Error()})
				} else {
					idx = location.NewIndex(locs)
				}
			}
			return WriteLocations(cmd.OutOrStdout(), view.Locations, idx, format)
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&orderBy, "order-by", string(stats.OrderByTime), "Ranking: time (fastest first) or events (most visited first)")
	cmd.Flags().BoolVar(&withFeed, "with-coordinates", false, "Attach coordinates from the event-location feed")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var ff filterFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export <athlete-id>",
		Short: "Write results to a CSV or iCalendar file",
		Long: `Write the display projection of an athlete's results to a file.
--format csv (default for export) writes the flat-file download;
--format ics writes one calendar event per run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := OutputFormat(strings.ToLower(opts.format))
			if !cmd.Flags().Changed("format") {
				format = FormatCSV
			}
			if format != FormatCSV && format != FormatICS {
				return fmt.Errorf("invalid format: %s (must be 'csv' or 'ics')", opts.format)
			}
			f, err := ff.build()
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			athlete, err := a.analyzer.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := athlete.View(f, stats.OrderByTime, opts.now())
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = export.Filename(athlete.ID)
				if format == FormatICS {
					path = strings.TrimSuffix(path, ".csv") + ".ics"
				}
			}

			w := cmd.OutOrStdout()
			if path != "-" {
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				defer file.Close()
				w = file
			}

			if format == FormatICS {
				cal := calendar.Build(athlete.ID, athlete.Profile, view.Rows, calendar.Options{Stamp: athlete.FetchedAt, URL: athlete.URL})
				err = calendar.Write(w, cal)
			} else {
				err = export.WriteCSV(w, view.Display)
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			if path != "-" {
				a.log.Info("export written", logger.Fields{"path": path, "rows": len(view.Rows)})
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d runs to %s\n", len(view.Rows), path)
			}
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file ('-' for stdout, default parkrun_results_<id>.csv)")
	return cmd
}

func newFeedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed [event-name]",
		Short: "List event locations from the parkrun event feed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat(FormatText, FormatJSON, FormatCSV)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			locs, err := a.locations.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			idx := location.NewIndex(locs)

			selected := idx.All()
			if len(args) == 1 {
				loc, ok := idx.Lookup(args[0])
				if !ok {
					return fmt.Errorf("event %q: %w", args[0], errNoSuchEvent)
				}
				selected = []location.Location{loc}
			}
			return WriteFeed(cmd.OutOrStdout(), selected, format)
		},
	}
	return cmd
}

func newEventCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event <event-name>",
		Short: "Show the latest results of one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat(FormatText, FormatJSON, FormatCSV)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			res, err := a.analyzer.EventResults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return WriteEventResults(cmd.OutOrStdout(), res, format)
		},
	}
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Addr
			}
			srv := server.New(a.analyzer, a.locations, server.WithLogger(a.log))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
