package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cyp0633/librecur/civil"
	"github.com/cyp0633/librecur/icalendar"
	"github.com/cyp0633/librecur/internal/schedule"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/spf13/cobra"
)

// Environment variables read for flag defaults, possibly from .env.
const (
	envSchedule = "RECUR_SCHEDULE"
	envZone     = "RECUR_ZONE"
	envLogLevel = "RECUR_LOG_LEVEL"
)

type app struct {
	schedulePath string
	zone         string
	logLevel     string

	logger   *slog.Logger
	resolver *civil.Resolver
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "recur",
		Short: "Evaluate recurrence schedules",
		Long: `recur expands the rules and dates of a YAML schedule file into
occurrences, converts wall-clock readings into zones and exports
schedules as iCalendar or xCal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.schedulePath, "schedule", "s", envOr(envSchedule, "schedule.yaml"), "Schedule file (env "+envSchedule+")")
	flags.StringVarP(&a.zone, "zone", "z", os.Getenv(envZone), "Zone for time arguments, defaults to the schedule's zone (env "+envZone+")")
	flags.StringVar(&a.logLevel, "log-level", envOr(envLogLevel, "warn"), "Log level: debug, info, warn or error (env "+envLogLevel+")")

	rootCmd.AddCommand(a.betweenCmd(), a.nextCmd(), a.prevCmd(), a.localizeCmd(), a.exportCmd())
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *app) setup(stderr io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	a.resolver = civil.NewResolver(civil.WithLogger(a.logger))
	return nil
}

// load reads the schedule and returns its set together with the zone used
// for time arguments.
func (a *app) load() (*recurrence.Set, civil.Zone, error) {
	f, err := schedule.Load(a.schedulePath)
	if err != nil {
		return nil, nil, err
	}
	set, err := f.Build(a.resolver)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("schedule loaded", "path", a.schedulePath,
		"rules", len(f.Rules), "exrules", len(f.ExRules), "dates", len(f.Dates), "exdates", len(f.ExDates))

	name := a.zone
	if name == "" {
		name = f.Zone
	}
	if name == "" {
		return set, nil, nil
	}
	zone, err := a.resolver.Lookup(name)
	if err != nil {
		set.Close()
		return nil, nil, err
	}
	return set, zone, nil
}

func (a *app) betweenCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "between <from> <to>",
		Short: "List occurrences from <from> up to but excluding <to>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, zone, err := a.load()
			if err != nil {
				return err
			}
			defer set.Close()

			from, err := civil.ParseISO(args[0], zone)
			if err != nil {
				return err
			}
			to, err := civil.ParseISO(args[1], zone)
			if err != nil {
				return err
			}
			occurrences := set.Between(from, to)
			if limit > 0 && len(occurrences) > limit {
				occurrences = occurrences[:limit]
			}
			for _, t := range occurrences {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Print at most this many occurrences (0 for all)")
	return cmd
}

func (a *app) nextCmd() *cobra.Command {
	var inclusive bool
	var count int
	cmd := &cobra.Command{
		Use:   "next <time>",
		Short: "Print the occurrences following <time>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, zone, err := a.load()
			if err != nil {
				return err
			}
			defer set.Close()

			t, err := civil.ParseISO(args[0], zone)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				next, ok := set.After(t, inclusive && i == 0).Get()
				if !ok {
					break
				}
				fmt.Fprintln(cmd.OutOrStdout(), next)
				t = next
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inclusive, "inclusive", false, "Include an occurrence at <time>")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of occurrences to print")
	return cmd
}

func (a *app) prevCmd() *cobra.Command {
	var inclusive bool
	cmd := &cobra.Command{
		Use:   "prev <time>",
		Short: "Print the last occurrence before <time>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, zone, err := a.load()
			if err != nil {
				return err
			}
			defer set.Close()

			t, err := civil.ParseISO(args[0], zone)
			if err != nil {
				return err
			}
			prev, ok := set.Before(t, inclusive).Get()
			if !ok {
				return errors.New("no earlier occurrence")
			}
			fmt.Fprintln(cmd.OutOrStdout(), prev)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inclusive, "inclusive", false, "Include an occurrence at <time>")
	return cmd
}

func (a *app) localizeCmd() *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "localize <time>",
		Short: "Attach --zone to a wall-clock reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.zone == "" {
				return errors.New("localize needs --zone or " + envZone)
			}
			p, err := civil.ParsePolicy(policy)
			if err != nil {
				return err
			}
			zone, err := a.resolver.Lookup(a.zone)
			if err != nil {
				return err
			}
			naive, err := civil.ParseISO(args[0], nil)
			if err != nil {
				return err
			}

			res, _ := civil.Resolve(naive.WithZone(zone))
			a.logger.Debug("resolved reading", "time", naive, "zone", zone.Name(), "resolution", res)
			t, err := civil.Localize(naive, zone, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
	cmd.Flags().StringVarP(&policy, "policy", "p", civil.RequireUnambiguous.String(),
		"Disambiguation policy: require-unambiguous, prefer-standard or prefer-daylight")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var format string
	var opts icalendar.EventOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the schedule as an iCalendar or xCal event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, _, err := a.load()
			if err != nil {
				return err
			}
			defer set.Close()

			switch format {
			case "ics":
				ics, err := icalendar.Marshal(set, opts)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), ics)
				return err
			case "xcal":
				doc, err := icalendar.EncodeXCal(set, opts)
				if err != nil {
					return err
				}
				doc.Indent(2)
				_, err = doc.WriteTo(cmd.OutOrStdout())
				return err
			default:
				return fmt.Errorf("unknown export format %q", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "ics", "Output format: ics or xcal")
	cmd.Flags().StringVar(&opts.UID, "uid", "", "Event UID, generated when empty")
	cmd.Flags().StringVar(&opts.Summary, "summary", "", "Event summary")
	return cmd
}
