package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/export"
	httptransport "github.com/example/lab-booking/internal/http"
	"github.com/example/lab-booking/internal/scheduler"
)

// exitUnavailable is returned by check when any requested period is taken.
const exitUnavailable = 2

func migrateCommand() *command {
	return &command{
		name:    "migrate",
		summary: "Apply pending schema migrations",
		usage:   "labctl migrate",
		run: func(ctx context.Context, env *environment, _ *pflag.FlagSet) error {
			_, _, store, err := env.setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			applied, err := store.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			latest := "none"
			if len(applied) > 0 {
				latest = applied[len(applied)-1].Version
			}
			fmt.Fprintf(env.stdout, "schema up to date: %d migrations applied, latest %s\n", len(applied), latest)
			return nil
		},
	}
}

func checkCommand() *command {
	var roomID, date, periods string
	return &command{
		name:    "check",
		summary: "Check whether periods of a room are free on a date",
		usage:   "labctl check --room ROOM --date YYYY-MM-DD --periods 1,2",
		flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("labctl check", pflag.ContinueOnError)
			flags.StringVar(&roomID, "room", "", "room identifier")
			flags.StringVar(&date, "date", "", "calendar date (YYYY-MM-DD)")
			flags.StringVar(&periods, "periods", "", "comma separated class periods")
			return flags
		},
		run: func(ctx context.Context, env *environment, _ *pflag.FlagSet) error {
			requested, err := scheduler.ParsePeriods(periods)
			if err != nil {
				return err
			}

			cfg, logger, store, err := env.setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			resolver, err := scheduler.NewResolver(scheduler.PeriodRange{Min: scheduler.Period(cfg.PeriodMin), Max: scheduler.Period(cfg.PeriodMax)})
			if err != nil {
				return err
			}
			service := application.NewAvailabilityService(store, store, store, resolver, logger)
			result, err := service.CheckAvailability(ctx, application.AvailabilityQuery{
				RoomID:  roomID,
				Date:    date,
				Periods: periodInts(requested),
			})
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(env.stdout, "room %s on %s, periods %s\n", result.RoomID, result.Date, result.Proposed)
			if result.Available {
				fmt.Fprintln(env.stdout, "available")
				return nil
			}
			fmt.Fprintf(env.stdout, "unavailable: periods %s already occupied\n", result.Conflicting)
			return exitError{code: exitUnavailable}
		},
	}
}

func agendaCommand() *command {
	var roomID, from, to, format, output string
	return &command{
		name:    "agenda",
		summary: "Export the occupancy of a room over a date range",
		usage:   "labctl agenda --room ROOM --from YYYY-MM-DD --to YYYY-MM-DD [--format json|yaml] [--output FILE]",
		flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("labctl agenda", pflag.ContinueOnError)
			flags.StringVar(&roomID, "room", "", "room identifier")
			flags.StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
			flags.StringVar(&to, "to", "", "last day, inclusive (YYYY-MM-DD)")
			flags.StringVarP(&format, "format", "f", "yaml", "output format: json or yaml")
			flags.StringVarP(&output, "output", "o", "", "write to FILE instead of standard output")
			return flags
		},
		run: func(ctx context.Context, env *environment, _ *pflag.FlagSet) error {
			renderFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, logger, store, err := env.setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			resolver, err := scheduler.NewResolver(scheduler.PeriodRange{Min: scheduler.Period(cfg.PeriodMin), Max: scheduler.Period(cfg.PeriodMax)})
			if err != nil {
				return err
			}
			service := application.NewAvailabilityService(store, store, store, resolver, logger)
			result, err := service.Agenda(ctx, application.AgendaQuery{RoomID: roomID, From: from, To: to})
			if err != nil {
				return describeError(err)
			}
			agenda, err := export.GroupByDay(result.RoomID, result.From, result.To, result.Entries)
			if err != nil {
				return err
			}

			if output == "" {
				return export.Render(env.stdout, renderFormat, agenda)
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(file)
			if err := export.Render(w, renderFormat, agenda); err != nil {
				_ = file.Close()
				return err
			}
			if err := w.Flush(); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		},
	}
}

func tokenCommand() *command {
	var subject, role string
	var ttl time.Duration
	return &command{
		name:    "token",
		summary: "Issue a signed API bearer token",
		usage:   "labctl token --sub USER --role teacher|admin [--ttl 12h]",
		flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("labctl token", pflag.ContinueOnError)
			flags.StringVar(&subject, "sub", "", "user identifier carried as the token subject")
			flags.StringVar(&role, "role", string(application.RoleTeacher), "teacher or admin")
			flags.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
			return flags
		},
		run: func(ctx context.Context, env *environment, _ *pflag.FlagSet) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			token, err := httptransport.IssueToken(cfg.JWTSecret, application.Principal{
				UserID: subject,
				Role:   application.Role(role),
			}, env.now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, token)
			return nil
		},
	}
}

func periodInts(periods []scheduler.Period) []int {
	out := make([]int, len(periods))
	for i, p := range periods {
		out[i] = int(p)
	}
	return out
}
