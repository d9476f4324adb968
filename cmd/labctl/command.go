package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/config"
	"github.com/example/lab-booking/internal/logging"
	"github.com/example/lab-booking/internal/persistence/sqlstore"
)

// environment carries the process dependencies every command shares.
type environment struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
	now        func() time.Time
}

// command is one labctl subcommand.
type command struct {
	name    string
	summary string
	usage   string
	// flags returns a fresh flag set; nil means the command takes no flags.
	flags func() *pflag.FlagSet
	run   func(ctx context.Context, env *environment, flags *pflag.FlagSet) error
}

// exitError carries a process exit code without printing anything further.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// ExitCode returns the process exit code.
func (e exitError) ExitCode() int { return e.code }

func commands() []*command {
	return []*command{
		migrateCommand(),
		checkCommand(),
		agendaCommand(),
		tokenCommand(),
	}
}

func (env *environment) execute(ctx context.Context, args []string) error {
	if len(args) == 0 || isHelpFlag(args[0]) {
		env.printUsage()
		if len(args) == 0 {
			return errors.New("command required")
		}
		return nil
	}

	var cmd *command
	for _, candidate := range commands() {
		if candidate.name == args[0] {
			cmd = candidate
			break
		}
	}
	if cmd == nil {
		return fmt.Errorf("unknown command %q\n\nRun 'labctl --help' for usage.", args[0])
	}

	flags := pflag.NewFlagSet("labctl "+cmd.name, pflag.ContinueOnError)
	if cmd.flags != nil {
		flags = cmd.flags()
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			env.printCommandHelp(cmd, flags)
			return nil
		}
		return fmt.Errorf("%s\n\nRun 'labctl %s --help' for usage.", err, cmd.name)
	}
	if rest := flags.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return cmd.run(ctx, env, flags)
}

func (env *environment) printUsage() {
	fmt.Fprintln(env.stderr, "labctl manages the lab booking database.")
	fmt.Fprintln(env.stderr)
	fmt.Fprintln(env.stderr, "Usage:\n  labctl <command> [flags]")
	fmt.Fprintln(env.stderr)
	fmt.Fprintln(env.stderr, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(env.stderr, "  %-8s %s\n", cmd.name, cmd.summary)
	}
}

func (env *environment) printCommandHelp(cmd *command, flags *pflag.FlagSet) {
	fmt.Fprintf(env.stderr, "%s\n\nUsage:\n  %s\n", cmd.summary, cmd.usage)
	if usage := flags.FlagUsages(); usage != "" {
		fmt.Fprintf(env.stderr, "\nFlags:\n%s", usage)
	}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// setup loads configuration and opens the configured store.
func (env *environment) setup(ctx context.Context) (config.Config, *slog.Logger, *sqlstore.Store, error) {
	cfg, err := env.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := logging.New(env.stderr, cfg.LogLevel)

	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	store, err := sqlstore.Open(ctx, dialect, cfg.DBDSN, sqlstore.WithLogger(logger))
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, store, nil
}

// describeError renders validation field errors in a stable order.
func describeError(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || len(vErr.FieldErrors) == 0 {
		return err
	}
	fields := make([]string, 0, len(vErr.FieldErrors))
	for field := range vErr.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+vErr.FieldErrors[field])
	}
	return &inputError{summary: "invalid input: " + strings.Join(parts, "; "), err: err}
}

// inputError prints field errors while keeping the original chain matchable.
type inputError struct {
	summary string
	err     error
}

func (e *inputError) Error() string { return e.summary }

func (e *inputError) Unwrap() error { return e.err }
