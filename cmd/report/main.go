package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/deppfellow/orders-report/internal/config"
	"github.com/deppfellow/orders-report/internal/database"
	"github.com/deppfellow/orders-report/internal/errs"
	"github.com/deppfellow/orders-report/internal/logger"
	"github.com/deppfellow/orders-report/internal/report"
	"github.com/deppfellow/orders-report/internal/sqlerr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// options holds the CLI flags.
type options struct {
	envFile    string
	jsonOutput bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "report",
		Short: "Create demo users and orders, then print order totals per user",
		Long: `report connects to PostgreSQL using DB_HOST, DB_PORT, DB_NAME, DB_USER and
DB_PASSWORD (optionally read from a settings file), inserts three users and
three orders, and prints the total order amount of every user.

The users and orders tables must already exist.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultSettingsFile, "settings file loaded into the environment before reading DB_* variables")
	rootCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the totals as JSON")

	return rootCmd
}

// run never fails the command: every error ends up as one printed line.
func run(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		fmt.Fprintln(out, report.Describe(err))
		return nil
	}

	// keep stdout clean for the JSON document
	logOut := out
	if opts.jsonOutput {
		logOut = cmd.ErrOrStderr()
	}

	log, closer, err := logger.New(cfg.Observability, logOut)
	if err != nil {
		fmt.Fprintln(out, report.Describe(err))
		return nil
	}
	defer closeLog(log, closer)

	format := report.FormatText
	if opts.jsonOutput {
		format = report.FormatJSON
	}

	err = database.WithSession(ctx, cfg, log, func(d *database.Driver) error {
		return report.Run(ctx, d, out, format)
	})
	if err != nil {
		log.Debug().
			Err(err).
			Stringer("kind", errs.Classify(err)).
			Str("sql_code", string(sqlerr.ErrCode(err))).
			Msg("report failed")
		fmt.Fprintln(out, report.Describe(err))
	}

	return nil
}

// closeLog releases the log file. A failure is logged, which still reaches
// the console writer.
func closeLog(log *zerolog.Logger, closer io.Closer) {
	if err := closer.Close(); err != nil {
		log.Debug().Err(err).Msg("closing log file failed")
	}
}
