// Package cli implements the bulkmail command line: the HTTP server and
// one-shot batch sends from local files.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bulkmail/internal/config"
	"github.com/dmitrymomot/bulkmail/internal/dispatch"
	"github.com/dmitrymomot/bulkmail/internal/recipients"
	"github.com/dmitrymomot/bulkmail/pkg/logger"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1 // session or unexpected errors
	ExitValidation = 2 // bad input, nothing was sent
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func validationError(err error) error { return &exitError{code: ExitValidation, err: err} }

type globalFlags struct {
	configFile string
	verbose    bool
	debug      bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "bulkmail",
		Short: "Personalized bulk email from a spreadsheet",
		Long: `bulkmail sends one personalized email per row of a CSV or Excel
recipient table, paced and over a single mail session, and keeps a
per-recipient delivery log.

Example:
  bulkmail serve                                   # HTTP API on :5000
  bulkmail send --table people.xlsx --message-file note.md --attach flyer.png
  bulkmail check --table people.csv --csv          # parse and print recipients`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "YAML config file (env vars override it)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every delivery")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug output")

	root.AddCommand(
		newServeCmd(g),
		newSendCmd(g),
		newCheckCmd(g),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, dispatch.ErrValidation), errors.Is(err, recipients.ErrInvalidTable):
		return ExitValidation
	default:
		return ExitFailure
	}
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, validationError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, validationError(err)
	}
	return cfg, nil
}

// consoleLogger writes human-readable logs to w.
func (g *globalFlags) consoleLogger(w io.Writer) *slog.Logger {
	level := "warn"
	switch {
	case g.debug:
		level = "debug"
	case g.verbose:
		level = "info"
	}
	if w == nil {
		w = os.Stderr
	}
	return logger.New(logger.Config{Output: w, Level: level, Format: logger.FormatConsole},
		logger.BatchIDExtractor())
}
