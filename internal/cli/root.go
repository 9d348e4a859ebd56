package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"eduscan/internal/app"
	"eduscan/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	// Config loads settings; tests replace it.
	Config func() config.App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ExitError carries a process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error, 1 by default.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func commandError(message string, err error) error {
	return &ExitError{Code: 2, Message: message, Err: err}
}

// NewRootCommand creates the eduscan-admin command tree.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts.Config == nil {
		opts.Config = config.Load
	}

	cmd := &cobra.Command{
		Use:   "eduscan-admin",
		Short: "Operate the school entrance attendance store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newCloseDayCommand(opts))
	cmd.AddCommand(newLedgerCommand(opts))
	cmd.AddCommand(newRemoveCommand(opts))
	cmd.AddCommand(newPurgeCommand(opts))
	return cmd
}

func (o *RootOptions) open(ctx context.Context) (*app.App, error) {
	a, err := app.Build(ctx, o.Config())
	if err != nil {
		return nil, commandError("failed to open store", err)
	}
	return a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
