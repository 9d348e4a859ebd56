package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eduscan/internal/directory"
	"eduscan/internal/entrance"
)

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Enroll students from a YAML roster",
		Long: `Enroll every student listed in a roster file. Students already in the
directory are skipped.

Example:
  eduscan-admin seed --file students.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := directory.LoadYAML(file)
			if err != nil {
				return commandError("failed to read roster", err)
			}
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var added, skipped int
			for _, s := range roster {
				_, err := a.Controller.Enroll(ctx, s)
				switch {
				case errors.Is(err, directory.ErrDuplicate):
					skipped++
				case err != nil:
					return commandError("enroll "+s.ID, err)
				default:
					added++
				}
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"added": added, "skipped": skipped})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enrolled %d students, %d already present\n", added, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "roster YAML file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCloseDayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close-day",
		Short: "Mark every student still pending today as absent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Controller.CloseDay(ctx)
			if err != nil {
				return commandError("day close failed", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d marked absent (present %d, absent %d, pending %d)\n",
				res.Date, res.Closed, res.Counts.Present, res.Counts.Absent, res.Counts.Pending)
			return nil
		},
	}
}

func newLedgerCommand(opts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the attendance ledger of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Controller.Ledger(ctx, date)
			if err != nil {
				return commandError("failed to load ledger", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			printLedger(cmd, view)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

func printLedger(cmd *cobra.Command, view entrance.LedgerView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  total %d  present %d  absent %d  pending %d\n",
		view.Date, view.Counts.Total, view.Counts.Present, view.Counts.Absent, view.Counts.Pending)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tTIME")
	for _, e := range view.Entries {
		t := "-"
		if e.Time != nil {
			t = *e.Time
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.StudentID, e.Student.Name, e.Status, t)
	}
	_ = tw.Flush()
}

func newRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a student and every record of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Controller.Remove(ctx, args[0]); err != nil {
				if errors.Is(err, entrance.ErrStudentNotFound) {
					return &ExitError{Code: 1, Message: "no such student", Err: err}
				}
				return commandError("remove failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newPurgeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <date>",
		Short: "Delete the stored ledger of a past day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Controller.Purge(ctx, args[0]); err != nil {
				if errors.Is(err, entrance.ErrPurgeToday) {
					return &ExitError{Code: 1, Message: "refusing to purge today", Err: err}
				}
				return commandError("purge failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", args[0])
			return nil
		},
	}
}
