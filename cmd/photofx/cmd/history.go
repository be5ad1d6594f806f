package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photofx/internal/domain"
	"photofx/internal/export"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage past generations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List generations, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.open(cmd)
				if err != nil {
					return err
				}
				defer c.Close()
				jobs := c.State.History()
				if opts.json {
					return printJSON(cmd, jobs)
				}
				printJobs(cmd, jobs)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete one record by its local id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.open(cmd)
				if err != nil {
					return err
				}
				defer c.Close()
				deleted, err := c.State.DeleteJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("history record %s: %w", args[0], domain.ErrNotFound)
				}
				cmd.Printf("Deleted %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every record",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.open(cmd)
				if err != nil {
					return err
				}
				defer c.Close()
				if err := c.State.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("History cleared")
				return nil
			},
		},
		newHistoryExportCmd(opts),
	)
	return cmd
}

func newHistoryExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every result image and a manifest into a zip archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			summary, err := export.WriteHistory(cmd.Context(), f, c.State.History(), c.Images)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}
			if opts.json {
				return printJSON(cmd, summary)
			}
			cmd.Printf("Wrote %d image(s) to %s\n", summary.Included, out)
			for _, jobID := range summary.Skipped {
				cmd.Printf("Skipped %s: result unavailable\n", jobID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "photofx-history.zip", "archive path")
	return cmd
}
