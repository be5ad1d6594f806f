package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"photofx/internal/domain"
)

func newResumeCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "resume [JOB_ID]",
		Short: "Track a job again until it finishes",
		Long:  `Poll a job that was interrupted (or every in-progress job with --all) and record its final state in history.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("--all takes no job id")
			}
			if !all && len(args) != 1 {
				return errors.New("a job id or --all is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if all {
				pending := c.State.InProgress()
				c.Generations.ResumeInFlight(cmd.Context())
				cmd.Printf("Resumed %d job(s)\n", len(pending))
				printJobs(cmd, c.State.History())
				return nil
			}
			if _, ok := c.State.Job(args[0]); !ok {
				return fmt.Errorf("job %s: %w", args[0], domain.ErrNotFound)
			}
			res, err := c.Generations.ResumeTracking(cmd.Context(), args[0])
			return report(cmd, opts, res, err)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "resume every in-progress job")
	return cmd
}
