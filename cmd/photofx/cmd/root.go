package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"photofx/internal/container"
	"photofx/internal/infra"
)

type rootOptions struct {
	stateDir string
	verbose  bool
	json     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "photofx",
		Short: "photofx applies AI photo effects and generates images from text",
		Long: `photofx drives the photo effect backend from the terminal.

It shares its state (history, token balance, user id) with the companion
daemon, so jobs started in one can be inspected or resumed from the other.

Common workflows:

  Browse effects:
    photofx catalog

  Apply an effect to a photo:
    photofx generate photo --template 42 --file me.jpg

  Generate from text, optionally styled by an effect:
    photofx generate prompt --style 7 "a cat on a skateboard"

  Inspect and manage history:
    photofx history list
    photofx history delete <id>

  Resume tracking of a job that was interrupted:
    photofx resume <job-id>

Configuration is read from the environment (and .env):
  PHOTOFX_API_TOKEN     bearer token for the backend (required)
  PHOTOFX_API_BASE_URL  backend endpoint
  STATE_DIR             where history and tokens are kept (default ./state)
  DATABASE_URL          keep state in Postgres instead`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.stateDir, "state-dir", "", "state directory (overrides STATE_DIR)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newCatalogCmd(opts),
		newGenerateCmd(opts),
		newHistoryCmd(opts),
		newResumeCmd(opts),
	)
	return root
}

// Execute runs the CLI with ctx bound to every command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// open loads configuration and builds the shared component graph. Logs go
// to stderr so stdout stays parseable.
func (o *rootOptions) open(cmd *cobra.Command) (*container.Container, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	if o.stateDir != "" {
		cfg.StateDir = o.stateDir
	}
	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	} else if level == "" {
		level = "warn"
	}
	logger := infra.NewLogger(cfg.AppEnv, level, cmd.ErrOrStderr())

	c, err := container.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return c, nil
}
