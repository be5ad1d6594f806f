package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List template categories and their effects",
		Long:  `Log in, refresh the token balance and print the effect catalog. Effect IDs are what "generate photo --template" and "generate prompt --style" expect.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if lang != "" {
				c.State.SetLanguage(lang)
			}
			cat, err := c.State.StartSession(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, cat)
			}

			cmd.Printf("Tokens: %d\n\n", c.State.TokenBalance())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			for _, category := range cat.Categories {
				fmt.Fprintf(tw, "%s\t\t\n", category.Title)
				for _, eff := range category.Effects {
					state := ""
					if !eff.IsEnabled {
						state = "(disabled)"
					}
					fmt.Fprintf(tw, "  %d\t%s\t%s\n", eff.ID, eff.Title, state)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "catalog language (defaults to PHOTOFX_LANG)")
	return cmd
}
