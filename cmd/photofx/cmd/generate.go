package cmd

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp"

	"photofx/internal/container"
	"photofx/internal/domain"
	"photofx/internal/generation"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Start a generation and wait for its result",
	}
	cmd.AddCommand(newGeneratePhotoCmd(opts), newGeneratePromptCmd(opts))
	return cmd
}

func newGeneratePhotoCmd(opts *rootOptions) *cobra.Command {
	var (
		templateID int
		file       string
	)
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Apply a template effect to a photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := decodeImageFile(file)
			if err != nil {
				return err
			}
			c, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			effect, err := lookupEffect(cmd, c, templateID)
			if err != nil {
				return err
			}
			if !effect.IsEnabled {
				return fmt.Errorf("template %d (%s) is disabled", effect.ID, effect.Title)
			}
			if err := c.State.CheckEligibility(); err != nil {
				return err
			}
			cmd.PrintErrf("Generating %q...\n", effect.Title)
			res, err := c.Generations.GenerateWithPhoto(cmd.Context(), img, effect)
			return report(cmd, opts, res, err)
		},
	}
	cmd.Flags().IntVar(&templateID, "template", 0, "effect id from the catalog")
	cmd.Flags().StringVarP(&file, "file", "f", "", "photo to transform (jpeg, png, gif or webp)")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newGeneratePromptCmd(opts *rootOptions) *cobra.Command {
	var styleID int
	cmd := &cobra.Command{
		Use:   "prompt TEXT...",
		Short: "Generate an image from a text prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if strings.TrimSpace(prompt) == "" {
				return domain.ErrInvalidPrompt
			}
			c, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			var style *domain.TemplateEffect
			if styleID > 0 {
				effect, err := lookupEffect(cmd, c, styleID)
				if err != nil {
					return err
				}
				style = &effect
			} else if err := c.State.RefreshTokens(cmd.Context()); err != nil {
				c.Logger.Warn().Err(err).Msg("token refresh failed; using cached balance")
			}
			if err := c.State.CheckEligibility(); err != nil {
				return err
			}
			cmd.PrintErrln("Generating...")
			res, err := c.Generations.GenerateWithPrompt(cmd.Context(), prompt, style)
			return report(cmd, opts, res, err)
		},
	}
	cmd.Flags().IntVar(&styleID, "style", 0, "optional effect id whose title styles the prompt")
	return cmd
}

// lookupEffect starts a session, which also refreshes the token balance, and
// finds id in the catalog.
func lookupEffect(cmd *cobra.Command, c *container.Container, id int) (domain.TemplateEffect, error) {
	cat, err := c.State.StartSession(cmd.Context())
	if err != nil {
		return domain.TemplateEffect{}, err
	}
	effect, ok := cat.EffectByID(id)
	if !ok {
		return domain.TemplateEffect{}, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	return effect, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &domain.EncodingError{Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return img, nil
}

func report(cmd *cobra.Command, opts *rootOptions, res generation.Result, err error) error {
	if err != nil {
		var timeout *domain.TimeoutError
		if errors.As(err, &timeout) {
			cmd.PrintErrf("Still running; check later with: photofx resume %s\n", timeout.JobID)
		}
		return errors.New(domain.UserMessage(err))
	}
	if opts.json {
		return printJSON(cmd, res)
	}
	printResult(cmd, res)
	return nil
}
