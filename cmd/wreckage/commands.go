package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iopred/wreckage"
)

const confirmPrompt = "Are you SURE you want to introduce this level of chaos into your life? [y/N] "

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	outputStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the built in personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range wreckage.Personas() {
				fmt.Fprintf(out, "%s (%d rules)\n", p, len(wreckage.Lookup(p)))
			}
			return nil
		},
	}
}

func newRewriteCmd() *cobra.Command {
	var (
		persona string
		remote  bool
	)
	cmd := &cobra.Command{
		Use:   "rewrite [text]",
		Short: "Rewrite text in a persona's voice",
		Long: `Rewrites text, read from the arguments or standard input, in the voice of a
persona. With --remote the configured collaborator is tried first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			out := wreckage.Rewrite(wreckage.Persona(persona), text)
			if remote {
				if r := newCollaborators(cmd.Context()).rewriter; r != nil {
					if got, err := r.Rewrite(cmd.Context(), persona, text); err == nil && got != "" {
						out = got
					} else {
						logger.Debug("remote rewrite unavailable", zap.Error(err))
					}
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&persona, "persona", "p", string(wreckage.PersonaCorporateRobot), "persona to rewrite as")
	cmd.Flags().BoolVar(&remote, "remote", false, "try the configured collaborator first")
	return cmd
}

func newComposeCmd() *cobra.Command {
	var (
		imageURL string
		outPath  string
		copyIt   bool
	)
	cmd := &cobra.Command{
		Use:   "compose [text]",
		Short: "Compose an image and text into a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			composer, err := newComposer()
			if err != nil {
				return err
			}
			artifact, err := composer.Compose(cmd.Context(), imageURL, text)
			if err != nil {
				return fmt.Errorf("compose: %w", err)
			}
			defer artifact.Release()

			if copyIt {
				outcome, err := newDelivery().CopyToClipboard(cmd.Context(), artifact)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), noteStyle.Render("artifact "+outcome.String()))
				return nil
			}
			if err := os.WriteFile(outPath, artifact.PNG, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", outPath, artifact.Width, artifact.Height)
			return nil
		},
	}
	cmd.Flags().StringVarP(&imageURL, "image", "i", "", "image URL to place above the text")
	cmd.Flags().StringVarP(&outPath, "out", "o", "wreckage.png", "output PNG path")
	cmd.Flags().BoolVar(&copyIt, "copy", false, "copy to the clipboard instead of writing --out")
	return cmd
}

func newWreckCmd() *cobra.Command {
	var (
		persona     string
		yes         bool
		share       bool
		copyText    bool
		advice      bool
		title       string
		description string
	)
	cmd := &cobra.Command{
		Use:   "wreck text...",
		Short: "Rewrite text, compose it with a meme and deliver the image",
		Long: `Runs the whole flow: confirm, rewrite, pick a meme, compose and deliver.
Text comes from the arguments so standard input stays free for the prompt.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			composer, err := newComposer()
			if err != nil {
				return err
			}
			col := newCollaborators(ctx)
			w := &wreckage.Wrecker{
				Remote:   col.rewriter,
				Memes:    col.memes,
				Advisor:  col.advisor,
				Composer: composer,
				Logger:   logger,
			}

			req := wreckage.Request{Persona: wreckage.Persona(persona), Text: text}
			if !yes {
				req.Confirm = confirmer(cmd)
			}
			res, err := w.Wreck(ctx, req)
			if errors.Is(err, wreckage.ErrAborted) {
				fmt.Fprintln(out, noteStyle.Render("Coward."))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, titleStyle.Render(persona))
			fmt.Fprintln(out, outputStyle.Render(res.Output))

			if copyText {
				if err := wreckage.CopyText(res.Output); err != nil {
					logger.Warn("copy text failed", zap.Error(err))
				} else {
					fmt.Fprintln(out, noteStyle.Render("Copied!"))
				}
			}

			if res.ComposeErr != nil {
				fmt.Fprintln(out, noteStyle.Render("image unavailable: "+res.ComposeErr.Error()))
			} else {
				defer res.Artifact.Release()
				d := newDelivery()
				var outcome wreckage.Outcome
				if share {
					outcome, err = d.Share(ctx, res.Artifact, wreckage.ShareMetadata{Title: title, Description: description})
				} else {
					outcome, err = d.CopyToClipboard(ctx, res.Artifact)
				}
				if err != nil {
					return fmt.Errorf("deliver: %w", err)
				}
				fmt.Fprintln(out, noteStyle.Render(fmt.Sprintf("artifact %s (%dx%d)", outcome, res.Artifact.Width, res.Artifact.Height)))
			}

			if advice {
				fmt.Fprintln(out, titleStyle.Render(w.Advise(ctx, res.Output)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&persona, "persona", "p", string(wreckage.PersonaCorporateRobot), "persona to rewrite as")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&share, "share", false, "share the image instead of copying it")
	cmd.Flags().BoolVar(&copyText, "copy-text", false, "also copy the rewritten text")
	cmd.Flags().BoolVar(&advice, "advice", true, "print advice about sending the result")
	cmd.Flags().StringVar(&title, "title", "Text Wrecker", "share title")
	cmd.Flags().StringVar(&description, "description", "Check out this wreckage!", "share description")
	return cmd
}

// confirmer asks on the command's input and treats anything but yes as no.
func confirmer(cmd *cobra.Command) func() bool {
	return func() bool {
		fmt.Fprint(cmd.ErrOrStderr(), confirmPrompt)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
