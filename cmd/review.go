package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/nikogura/cv-coach/pkg/coach"
	"github.com/nikogura/cv-coach/pkg/extract"
	"github.com/nikogura/cv-coach/pkg/failure"
	"github.com/nikogura/cv-coach/pkg/llm"
	"github.com/nikogura/cv-coach/pkg/review"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const reviewWrapWidth = 100

//nolint:gochecknoglobals // Cobra boilerplate
var reviewOutputDir string

//nolint:gochecknoglobals // Terminal styles
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

//nolint:gochecknoglobals // Cobra boilerplate
var reviewCmd = &cobra.Command{
	Use:   "review <cv-file>",
	Short: "Review a CV critique section by section in the terminal",
	Long: `Generate a critique of a CV and walk through it one section at a time.

For each section choose Edit to replace its text or Skip to keep it. Edited text is
polished by the generation service unless review.polish_revisions is false. When every
section is decided the reviewed critique is printed and rendered to PDF.

Example:
  cv-coach review cv.pdf
  cv-coach review cv.docx --output-dir ~/Documents/cv`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().StringVar(&reviewOutputDir, "output-dir", "", "Output directory (default from config)")
}

func runReview(cmd *cobra.Command, args []string) (err error) {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()

	var cv string
	cv, err = extract.File(ctx, args[0])
	if err != nil {
		return err
	}

	svc, machine, err := buildServices(ctx, cfg, getOutputDir(reviewOutputDir, cfg.Defaults.OutputDir))
	if err != nil {
		return err
	}

	fmt.Println("Generating critique...")

	var raw string
	raw, err = svc.Generate(ctx, coach.Request{UserID: localUserID, Mode: llm.ModeStep, CV: cv})
	if err != nil {
		return err
	}

	var step review.Step
	step, _, err = machine.Start(ctx, localUserID, raw)
	switch {
	case failure.IsKind(err, failure.SegmentationEmpty):
		fmt.Println(warnStyle.Render("No reviewable sections found; showing the critique as generated."))
		err = nil
	case err != nil:
		return err
	}

	err = walkReview(ctx, machine, step)
	if errors.Is(err, huh.ErrUserAborted) {
		machine.Abandon(localUserID)
		fmt.Println("Review abandoned.")
		err = nil
		return err
	}
	if err != nil {
		return err
	}

	var final string
	final, err = machine.Final(localUserID)
	if err != nil {
		return err
	}
	machine.Abandon(localUserID)

	fmt.Println(headingStyle.Render("Reviewed critique"))
	fmt.Println(renderMarkdown(final))

	path := svc.Publish(ctx, localUserID, llm.ModeStep.ArtifactPrefix(), final)
	if path != "" {
		fmt.Printf("PDF saved at: %s\n", path)
	}

	return err
}

// walkReview asks for a decision on every section until the review is finished.
func walkReview(ctx context.Context, machine *review.Machine, step review.Step) (err error) {
	for step.State != review.StateFinished {
		printStep(step)

		var choice review.Choice
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[review.Choice]().
					Title("What would you like to do with this section?").
					Options(
						huh.NewOption("Skip: keep it as it is", review.ChoiceSkip),
						huh.NewOption("Edit: write a new version", review.ChoiceEdit),
					).
					Value(&choice),
			),
		).Run()
		if err != nil {
			return err
		}

		step, err = machine.Decide(ctx, localUserID, choice)
		if err != nil {
			return err
		}

		if step.State == review.StateAwaitingRevision {
			step, err = reviseSection(ctx, machine, step)
			if err != nil {
				return err
			}
		}
	}

	return err
}

// reviseSection collects replacement text until a revision is accepted or the edit is
// cancelled with empty input.
func reviseSection(ctx context.Context, machine *review.Machine, step review.Step) (next review.Step, err error) {
	next = step
	for next.State == review.StateAwaitingRevision {
		var text string
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewText().
					Title("New text for "+step.Section.Label).
					Description("Leave empty to go back to the choice").
					Value(&text),
			),
		).Run()
		if err != nil {
			return next, err
		}

		if strings.TrimSpace(text) == "" {
			next, err = machine.Cancel(localUserID)
			return next, err
		}

		fmt.Println("Polishing...")
		next, err = machine.SubmitRevision(ctx, localUserID, text)
		if failure.Retryable(err) {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Revision failed (%v). Please try again.", err)))
			next, err = step, nil
			continue
		}
		if err != nil {
			return next, err
		}
	}

	return next, err
}

func printStep(step review.Step) {
	fmt.Println()
	fmt.Println(headingStyle.Render(fmt.Sprintf("Section %d of %d: %s", step.Index+1, step.Total, step.Section.Label)))
	fmt.Println(renderMarkdown(step.Section.Body))
	if step.Section.IsScored {
		fmt.Println(scoreStyle.Render(fmt.Sprintf("Score: %d / 10", step.Section.Score)))
	}
}

// renderMarkdown renders text for the terminal, falling back to the plain text.
func renderMarkdown(text string) (out string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(reviewWrapWidth),
	)
	if err != nil {
		out = text
		return out
	}

	out, err = r.Render(text)
	if err != nil {
		out = text
		return out
	}

	out = strings.TrimRight(out, "\n")
	return out
}
