package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nikogura/cv-coach/pkg/coach"
	"github.com/nikogura/cv-coach/pkg/extract"
	"github.com/nikogura/cv-coach/pkg/llm"
	"github.com/nikogura/cv-coach/pkg/vacancy"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// localUserID stands in for a chat user when running from the terminal.
const localUserID = 0

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeMode string

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeVacancy string

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeSkipPDF bool

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze <cv-file>",
	Short: "Critique a CV, match it to a vacancy, or write a cover letter",
	Long: `Critique a CV file (.pdf, .docx, .txt or .md) and print the result.

Modes:
  analysis  full critique with scores and recommendations (default)
  hr        short HR-style critique
  match     compare the CV with a vacancy (needs --vacancy)
  cover     write a cover letter for a vacancy (needs --vacancy)

The vacancy can be a URL, a file path, or the text itself.

Example:
  cv-coach analyze cv.pdf
  cv-coach analyze cv.docx --mode match --vacancy https://example.com/jobs/123
  cv-coach analyze cv.txt --mode cover --vacancy vacancy.txt --output-dir ~/Documents`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", string(llm.ModeAnalysis), "analysis, hr, match or cover")
	analyzeCmd.Flags().StringVar(&analyzeVacancy, "vacancy", "", "Vacancy URL, file or text")
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output-dir", "", "Output directory (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeSkipPDF, "skip-pdf", false, "Print the result without rendering a PDF")
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	mode := llm.Mode(analyzeMode)
	err = validateAnalyzeMode(mode, analyzeVacancy)
	if err != nil {
		return err
	}

	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	var cv string
	cv, err = extract.File(ctx, args[0])
	if err != nil {
		return err
	}

	var vacancyText string
	if mode.NeedsVacancy() {
		if getVerbose() {
			fmt.Printf("Resolving vacancy from: %s\n", analyzeVacancy)
		}
		vacancyText, err = vacancy.Resolve(ctx, analyzeVacancy)
		if err != nil {
			err = errors.Wrap(err, "failed to resolve vacancy")
			return err
		}
	}

	outDir := getOutputDir(analyzeOutputDir, cfg.Defaults.OutputDir)
	if analyzeSkipPDF {
		outDir = ""
	}

	svc, _, err := buildServices(ctx, cfg, outDir)
	if err != nil {
		return err
	}

	if getVerbose() {
		fmt.Printf("Generating %s for %s (%d characters)...\n", mode, args[0], len(cv))
	}

	req := coach.Request{UserID: localUserID, Mode: mode, CV: cv, Vacancy: vacancyText}

	var result coach.Result
	result, err = svc.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(result.Text)

	if result.ArtifactPath != "" {
		fmt.Printf("\nPDF saved at: %s\n", result.ArtifactPath)
	}

	return err
}

func validateAnalyzeMode(mode llm.Mode, vacancyInput string) (err error) {
	switch mode {
	case llm.ModeAnalysis, llm.ModeHR, llm.ModeMatch, llm.ModeCover:
	case llm.ModeStep:
		err = errors.New("use the review command for the step-by-step review")
		return err
	default:
		err = fmt.Errorf("invalid mode '%s': must be 'analysis', 'hr', 'match' or 'cover'", mode)
		return err
	}

	if mode.NeedsVacancy() && vacancyInput == "" {
		err = fmt.Errorf("mode '%s' needs --vacancy", mode)
		return err
	}

	return err
}
