// Package renderer writes results to disk and converts them to PDF with pandoc.
package renderer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// DefaultPDFEngine handles Unicode text such as Cyrillic and bullets.
const DefaultPDFEngine = "xelatex"

// Options selects the pandoc template, LaTeX class and PDF engine. All are optional.
type Options struct {
	TemplatePath string
	ClassPath    string
	PDFEngine    string
}

// Render writes text to <dir>/<userID>/<prefix>_<YYYYmmdd_HHMMSS>.md, converts it to a PDF next
// to it, and returns the PDF path. The markdown file is removed once the PDF exists.
func Render(text, dir string, userID int64, prefix string, now time.Time, opts Options) (artifactPath string, err error) {
	base := ArtifactPath(dir, userID, prefix, now)
	markdownPath := base + ".md"
	pdfPath := base + ".pdf"

	err = WriteMarkdown(text, markdownPath)
	if err != nil {
		return artifactPath, err
	}

	err = RenderPDF(markdownPath, pdfPath, opts)
	if err != nil {
		return artifactPath, err
	}

	err = CleanupMarkdown(markdownPath)
	if err != nil {
		return artifactPath, err
	}

	artifactPath = pdfPath
	return artifactPath, err
}

// ArtifactPath returns the extensionless path of a rendered artifact.
func ArtifactPath(dir string, userID int64, prefix string, now time.Time) (path string) {
	name := fmt.Sprintf("%s_%s", prefix, now.Format("20060102_150405"))
	path = filepath.Join(dir, strconv.FormatInt(userID, 10), name)
	return path
}

// RenderPDF converts markdown to PDF using pandoc, with an optional LaTeX template and class.
func RenderPDF(markdownPath, outputPath string, opts Options) (err error) {
	// Validate pandoc exists
	err = checkPandocExists()
	if err != nil {
		return err
	}

	// Validate input files exist
	err = validateFiles(optionalFiles(markdownPath, opts.TemplatePath, opts.ClassPath)...)
	if err != nil {
		return err
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	//nolint:noctx // Context not available for exec.Command - pandoc is a long-running subprocess
	cmd := exec.Command("pandoc", pandocArgs(markdownPath, outputPath, opts)...)

	// Set TEXINPUTS to include directory with .cls file
	if opts.ClassPath != "" {
		classDir := filepath.Dir(opts.ClassPath)
		texinputs := classDir + ":" + os.Getenv("TEXINPUTS")
		cmd.Env = append(os.Environ(), "TEXINPUTS="+texinputs)
	}

	// Capture output
	var output []byte
	output, err = cmd.CombinedOutput()
	if err != nil {
		err = errors.Wrapf(err, "pandoc failed: %s", string(output))
		return err
	}

	return err
}

// pandocArgs builds the pandoc command line. Critiques are not markdown-clean, so line
// breaks are kept as written.
func pandocArgs(markdownPath, outputPath string, opts Options) (args []string) {
	engine := opts.PDFEngine
	if engine == "" {
		engine = DefaultPDFEngine
	}

	args = []string{
		"-f", "markdown+hard_line_breaks",
		"-t", "pdf",
		"-o", outputPath,
		"--pdf-engine", engine,
	}
	if opts.TemplatePath != "" {
		args = append(args, "--template", opts.TemplatePath)
	}
	args = append(args, "--number-sections=false", markdownPath)

	return args
}

func optionalFiles(paths ...string) (present []string) {
	for _, p := range paths {
		if p != "" {
			present = append(present, p)
		}
	}
	return present
}

// checkPandocExists verifies pandoc is installed.
func checkPandocExists() (err error) {
	//nolint:noctx // Context not available for version check
	cmd := exec.Command("pandoc", "--version")
	err = cmd.Run()
	if err != nil {
		err = errors.New("pandoc not found in PATH (install pandoc to generate PDFs)")
		return err
	}
	return err
}

// validateFiles checks that required files exist.
func validateFiles(paths ...string) (err error) {
	for _, path := range paths {
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			err = errors.Errorf("file not found: %s", path)
			return err
		}
	}
	return err
}

// WriteMarkdown writes markdown content to a file.
func WriteMarkdown(content, outputPath string) (err error) {
	// Ensure output directory exists
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	// Write file
	err = os.WriteFile(outputPath, []byte(content), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write markdown file: %s", outputPath)
		return err
	}

	return err
}

// CleanupMarkdown removes markdown files after PDF generation.
func CleanupMarkdown(paths ...string) (err error) {
	for _, path := range paths {
		err = os.Remove(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to remove markdown file: %s", path)
			return err
		}
	}
	return err
}

// Pandoc publishes results under Dir with fixed options.
type Pandoc struct {
	Dir     string
	Options Options
}

// Publish renders text for a user and returns the PDF path.
func (p Pandoc) Publish(text string, userID int64, prefix string, now time.Time) (artifactPath string, err error) {
	artifactPath, err = Render(text, p.Dir, userID, prefix, now, p.Options)
	return artifactPath, err
}
