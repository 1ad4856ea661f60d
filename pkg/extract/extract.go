// Package extract turns uploaded CV and vacancy files into plain text.
package extract

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nikogura/cv-coach/pkg/failure"
	"github.com/pkg/errors"
)

const op = "extract text"

// PDFToText is the binary used for PDF files.
var PDFToText = "pdftotext" //nolint:gochecknoglobals // overridden in tests

// Supported reports whether a file name has an extension File can read.
func Supported(name string) (ok bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".txt", ".md":
		ok = true
	}
	return ok
}

// File extracts the text of a .pdf, .docx, .txt or .md file. Every failure,
// including an empty result, is an Extraction failure.
func File(ctx context.Context, path string) (text string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = pdf(ctx, path)
	case ".docx":
		text, err = docx(path)
	case ".txt", ".md":
		text, err = plain(path)
	default:
		err = errors.Errorf("unsupported file type %q (send a PDF, DOCX or TXT file)", filepath.Ext(path))
	}
	if err != nil {
		err = failure.Wrap(failure.Extraction, op, err)
		return text, err
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		err = failure.New(failure.Extraction, op, "no text found in "+filepath.Base(path))
		return text, err
	}

	return text, err
}

func plain(path string) (text string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return text, err
	}

	if !utf8.Valid(data) {
		err = errors.Errorf("file is not UTF-8 text: %s", path)
		return text, err
	}

	text = strings.TrimPrefix(string(data), "\ufeff")
	return text, err
}

func pdf(ctx context.Context, path string) (text string, err error) {
	_, err = os.Stat(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return text, err
	}

	cmd := exec.CommandContext(ctx, PDFToText, "-layout", "-enc", "UTF-8", path, "-")

	var stderr strings.Builder
	cmd.Stderr = &stderr

	var out []byte
	out, err = cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errors.Errorf("%s not found in PATH (install poppler-utils to read PDFs)", PDFToText)
			return text, err
		}
		err = errors.Wrapf(err, "%s failed: %s", PDFToText, strings.TrimSpace(stderr.String()))
		return text, err
	}

	// pdftotext separates pages with form feeds.
	text = strings.ReplaceAll(string(out), "\f", "\n")
	return text, err
}
