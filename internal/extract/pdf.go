package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/joseph-ayodele/quizgen/constants"
)

// HasPDFSignature reports whether b starts with the %PDF magic number.
func HasPDFSignature(b []byte) bool {
	return len(b) >= len(constants.PDFMagic) && bytes.Equal(b[:len(constants.PDFMagic)], constants.PDFMagic)
}

// pdfToText writes the document to a temp file and runs
// pdftotext -enc UTF-8 -eol unix <path> -
func (e *Extractor) pdfToText(ctx context.Context, data []byte) (text string, pages int, warnings []string, err error) {
	f, err := os.CreateTemp("", "quizgen-*.pdf")
	if err != nil {
		return "", 0, nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			e.logger.Warn("extract.temp_cleanup_failed", "path", path, "error", rmErr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", 0, nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, nil, fmt.Errorf("close temp file: %w", err)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if len(errb) > 0 {
		warnings = append(warnings, strings.TrimSpace(string(errb)))
	}
	if err != nil {
		return "", 0, warnings, describePdftotextError(err, errb)
	}
	text, pages = JoinPages(string(out))
	return text, pages, warnings, nil
}

// pdftotext exit codes: 1 open error, 3 permissions (encrypted).
func describePdftotextError(err error, stderr []byte) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 1:
			if bytes.Contains(bytes.ToLower(stderr), []byte("password")) {
				return fmt.Errorf("the PDF is password-protected: %w", err)
			}
			return fmt.Errorf("the PDF could not be opened: %w", err)
		case 3:
			return fmt.Errorf("the PDF does not permit text extraction: %w", err)
		}
	}
	return fmt.Errorf("pdftotext failed: %w", err)
}
