package extract

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// PdfToText decodes PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText decoder. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// DecodePDF writes data to a temp file, runs pdftotext -layout on it and
// returns stdout.
func (p *PdfToText) DecodePDF(ctx context.Context, data []byte) (string, error) {
	f, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "pdftotext: create temp file")
	}
	defer os.Remove(f.Name()) //nolint:errcheck

	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		return "", eris.Wrap(err, "pdftotext: write temp file")
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "pdftotext: close temp file")
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", f.Name(), "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "pdftotext: failed: %s", stderr.String())
	}

	return stdout.String(), nil
}
