// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/internal/config"
)

var (
	// ErrUnsupportedFormat is returned for filenames not ending in .pdf or .txt.
	ErrUnsupportedFormat = eris.New("Unsupported file format. Please upload PDF or TXT files.")
	// ErrEmptyContent is returned when a document yields no text.
	ErrEmptyContent = eris.New("No text content found in the document")
	// ErrExtraction is returned when decoding fails.
	ErrExtraction = eris.New("Error extracting text")
)

// Format is a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// DetectFormat maps a filename to its Format by extension (case-insensitive).
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".txt":
		return FormatText, nil
	default:
		return "", eris.Wrapf(ErrUnsupportedFormat, "file %q", filename)
	}
}

// PDFDecoder converts raw PDF bytes to text.
type PDFDecoder interface {
	DecodePDF(ctx context.Context, data []byte) (string, error)
}

// Extractor extracts plain text from a named document.
type Extractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}

// DocumentExtractor dispatches on file extension.
type DocumentExtractor struct {
	pdf PDFDecoder
}

// New creates a DocumentExtractor using pdf for PDF documents.
func New(pdf PDFDecoder) *DocumentExtractor {
	return &DocumentExtractor{pdf: pdf}
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.ExtractConfig) (*DocumentExtractor, error) {
	switch cfg.Provider {
	case "native", "":
		return New(NewNativePDF()), nil
	case "pdftotext":
		return New(NewPdfToText(cfg.PdfToTextPath)), nil
	default:
		return nil, eris.Errorf("extract: unknown provider %q", cfg.Provider)
	}
}

// ExtractText returns the text of the document as decoded. Unsupported
// extensions, decoding failures and documents without text map to
// ErrUnsupportedFormat, ErrExtraction and ErrEmptyContent respectively.
func (e *DocumentExtractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = e.pdf.DecodePDF(ctx, data)
		if err != nil {
			return "", eris.Wrapf(ErrExtraction, "%s: %v", filename, err)
		}
	case FormatText:
		text, err = DecodeText(data)
		if err != nil {
			return "", eris.Wrapf(ErrExtraction, "%s: %v", filename, err)
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", eris.Wrapf(ErrEmptyContent, "file %q", filename)
	}
	return text, nil
}
