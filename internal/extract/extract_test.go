package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpdf "rsc.io/pdf"

	"github.com/sells-group/research-assistant/internal/config"
)

type stubPDF struct {
	text string
	err  error
}

func (s stubPDF) DecodePDF(context.Context, []byte) (string, error) {
	return s.text, s.err
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"report.pdf", FormatPDF, false},
		{"REPORT.PDF", FormatPDF, false},
		{"notes.txt", FormatText, false},
		{"notes.docx", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractText_PlainText(t *testing.T) {
	e := New(stubPDF{})
	text, err := e.ExtractText(context.Background(), "doc.txt", []byte("\ufeff  Renewable energy.  \n"))
	require.NoError(t, err)
	assert.Equal(t, "  Renewable energy.  \n", text)
}

func TestExtractText_UTF16WithBOM(t *testing.T) {
	data := []byte{0xff, 0xfe}
	for _, r := range "Hello world." {
		data = append(data, byte(r), 0)
	}

	e := New(stubPDF{})
	text, err := e.ExtractText(context.Background(), "notes.txt", data)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", text)

	be := []byte{0xfe, 0xff, 0, 'H', 0, 'i'}
	text, err = e.ExtractText(context.Background(), "notes.txt", be)
	require.NoError(t, err)
	assert.Equal(t, "Hi", text)
}

func TestExtractText_KeepsSurroundingWhitespace(t *testing.T) {
	e := New(stubPDF{text: "\n\n  Page one.\n"})
	text, err := e.ExtractText(context.Background(), "doc.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "\n\n  Page one.\n", text)
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	e := New(stubPDF{})
	text, err := e.ExtractText(context.Background(), "doc.txt", []byte{'a', 0xff, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a\ufffdb", text)
}

func TestExtractText_Empty(t *testing.T) {
	e := New(stubPDF{text: "   "})

	_, err := e.ExtractText(context.Background(), "doc.txt", []byte(" \n\t"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyContent))

	_, err = e.ExtractText(context.Background(), "scan.pdf", []byte("%PDF"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyContent))
}

func TestExtractText_Unsupported(t *testing.T) {
	e := New(stubPDF{})
	_, err := e.ExtractText(context.Background(), "doc.html", []byte("<p>x</p>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestExtractText_PDFError(t *testing.T) {
	e := New(stubPDF{err: errors.New("broken xref")})
	_, err := e.ExtractText(context.Background(), "doc.pdf", []byte("junk"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.Contains(t, err.Error(), "broken xref")
}

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor(config.ExtractConfig{})
	require.NoError(t, err)
	assert.IsType(t, &NativePDF{}, e.pdf)

	e, err = NewExtractor(config.ExtractConfig{Provider: "pdftotext", PdfToTextPath: "/usr/bin/pdftotext"})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, e.pdf)

	_, err = NewExtractor(config.ExtractConfig{Provider: "ocr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "ocr"`)
}

// buildPDF assembles a single-page PDF with a valid xref table. The font
// carries a Widths array so glyph positions advance like a real document.
func buildPDF(text string) []byte {
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestNativePDF_DecodePDF(t *testing.T) {
	text, err := NewNativePDF().DecodePDF(context.Background(), buildPDF("Renewable energy lowers cost."))
	require.NoError(t, err)
	assert.Contains(t, text, "Renewable energy lowers cost.")
}

func TestWritePageText(t *testing.T) {
	glyph := func(s string, x, y float64) rpdf.Text {
		return rpdf.Text{FontSize: 10, X: x, Y: y, W: 5, S: s}
	}
	runs := []rpdf.Text{
		glyph("H", 0, 700), glyph("i", 5, 700),
		glyph("y", 15, 700), glyph("o", 20, 700),
		glyph("N", 0, 680), glyph("e", 5.5, 680),
	}

	var sb strings.Builder
	writePageText(&sb, runs)
	assert.Equal(t, "Hi yo\nNe", sb.String())
}

func TestNativePDF_Malformed(t *testing.T) {
	_, err := NewNativePDF().DecodePDF(context.Background(), []byte("not a pdf at all"))
	require.Error(t, err)
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("")
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext")
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_BinaryNotFound(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext")
	_, err := p.DecodePDF(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext: failed")
}

func TestPdfToText_Success(t *testing.T) {
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "pdftotext")
	script := "#!/bin/sh\necho 'Extracted text content'\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0o755))

	p := NewPdfToText(fakeBin)
	text, err := p.DecodePDF(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Contains(t, text, "Extracted text content")
}
