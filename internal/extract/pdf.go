package extract

import (
	"bytes"
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	rpdf "rsc.io/pdf"
)

// NativePDF decodes PDFs in-process with rsc.io/pdf.
type NativePDF struct{}

// NewNativePDF creates a NativePDF decoder.
func NewNativePDF() *NativePDF {
	return &NativePDF{}
}

// DecodePDF concatenates the text runs of every page, separating pages with
// a blank line. rsc.io/pdf panics on some malformed streams; those panics are
// returned as errors.
func (n *NativePDF) DecodePDF(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pdf: malformed document: %v", r)
		}
	}()

	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "pdf: open")
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "pdf: cancelled")
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		writePageText(&sb, page.Content().Text)
	}
	return sb.String(), nil
}

// wordGap is the horizontal gap, as a fraction of the font size, beyond
// which two glyph runs on one baseline are separated by a space.
const wordGap = 0.15

// writePageText joins glyph runs, starting a new line whenever the baseline
// moves. rsc.io/pdf drops space glyphs, so word breaks are recovered from the
// gap between the end of one run and the start of the next.
func writePageText(sb *strings.Builder, runs []rpdf.Text) {
	var prev *rpdf.Text
	for i := range runs {
		t := &runs[i]
		if prev != nil {
			switch {
			case math.Abs(t.Y-prev.Y) > t.FontSize/2:
				sb.WriteByte('\n')
			case t.X-(prev.X+prev.W) > t.FontSize*wordGap && !strings.HasSuffix(prev.S, " "):
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prev = t
	}
}
