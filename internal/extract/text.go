package extract

import (
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText decodes a text document. A UTF-8 or UTF-16 byte-order mark
// selects the encoding and is dropped; without one the data is read as UTF-8.
// Invalid sequences become U+FFFD.
func DecodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", eris.Wrap(err, "text: decode")
	}
	return string(out), nil
}
