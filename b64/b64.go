// Package b64 leanifies base64 encoded data: the decoded data is leanified as an embedded resource and encoded again
// without line breaks.
package b64

import (
	"encoding/base64"

	leanify "github.com/sunnyday2006/Leanify"
)

// Leanify decodes the base64 text in buf[start:], leanifies the decoded data and writes the encoded result to the
// front of buf. Whitespace and padding in the input are accepted. The input is kept if the result is not shorter.
func Leanify(c *leanify.Context, buf []byte, start int) (int, error) {
	in := buf[start:]
	text := compact(in)

	data := make([]byte, base64.RawStdEncoding.DecodedLen(len(text)))
	n, err := base64.RawStdEncoding.Decode(data, text)
	if err != nil {
		return copy(buf, in), err
	}
	data = data[:c.Leanify(data[:n], 0)]

	if len(in) <= base64.StdEncoding.EncodedLen(len(data)) {
		return copy(buf, in), nil
	}
	// in has been consumed entirely
	base64.StdEncoding.Encode(buf, data)
	return base64.StdEncoding.EncodedLen(len(data)), nil
}

// compact returns a copy of the base64 text without whitespace and trailing padding.
func compact(b []byte) []byte {
	text := make([]byte, 0, len(b))
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\f' {
			text = append(text, c)
		}
	}
	for 0 < len(text) && text[len(text)-1] == '=' {
		text = text[:len(text)-1]
	}
	return text
}
