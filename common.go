package leanify

import (
	"bytes"
	"encoding/base64"
	"net/url"

	"github.com/tdewolff/parse/v2"
	"go.uber.org/zap"
)

var (
	dataBytes      = []byte("data:")
	base64Bytes    = []byte(";base64")
	textPlainBytes = []byte("text/plain")
	charsetUSBytes = []byte(";charset=us-ascii")
)

// DataURI leanifies the payload of a data URI and re-encodes it with base64 or percent-encoding, whichever is
// shorter. The original is returned when it cannot be parsed or when the result is not shorter.
// Specifications: https://www.ietf.org/rfc/rfc2397.txt.
func DataURI(c *Context, dataURI []byte) []byte {
	mediatype, data, err := parse.DataURI(dataURI)
	if err != nil {
		c.Logger().Debug("cannot parse data URI", zap.Error(err))
		return dataURI
	}

	// both may point into dataURI
	mediatype = append([]byte{}, mediatype...)
	data = append([]byte{}, data...)

	n := c.Leanify(data, 0)
	data = data[:n]

	var payload []byte
	base64Len := len(base64Bytes) + base64.StdEncoding.EncodedLen(len(data))
	ascii := url.PathEscape(string(data))
	if base64Len < len(ascii) {
		payload = make([]byte, base64.StdEncoding.EncodedLen(len(data)))
		base64.StdEncoding.Encode(payload, data)
		mediatype = append(mediatype, base64Bytes...)
	} else {
		payload = []byte(ascii)
	}

	// text/plain;charset=US-ASCII is the default mediatype
	if bytes.HasPrefix(mediatype, textPlainBytes) {
		mediatype = mediatype[len(textPlainBytes):]
		if bytes.HasPrefix(bytes.ToLower(mediatype), charsetUSBytes) {
			mediatype = mediatype[len(charsetUSBytes):]
		}
	}

	uri := make([]byte, 0, len(dataBytes)+len(mediatype)+1+len(payload))
	uri = append(uri, dataBytes...)
	uri = append(uri, mediatype...)
	uri = append(uri, ',')
	uri = append(uri, payload...)
	if len(dataURI) <= len(uri) {
		return dataURI
	}
	return uri
}
