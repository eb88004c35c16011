// Package gzip leanifies gzip files by recompressing them, the decompressed content is leanified as an embedded
// resource first.
package gzip

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	leanify "github.com/sunnyday2006/Leanify"
	"go.uber.org/zap"
)

// DefaultLeanifier is the default leanifier.
var DefaultLeanifier = &Leanifier{}

// Leanifier is a gzip leanifier.
type Leanifier struct {
	Level int // compression level, zero means gzip.BestCompression
}

// Leanify leanifies the gzip stream in buf[start:] and writes the result to the front of buf.
func Leanify(c *leanify.Context, buf []byte, start int) (int, error) {
	return DefaultLeanifier.Leanify(c, buf, start)
}

// Leanify leanifies the gzip stream in buf[start:] and writes the result to the front of buf. The header is kept and
// the input is kept if the result is not smaller.
func (o *Leanifier) Leanify(c *leanify.Context, buf []byte, start int) (int, error) {
	in := buf[start:]
	r, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return copy(buf, in), err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return copy(buf, in), err
	}

	if c.Descend() {
		data = data[:c.Leanify(data, 0)]
		c.Ascend()
	} else {
		c.Logger().Debug("maximum depth reached, gzip content not leanified", zap.Int("depth", c.Depth()))
	}

	level := o.Level
	if level == 0 {
		level = gzip.BestCompression
	}
	out := &bytes.Buffer{}
	w, err := gzip.NewWriterLevel(out, level)
	if err != nil {
		return copy(buf, in), err
	}
	w.Header = r.Header
	if _, err := w.Write(data); err != nil {
		return copy(buf, in), err
	} else if err := w.Close(); err != nil {
		return copy(buf, in), err
	}

	if len(in) <= out.Len() {
		return copy(buf, in), nil
	}
	return copy(buf, out.Bytes()), nil
}
