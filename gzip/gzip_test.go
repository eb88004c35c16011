package gzip

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	leanify "github.com/sunnyday2006/Leanify"
	"github.com/tdewolff/test"
)

func compress(t *testing.T, data []byte, level int, name string) []byte {
	buf := &bytes.Buffer{}
	w, err := gzip.NewWriterLevel(buf, level)
	test.Error(t, err)
	w.Name = name
	w.ModTime = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	_, err = w.Write(data)
	test.Error(t, err)
	test.Error(t, w.Close())
	return buf.Bytes()
}

func decompress(t *testing.T, b []byte) ([]byte, gzip.Header) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	test.Error(t, err)
	data, err := io.ReadAll(r)
	test.Error(t, err)
	return data, r.Header
}

func TestLeanify(t *testing.T) {
	data := bytes.Repeat([]byte("leanify leanify leanify "), 100)
	in := compress(t, data, gzip.NoCompression, "file.txt")

	m := leanify.New()
	buf := append([]byte{}, in...)
	n, err := Leanify(m.NewContext(), buf, 0)
	test.Error(t, err)
	test.That(t, n < len(in), "must be smaller")

	out, header := decompress(t, buf[:n])
	test.Bytes(t, out, data)
	test.String(t, header.Name, "file.txt")
	test.T(t, header.ModTime.Equal(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)), true)
}

func TestLeanifyNested(t *testing.T) {
	data := []byte("<?xml version=\"1.0\"?>\n" + strings.Repeat("<b>x</b>\n  ", 50))
	in := compress(t, data, gzip.NoCompression, "")

	m := leanify.New()
	m.AddFunc("text/xml", func(_ *leanify.Context, buf []byte, start int) (int, error) {
		return copy(buf, `<?xml version="1.0"?><b>x</b>`), nil
	})
	buf := append([]byte{}, in...)
	n, err := Leanify(m.NewContext(), buf, 0)
	test.Error(t, err)

	out, _ := decompress(t, buf[:n])
	test.String(t, string(out), `<?xml version="1.0"?><b>x</b>`)

	// nested data is not leanified at the maximum depth
	m.MaxDepth = 1
	buf = append([]byte{}, in...)
	n, err = Leanify(m.NewContext(), buf, 0)
	test.Error(t, err)

	out, _ = decompress(t, buf[:n])
	test.Bytes(t, out, data)
}

func TestLeanifyNotSmaller(t *testing.T) {
	in := compress(t, []byte("a"), gzip.BestCompression, "")
	buf := append([]byte{}, in...)
	n, err := Leanify(leanify.New().NewContext(), buf, 0)
	test.Error(t, err)
	test.Bytes(t, buf[:n], in)
}

func TestLeanifyInvalid(t *testing.T) {
	buf := []byte("not gzip")
	n, err := Leanify(leanify.New().NewContext(), buf, 0)
	test.That(t, err != nil, "must return error for invalid gzip")
	test.String(t, string(buf[:n]), "not gzip")
}
