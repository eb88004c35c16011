package xml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalid is returned when the input is not well-formed XML.
var ErrInvalid = errors.New("invalid XML")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Document is a parsed XML document that is mutated in place and serialized back in its original encoding.
type Document struct {
	*etree.Document

	enc   encoding.Encoding // nil for UTF-8
	utf16 bool
}

// Parse parses b into a Document. Comments are dropped unless keepComments is set, and whitespace-only text is
// dropped unless it is the only child of its parent or inside an xml:space="preserve" element.
func Parse(b []byte, keepComments bool) (*Document, error) {
	d := &Document{Document: etree.NewDocument()}
	if bytes.HasPrefix(b, bomUTF8) {
		b = b[len(bomUTF8):]
	} else if bytes.HasPrefix(b, bomUTF16LE) || bytes.HasPrefix(b, bomUTF16BE) {
		endianness := unicode.LittleEndian
		if bytes.HasPrefix(b, bomUTF16BE) {
			endianness = unicode.BigEndian
		}
		d.enc = unicode.UTF16(endianness, unicode.UseBOM)
		d.utf16 = true

		var err error
		if b, err = unicode.UTF16(endianness, unicode.ExpectBOM).NewDecoder().Bytes(b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	d.ReadSettings.PreserveCData = true
	d.ReadSettings.CharsetReader = d.charsetReader
	if err := d.ReadFromBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	} else if d.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalid)
	}
	trimParsed(&d.Element, false, keepComments)
	return d, nil
}

// charsetReader is called by the decoder for non-UTF-8 declarations, it records the encoding for serialization.
func (d *Document) charsetReader(label string, r io.Reader) (io.Reader, error) {
	if d.utf16 && strings.HasPrefix(strings.ToLower(label), "utf-16") {
		// already decoded
		return r, nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	} else if name == "utf-8" {
		return r, nil
	}
	d.enc = enc
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Format returns the document class, determined by its top-level elements.
func (d *Document) Format() Format {
	if d.topElement("FictionBook") != nil {
		return FB2
	} else if d.topElement("svg") != nil {
		return SVG
	}
	return Plain
}

func (d *Document) topElement(tag string) *etree.Element {
	for _, t := range d.Child {
		if e, ok := t.(*etree.Element); ok && e.FullTag() == tag {
			return e
		}
	}
	return nil
}

// Bytes serializes the document without indentation in its original encoding.
func (d *Document) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	for _, t := range d.Child {
		writeToken(buf, t)
	}
	if d.enc == nil {
		return buf.Bytes(), nil
	}
	return encoding.HTMLEscapeUnsupported(d.enc.NewEncoder()).Bytes(buf.Bytes())
}

// Compact serializes the document into dst, which may overlap the storage the document was parsed from. It returns
// io.ErrShortBuffer and leaves dst untouched when the serialization does not fit.
func (d *Document) Compact(dst []byte) (int, error) {
	b, err := d.Bytes()
	if err != nil {
		return 0, err
	} else if len(dst) < len(b) {
		return 0, io.ErrShortBuffer
	}
	return copy(dst, b), nil
}
