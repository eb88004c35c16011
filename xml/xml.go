// Package xml leanifies XML documents and the XML-based FB2 and SVG formats. Whitespace-only text, default and empty
// SVG attributes, and SVG elements without effect are removed, and binaries embedded in FB2 books are recompressed.
package xml

import (
	"io"

	"github.com/beevik/etree"
	leanify "github.com/sunnyday2006/Leanify"
	"go.uber.org/zap"
)

// Format is the class of an XML document.
type Format int

// Formats recognized by their top-level element.
const (
	Plain Format = iota
	FB2
	SVG
)

func (f Format) String() string {
	switch f {
	case FB2:
		return "FB2"
	case SVG:
		return "SVG"
	}
	return "XML"
}

////////////////////////////////////////////////////////////////

// DefaultLeanifier is the default leanifier.
var DefaultLeanifier = &Leanifier{}

// Leanifier is an XML leanifier.
type Leanifier struct {
	KeepComments bool
}

// Leanify leanifies XML data in buf[start:] and writes the result to the front of buf.
func Leanify(c *leanify.Context, buf []byte, start int) (int, error) {
	return DefaultLeanifier.Leanify(c, buf, start)
}

// Leanify leanifies XML data in buf[start:] and writes the result to the front of buf. The result is only kept when
// it is smaller than the input, otherwise the input is moved to the front of buf.
func (o *Leanifier) Leanify(c *leanify.Context, buf []byte, start int) (int, error) {
	in := buf[start:]
	if len(in) == 0 {
		return 0, ErrInvalid
	}

	d, err := Parse(in, o.KeepComments)
	if err != nil {
		return copy(buf, in), err
	}
	d.Leanify(c)

	// the input is no longer referenced after parsing, so dst may overlap it
	n, err := d.Compact(buf[:len(in)-1])
	if err == io.ErrShortBuffer {
		return copy(buf, in), nil
	} else if err != nil {
		return copy(buf, in), err
	}
	return n, nil
}

// Leanify applies the policies of the document's format to the tree.
func (d *Document) Leanify(c *leanify.Context) {
	removePCDataSingle(&d.Element, false)

	switch format := d.Format(); format {
	case FB2:
		c.Logger().Info("FB2 detected")
		d.leanifyFB2(c)
	case SVG:
		c.Logger().Info("SVG detected")
		d.leanifySVG(c)
	default:
		c.Logger().Debug("XML detected", zap.Stringer("format", format))
	}
}

////////////////////////////////////////////////////////////////

// selectAttr returns the first attribute whose qualified name equals key, without namespace resolution.
func selectAttr(e *etree.Element, key string) *etree.Attr {
	for i := range e.Attr {
		if e.Attr[i].FullKey() == key {
			return &e.Attr[i]
		}
	}
	return nil
}

// childElements returns the child elements with the qualified tag name.
func childElements(e *etree.Element, tag string) []*etree.Element {
	var elements []*etree.Element
	for _, t := range e.Child {
		if child, ok := t.(*etree.Element); ok && child.FullTag() == tag {
			elements = append(elements, child)
		}
	}
	return elements
}

func detach(e *etree.Element) {
	if parent := e.Parent(); parent != nil {
		parent.RemoveChild(e)
	}
}
