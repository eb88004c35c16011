package xml

import (
	"strings"

	"github.com/beevik/etree"
	leanify "github.com/sunnyday2006/Leanify"
)

func (d *Document) leanifySVG(c *leanify.Context) {
	for i := len(d.Child) - 1; 0 <= i; i-- {
		switch t := d.Child[i].(type) {
		case *etree.ProcInst:
			if t.Target == "xml" {
				d.RemoveChildAt(i)
			}
		case *etree.Directive:
			if strings.HasPrefix(t.Data, "DOCTYPE") {
				d.RemoveChildAt(i)
			}
		}
	}
	// without a declaration the document must be UTF-8
	d.enc = nil

	root := d.topElement("svg")
	traverse(root, pruneSVG)

	if c.Descend() {
		defer c.Ascend()
		traverse(root, func(e *etree.Element) {
			leanifyDataURIs(c, e)
		})
	}
}

// traverse calls f for every element in the subtree of e, children before their parent. Children are collected
// before descending, so f may detach the element it is called for.
func traverse(e *etree.Element, f func(*etree.Element)) {
	for _, child := range e.ChildElements() {
		traverse(child, f)
	}
	f(e)
}

func pruneSVG(e *etree.Element) {
	attrs := e.Attr[:0]
	for _, attr := range e.Attr {
		val := ShrinkSpace(attr.Value)
		if val == "" {
			continue
		}
		if dflt, ok := defaultAttrMap[attr.FullKey()]; ok && dflt == val && !isOverride(e, attr.FullKey(), val) {
			continue
		}
		attr.Value = val
		attrs = append(attrs, attr)
	}
	e.Attr = attrs

	tag := e.FullTag()
	if len(e.Child) == 0 && emptyTagMap[tag] {
		detach(e)
		return
	}
	if tag == "tref" && selectAttr(e, "xlink:href") == nil {
		detach(e)
		return
	}
	if tag == "metadata" {
		detach(e)
		return
	}
}

// isOverride returns true if the nearest ancestor that sets the attribute sets it to another value. Ancestors further
// up are not considered: a default value below an equal value can always be removed.
func isOverride(e *etree.Element, key, val string) bool {
	for parent := e.Parent(); parent != nil; parent = parent.Parent() {
		if attr := selectAttr(parent, key); attr != nil {
			return attr.Value != val
		}
	}
	return false
}

func leanifyDataURIs(c *leanify.Context, e *etree.Element) {
	if !dataURITagMap[e.FullTag()] {
		return
	}
	for i := range e.Attr {
		attr := &e.Attr[i]
		if key := attr.FullKey(); (key == "href" || key == "xlink:href") && strings.HasPrefix(attr.Value, "data:") {
			attr.Value = string(leanify.DataURI(c, []byte(attr.Value)))
		}
	}
}
