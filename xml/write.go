package xml

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"
)

// writeToken serializes a token and its subtree without indentation. Empty elements are self-closed.
func writeToken(w *bytes.Buffer, t etree.Token) {
	switch t := t.(type) {
	case *etree.Element:
		w.WriteByte('<')
		w.WriteString(t.FullTag())
		for _, attr := range t.Attr {
			w.WriteByte(' ')
			w.WriteString(attr.FullKey())
			w.WriteString(`="`)
			escapeAttrVal(w, attr.Value)
			w.WriteByte('"')
		}
		if len(t.Child) == 0 {
			w.WriteString("/>")
			return
		}
		w.WriteByte('>')
		for _, child := range t.Child {
			writeToken(w, child)
		}
		w.WriteString("</")
		w.WriteString(t.FullTag())
		w.WriteByte('>')
	case *etree.CharData:
		if t.IsCData() {
			w.WriteString("<![CDATA[")
			w.WriteString(t.Data)
			w.WriteString("]]>")
			return
		}
		escapeText(w, t.Data)
	case *etree.Comment:
		w.WriteString("<!--")
		w.WriteString(t.Data)
		w.WriteString("-->")
	case *etree.ProcInst:
		w.WriteString("<?")
		w.WriteString(t.Target)
		if t.Inst != "" {
			w.WriteByte(' ')
			w.WriteString(t.Inst)
		}
		w.WriteString("?>")
	case *etree.Directive:
		w.WriteString("<!")
		w.WriteString(t.Data)
		w.WriteByte('>')
	}
}

// escapeAttrVal escapes a double-quoted attribute value. Tabs and newlines are written literally.
func escapeAttrVal(w *bytes.Buffer, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '"':
			esc = "&quot;"
		case '\r':
			esc = "&#xD;"
		default:
			continue
		}
		w.WriteString(s[last:i])
		w.WriteString(esc)
		last = i + 1
	}
	w.WriteString(s[last:])
}

// escapeText escapes character data. A > is only escaped where it would close a CDATA section marker.
func escapeText(w *bytes.Buffer, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			if !strings.HasSuffix(s[:i], "]]") {
				continue
			}
			esc = "&gt;"
		case '\r':
			esc = "&#xD;"
		default:
			continue
		}
		w.WriteString(s[last:i])
		w.WriteString(esc)
		last = i + 1
	}
	w.WriteString(s[last:])
}
