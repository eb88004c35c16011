package xml

import "github.com/beevik/etree"

// ShrinkSpace replaces every series of spaces, tabs and newlines by a single space and removes leading and trailing
// whitespace.
func ShrinkSpace(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if isSpace(s[i]) {
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			if i == len(s) {
				break
			}
			b = append(b, ' ')
		}
		b = append(b, s[i])
		i++
	}
	if 0 < len(b) && b[0] == ' ' {
		b = b[1:]
	}
	return string(b)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

// isWhitespace returns true for space, \t, \n and \r.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isAllWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isWhitespace(s[i]) {
			return false
		}
	}
	return true
}

func isPreserved(e *etree.Element) bool {
	attr := selectAttr(e, "xml:space")
	return attr != nil && attr.Value == "preserve"
}

// removePCDataSingle removes text that is the only child of its element and contains nothing but whitespace, unless
// whitespace is preserved. Elements with more than one child are descended into but not swept themselves.
func removePCDataSingle(e *etree.Element, preserve bool) {
	if preserve = preserve || isPreserved(e); preserve {
		return
	}

	if len(e.Child) == 1 {
		if text, ok := e.Child[0].(*etree.CharData); ok && !text.IsCData() {
			if ShrinkSpace(text.Data) == "" {
				e.RemoveChildAt(0)
			}
			return
		}
	}
	for _, child := range e.ChildElements() {
		removePCDataSingle(child, preserve)
	}
}

// trimParsed drops comments and whitespace-only text between siblings right after parsing, so that only text that is
// the single child of an element can be whitespace.
func trimParsed(e *etree.Element, preserve, keepComments bool) {
	preserve = preserve || isPreserved(e)
	if !keepComments {
		for i := len(e.Child) - 1; 0 <= i; i-- {
			if _, ok := e.Child[i].(*etree.Comment); ok {
				e.RemoveChildAt(i)
			}
		}
	}
	if !preserve && 1 < len(e.Child) {
		for i := len(e.Child) - 1; 0 <= i; i-- {
			if text, ok := e.Child[i].(*etree.CharData); ok && !text.IsCData() && isAllWhitespace(text.Data) {
				e.RemoveChildAt(i)
			}
		}
	}
	for _, child := range e.ChildElements() {
		trimParsed(child, preserve, keepComments)
	}
}
