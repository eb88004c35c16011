package xml

import (
	"github.com/beevik/etree"
	leanify "github.com/sunnyday2006/Leanify"
	"github.com/sunnyday2006/Leanify/b64"
	"go.uber.org/zap"
)

// leanifyFB2 recompresses the base64 encoded binaries of a FictionBook and removes those without an id, which
// cannot be referenced. Nothing is done at the maximum depth.
func (d *Document) leanifyFB2(c *leanify.Context) {
	if !c.Descend() {
		return
	}
	defer c.Ascend()

	log := c.Logger()
	root := d.topElement("FictionBook")
	for _, binary := range childElements(root, "binary") {
		id := selectAttr(binary, "id")
		if id == nil || id.Value == "" {
			root.RemoveChild(binary)
			continue
		}
		log.Info("binary", zap.String("id", id.Value))

		text := firstText(binary)
		if text == nil || text.Data == "" {
			log.Info("no data found", zap.String("id", id.Value))
			continue
		}

		// the tree's text is immutable, leanify a copy
		data := []byte(text.Data)
		n, err := b64.Leanify(c, data, 0)
		if err != nil {
			log.Debug("cannot leanify binary", zap.String("id", id.Value), zap.Error(err))
			continue
		}
		if n < len(text.Data) {
			text.Data = string(data[:n])
		}
	}
}

func firstText(e *etree.Element) *etree.CharData {
	for _, t := range e.Child {
		if text, ok := t.(*etree.CharData); ok {
			return text
		}
	}
	return nil
}
