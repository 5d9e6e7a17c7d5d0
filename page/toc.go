package page

import (
	"fmt"

	"github.com/beevik/etree"
)

// TOCItem is one generated table-of-contents entry.
type TOCItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// RemoveTOCItems deletes every outline element tagged as generated TOC
// output, wherever it sits in the document, and reports how many were
// removed. Running it before insertion is what makes the TOC transform
// idempotent, regardless of prior malformed state.
func RemoveTOCItems(c *Content) int {
	var tagged []*etree.Element
	for _, oe := range c.root.FindElements("//one:OE") {
		if isTOCItem(oe) {
			tagged = append(tagged, oe)
		}
	}
	for _, oe := range tagged {
		if parent := oe.Parent(); parent != nil {
			parent.RemoveChild(oe)
		}
	}
	return len(tagged)
}

// InsertTOCItems splices the given entries at the very top of the page's
// first outline, preserving their order. An outline is created when the
// page has none.
func InsertTOCItems(c *Content, items []TOCItem) {
	if len(items) == 0 {
		return
	}
	children := firstOutlineChildren(c)
	for i, item := range items {
		children.InsertChildAt(i, newTOCItemElement(item))
	}
}

func isTOCItem(oe *etree.Element) bool {
	for _, meta := range oe.SelectElements("one:Meta") {
		if meta.SelectAttrValue("name", "") == MetaKindName &&
			meta.SelectAttrValue("content", "") == MetaKindTOCItem {
			return true
		}
	}
	return false
}

func newTOCItemElement(item TOCItem) *etree.Element {
	oe := etree.NewElement("one:OE")
	meta := oe.CreateElement("one:Meta")
	meta.CreateAttr("name", MetaKindName)
	meta.CreateAttr("content", MetaKindTOCItem)
	t := oe.CreateElement("one:T")
	t.CreateCData(fmt.Sprintf(`<a href="%s">%s</a>`, item.Link, item.Title))
	return oe
}

func firstOutlineChildren(c *Content) *etree.Element {
	outline := c.root.FindElement("//one:Outline")
	if outline == nil {
		outline = c.root.CreateElement("one:Outline")
	}
	children := outline.SelectElement("one:OEChildren")
	if children == nil {
		children = outline.CreateElement("one:OEChildren")
	}
	return children
}
