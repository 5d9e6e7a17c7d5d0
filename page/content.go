// Package page models a fully loaded page content document and the
// structural transforms that operate on it. All functions here are pure
// in-memory tree manipulation; host round-trips belong to the service layer.
package page

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/foomo/onenote-mcp/hierarchy"
)

const (
	// HeadingStyle is the quick style name identifying level-1 headings.
	HeadingStyle = "h1"
	// HeadingSpaceBefore is the normalized space-before value, in the
	// host's points.
	HeadingSpaceBefore = "0.23"

	// MetaKindName / MetaKindTOCItem form the identity tag on generated
	// TOC entries so a later run can find and replace them.
	MetaKindName    = "kind"
	MetaKindTOCItem = "toc-item"
)

// Content wraps a parsed full-page XML document. A lightweight hierarchy
// node is not a Content; Parse rejects anything that is not recognizably a
// full page document.
type Content struct {
	doc  *etree.Document
	root *etree.Element
}

// Parse validates and wraps raw page content XML. The root must be a
// one:Page element carrying an ID and actual content children; a
// metadata-only page element from a hierarchy fetch does not qualify.
func Parse(raw string) (*Content, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", hierarchy.ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty page document", hierarchy.ErrMalformed)
	}
	if root.Space != "one" || root.Tag != "Page" {
		return nil, fmt.Errorf("%w: root element <%s> is not a one:Page", hierarchy.ErrMalformed, root.FullTag())
	}
	if root.SelectAttrValue("ID", "") == "" {
		return nil, fmt.Errorf("%w: page element without ID", hierarchy.ErrMalformed)
	}
	if len(root.ChildElements()) == 0 {
		return nil, fmt.Errorf("%w: page element has no content, looks like a lightweight hierarchy node", hierarchy.ErrMalformed)
	}
	return &Content{doc: doc, root: root}, nil
}

// PageID returns the page's opaque host identifier.
func (c *Content) PageID() string {
	return c.root.SelectAttrValue("ID", "")
}

// XML serializes the document back to the form the host accepts.
func (c *Content) XML() (string, error) {
	return c.doc.WriteToString()
}
