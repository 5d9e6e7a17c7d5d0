// Package hierarchy is the typed parse/validate boundary between the raw
// hierarchy XML handed out by the host application and the engine's node
// model. No mutation logic lives here.
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// Namespace is the host's page/hierarchy schema namespace, bound to the
// "one" prefix in all documents the host produces.
const Namespace = "http://schemas.microsoft.com/office/onenote/2013/onenote"

// ErrMalformed is returned when host data does not match the expected
// structural shape.
var ErrMalformed = errors.New("malformed hierarchy data")

type Kind string

const (
	// KindHierarchy is the synthetic root above all notebooks.
	KindHierarchy Kind = "hierarchy"
	KindNotebook  Kind = "notebook"
	KindSection   Kind = "section"
	KindPage      Kind = "page"
)

// Node is one element of the Notebook → Section → Page containment tree.
// Nodes are transient views fetched per query; the engine keeps no cache.
type Node struct {
	ID   string
	Name string
	Kind Kind
	// Current is the host-maintained "currently viewed" flag. At most one
	// sibling per level should carry it; the engine verifies, it cannot
	// enforce.
	Current  bool
	Children []*Node
}

// Parse converts raw hierarchy XML into a Node tree. The root element must
// be one of the recognized hierarchy elements; unrecognized siblings deeper
// in the tree are skipped.
func Parse(raw string) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	kind, ok := kindForElement(root)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrMalformed, root.FullTag())
	}
	return parseElement(root, kind)
}

func parseElement(el *etree.Element, kind Kind) (*Node, error) {
	node := &Node{Kind: kind}
	if kind != KindHierarchy {
		node.ID = el.SelectAttrValue("ID", "")
		if node.ID == "" {
			return nil, fmt.Errorf("%w: <%s> element without ID", ErrMalformed, el.FullTag())
		}
		node.Name = el.SelectAttrValue("name", "")
		node.Current = el.SelectAttrValue("isCurrentlyViewed", "") == "true"
	}
	for _, child := range el.ChildElements() {
		childKind, ok := kindForElement(child)
		if !ok || childKind == KindHierarchy {
			continue
		}
		childNode, err := parseElement(child, childKind)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

func kindForElement(el *etree.Element) (Kind, bool) {
	if el.Space != "one" {
		return "", false
	}
	switch el.Tag {
	case "Notebooks":
		return KindHierarchy, true
	case "Notebook":
		return KindNotebook, true
	case "Section":
		return KindSection, true
	case "Page":
		return KindPage, true
	}
	return "", false
}
