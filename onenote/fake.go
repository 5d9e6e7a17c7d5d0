package onenote

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	"github.com/foomo/onenote-mcp/hierarchy"
)

// FakeNode is one node of a FakeHost's in-memory hierarchy.
type FakeNode struct {
	ID       string
	Name     string
	Kind     hierarchy.Kind
	Current  bool
	Children []*FakeNode
}

func (n *FakeNode) add(child *FakeNode) *FakeNode {
	n.Children = append(n.Children, child)
	return child
}

// AddNotebook appends a notebook below the hierarchy root.
func (n *FakeNode) AddNotebook(id, name string, current bool) *FakeNode {
	return n.add(&FakeNode{ID: id, Name: name, Kind: hierarchy.KindNotebook, Current: current})
}

// AddSection appends a section below a notebook.
func (n *FakeNode) AddSection(id, name string, current bool) *FakeNode {
	return n.add(&FakeNode{ID: id, Name: name, Kind: hierarchy.KindSection, Current: current})
}

// AddPage appends a page below a section.
func (n *FakeNode) AddPage(id, name string, current bool) *FakeNode {
	return n.add(&FakeNode{ID: id, Name: name, Kind: hierarchy.KindPage, Current: current})
}

func (n *FakeNode) find(id string) *FakeNode {
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := child.find(id); found != nil {
			return found
		}
	}
	return nil
}

// FakeHost is an in-memory Host for tests: a mutable hierarchy, a page
// content store and a record of every persisted document.
type FakeHost struct {
	Root      *FakeNode
	Pages     map[string]string
	Persisted []string
	// LinkFormat renders resolved link targets from page and element ID.
	LinkFormat string
}

var _ Host = &FakeHost{}

func NewFakeHost() *FakeHost {
	return &FakeHost{
		Root:       &FakeNode{Kind: hierarchy.KindHierarchy},
		Pages:      map[string]string{},
		LinkFormat: "onenote:#page-id=%s&object-id=%s",
	}
}

// SetPageContent installs raw content XML for a page ID.
func (f *FakeHost) SetPageContent(pageID, raw string) {
	f.Pages[pageID] = raw
}

func (f *FakeHost) FetchHierarchy(ctx context.Context, scope hierarchy.Scope, startNodeID string) (string, error) {
	start := f.Root
	if startNodeID != "" {
		start = f.Root.find(startNodeID)
		if start == nil {
			return "", fmt.Errorf("hierarchy start %q: %w", startNodeID, ErrNodeNotFound)
		}
	}
	doc := etree.NewDocument()
	el := renderNode(start, scope)
	el.CreateAttr("xmlns:one", hierarchy.Namespace)
	doc.SetRoot(el)
	return doc.WriteToString()
}

func (f *FakeHost) FetchPageContent(ctx context.Context, pageID string) (string, error) {
	raw, ok := f.Pages[pageID]
	if !ok {
		return "", fmt.Errorf("page %q: %w", pageID, ErrNodeNotFound)
	}
	return raw, nil
}

func (f *FakeHost) PersistPageContent(ctx context.Context, rawContent string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(rawContent); err != nil {
		return fmt.Errorf("persist rejected: %w", err)
	}
	root := doc.Root()
	if root == nil || root.SelectAttrValue("ID", "") == "" {
		return fmt.Errorf("persist rejected: content has no page ID")
	}
	f.Persisted = append(f.Persisted, rawContent)
	f.Pages[root.SelectAttrValue("ID", "")] = rawContent
	return nil
}

func (f *FakeHost) ResolveLinkTarget(ctx context.Context, pageID, elementID string) (string, error) {
	if _, ok := f.Pages[pageID]; !ok {
		return "", fmt.Errorf("page %q: %w", pageID, ErrNodeNotFound)
	}
	return fmt.Sprintf(f.LinkFormat, pageID, elementID), nil
}

func renderNode(n *FakeNode, scope hierarchy.Scope) *etree.Element {
	el := etree.NewElement(tagForKind(n.Kind))
	if n.Kind != hierarchy.KindHierarchy {
		el.CreateAttr("ID", n.ID)
		el.CreateAttr("name", n.Name)
		if n.Current {
			el.CreateAttr("isCurrentlyViewed", "true")
		}
	}
	if scope == hierarchy.ScopeSelf {
		return el
	}
	for _, child := range n.Children {
		if !expandsTo(scope, child.Kind) {
			continue
		}
		childScope := scope
		if scope == hierarchy.ScopeChildren {
			childScope = hierarchy.ScopeSelf
		}
		el.AddChild(renderNode(child, childScope))
	}
	return el
}

func tagForKind(kind hierarchy.Kind) string {
	switch kind {
	case hierarchy.KindNotebook:
		return "one:Notebook"
	case hierarchy.KindSection:
		return "one:Section"
	case hierarchy.KindPage:
		return "one:Page"
	}
	return "one:Notebooks"
}

func levelForKind(kind hierarchy.Kind) int {
	switch kind {
	case hierarchy.KindNotebook:
		return 1
	case hierarchy.KindSection:
		return 2
	case hierarchy.KindPage:
		return 3
	}
	return 0
}

func expandsTo(scope hierarchy.Scope, kind hierarchy.Kind) bool {
	switch scope {
	case hierarchy.ScopeChildren:
		return true
	case hierarchy.ScopeNotebooks:
		return levelForKind(kind) <= 1
	case hierarchy.ScopeSections:
		return levelForKind(kind) <= 2
	case hierarchy.ScopePages:
		return levelForKind(kind) <= 3
	}
	return false
}
