package vo

import "github.com/foomo/onenote-mcp/hierarchy"

// Node is the JSON view of a hierarchy subtree.
type Node struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Kind     string `json:"kind"`
	Current  bool   `json:"current,omitempty"`
	Children []Node `json:"children,omitempty"`
}

func FromNode(n *hierarchy.Node) Node {
	node := Node{
		ID:      n.ID,
		Name:    n.Name,
		Kind:    string(n.Kind),
		Current: n.Current,
	}
	for _, child := range n.Children {
		node.Children = append(node.Children, FromNode(child))
	}
	return node
}

func FromNodes(nodes []*hierarchy.Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = FromNode(n)
	}
	return out
}

// SiblingOrder reports the order of a parent's children after a reorder.
type SiblingOrder struct {
	ParentID string `json:"parentId,omitempty"`
	Order    []Node `json:"order"`
	// Condition carries a non-fatal reported condition such as an
	// out-of-bounds target position; the order is then unchanged.
	Condition string `json:"condition,omitempty"`
}

// TransformSummary is the JSON view of a content transform result.
type TransformSummary struct {
	PageID    string `json:"pageId"`
	Headings  int    `json:"headings"`
	Changed   bool   `json:"changed"`
	Persisted bool   `json:"persisted"`
	XML       string `json:"xml,omitempty"`
}
