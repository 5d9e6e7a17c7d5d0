// Package service is the hierarchy query-and-mutation engine: scoped
// subtree queries, name/current filtering, child reordering and the page
// content transforms. Every operation starts from state fetched through the
// injected host; the engine keeps no cache and never retries host calls.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/foomo/onenote-mcp/hierarchy"
	"github.com/foomo/onenote-mcp/onenote"
	"github.com/foomo/onenote-mcp/page"
)

type Service interface {
	// Query returns the subtree rooted at startNodeID, truncated at the
	// requested scope depth. An empty startNodeID queries the whole
	// hierarchy root.
	Query(ctx context.Context, scope hierarchy.Scope, startNodeID string) (*hierarchy.Node, error)
	// FilterByName keeps the nodes whose name matches the wildcard
	// pattern or starts with its literal text, case-insensitively.
	FilterByName(nodes []*hierarchy.Node, pattern string) []*hierarchy.Node
	// FindCurrent returns the single currently active node among the
	// given siblings, nil when there is none, and ErrAmbiguousCurrent
	// when the host's at-most-one invariant is violated.
	FindCurrent(nodes []*hierarchy.Node) (*hierarchy.Node, error)
	// FindByID returns the node with the exact ID, or nil.
	FindByID(nodes []*hierarchy.Node, id string) *hierarchy.Node
	// Reorder moves one child of parent to targetIndex among its
	// siblings, keeping every other sibling's relative order.
	Reorder(parent *hierarchy.Node, childID string, targetIndex int) (*hierarchy.Node, error)
	// NormalizeHeadingSpacing normalizes the level-1 heading style's
	// space-before and clears element-level overrides.
	NormalizeHeadingSpacing(ctx context.Context, in TransformInput) (*TransformResult, error)
	// RebuildTOC regenerates the page's table of contents from its
	// level-1 headings, idempotently replacing prior generated entries.
	RebuildTOC(ctx context.Context, in TransformInput) (*TransformResult, error)
}

// TransformInput selects the page a content transform operates on: either
// preloaded full content, or a page ID to fetch through the host. Persist
// must be set explicitly; transforms never write back on their own.
type TransformInput struct {
	PageID  string
	Content *page.Content
	Persist bool
}

// TransformResult carries the mutated content back to the caller, who
// decides whether and how to persist it unless Persist was requested.
type TransformResult struct {
	Content   *page.Content
	Headings  int
	Changed   bool
	Persisted bool
}

type service struct {
	host   onenote.Host
	logger *zap.Logger
}

func NewService(host onenote.Host, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		host:   host,
		logger: logger,
	}
}

func (s *service) Query(ctx context.Context, scope hierarchy.Scope, startNodeID string) (*hierarchy.Node, error) {
	raw, err := s.host.FetchHierarchy(ctx, scope, startNodeID)
	if err != nil {
		return nil, err
	}
	node, err := hierarchy.Parse(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("hierarchy query",
		zap.Stringer("scope", scope),
		zap.String("startNodeID", startNodeID),
		zap.Int("children", len(node.Children)),
	)
	return node, nil
}

func (s *service) FilterByName(nodes []*hierarchy.Node, pattern string) []*hierarchy.Node {
	matcher := newNameMatcher(pattern)
	matches := make([]*hierarchy.Node, 0, len(nodes))
	for _, node := range nodes {
		if matcher.match(node.Name) {
			matches = append(matches, node)
		}
	}
	return matches
}

func (s *service) FindCurrent(nodes []*hierarchy.Node) (*hierarchy.Node, error) {
	var found *hierarchy.Node
	for _, node := range nodes {
		if !node.Current {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q and %q", ErrAmbiguousCurrent, found.Name, node.Name)
		}
		found = node
	}
	return found, nil
}

func (s *service) FindByID(nodes []*hierarchy.Node, id string) *hierarchy.Node {
	for _, node := range nodes {
		if node.ID == id {
			return node
		}
	}
	return nil
}

func (s *service) Reorder(parent *hierarchy.Node, childID string, targetIndex int) (*hierarchy.Node, error) {
	if parent == nil {
		return nil, fmt.Errorf("reorder without parent: %w", onenote.ErrNodeNotFound)
	}
	if targetIndex < 0 || targetIndex >= len(parent.Children) {
		return parent, fmt.Errorf("%w: index %d with %d siblings", ErrPositionOutOfBounds, targetIndex, len(parent.Children))
	}
	current := -1
	for i, child := range parent.Children {
		if child.ID == childID {
			current = i
			break
		}
	}
	if current < 0 {
		return parent, fmt.Errorf("reorder child %q: %w", childID, onenote.ErrNodeNotFound)
	}
	if current == targetIndex {
		return parent, nil
	}

	// Detach the child and reinsert it immediately before the sibling
	// occupying targetIndex at call time; all other siblings keep their
	// relative order.
	child := parent.Children[current]
	anchor := parent.Children[targetIndex]
	children := make([]*hierarchy.Node, 0, len(parent.Children))
	for _, sibling := range parent.Children {
		if sibling == child {
			continue
		}
		if sibling == anchor {
			children = append(children, child)
		}
		children = append(children, sibling)
	}
	parent.Children = children
	return parent, nil
}

func (s *service) NormalizeHeadingSpacing(ctx context.Context, in TransformInput) (*TransformResult, error) {
	content, err := s.resolveContent(ctx, in)
	if err != nil {
		return nil, err
	}
	spacing := page.NormalizeSpacing(content)
	s.logger.Debug("normalized heading spacing",
		zap.String("pageID", content.PageID()),
		zap.Int("styleDefs", spacing.StyleDefs),
		zap.Int("headings", spacing.Headings),
		zap.Int("overrides", spacing.Overrides),
	)
	result := &TransformResult{
		Content:  content,
		Headings: spacing.Headings,
		Changed:  spacing.StyleDefs > 0,
	}
	if err := s.maybePersist(ctx, in, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RebuildTOC(ctx context.Context, in TransformInput) (*TransformResult, error) {
	content, err := s.resolveContent(ctx, in)
	if err != nil {
		return nil, err
	}

	headings := page.Headings(content)
	items := make([]page.TOCItem, 0, len(headings))
	for _, heading := range headings {
		if heading.ObjectID == "" {
			// No element ID means the host cannot mint a link target.
			s.logger.Warn("skipping heading without object id",
				zap.String("pageID", content.PageID()),
				zap.String("title", heading.Title),
			)
			continue
		}
		link, err := s.host.ResolveLinkTarget(ctx, content.PageID(), heading.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve link for heading %q: %w", heading.Title, err)
		}
		items = append(items, page.TOCItem{Title: heading.Title, Link: link})
	}

	removed := page.RemoveTOCItems(content)
	page.InsertTOCItems(content, items)
	s.logger.Debug("rebuilt table of contents",
		zap.String("pageID", content.PageID()),
		zap.Int("entries", len(items)),
		zap.Int("removed", removed),
	)

	result := &TransformResult{
		Content:  content,
		Headings: len(items),
		Changed:  removed > 0 || len(items) > 0,
	}
	if err := s.maybePersist(ctx, in, result); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveContent returns the transform's working document: the preloaded
// content when given, otherwise a fresh fetch by page ID.
func (s *service) resolveContent(ctx context.Context, in TransformInput) (*page.Content, error) {
	if in.Content != nil {
		return in.Content, nil
	}
	if in.PageID == "" {
		return nil, ErrInvalidPageReference
	}
	raw, err := s.host.FetchPageContent(ctx, in.PageID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page content: %w", err)
	}
	return page.Parse(raw)
}

// maybePersist performs the transform's single optional write: only when
// explicitly requested, and only when the transform changed anything.
func (s *service) maybePersist(ctx context.Context, in TransformInput, result *TransformResult) error {
	if !in.Persist || !result.Changed {
		return nil
	}
	raw, err := result.Content.XML()
	if err != nil {
		return fmt.Errorf("failed to serialize page content: %w", err)
	}
	if err := s.host.PersistPageContent(ctx, raw); err != nil {
		return err
	}
	result.Persisted = true
	return nil
}
