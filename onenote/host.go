// Package onenote is the boundary to the external host application owning
// the notebook hierarchy. The engine consumes exactly four host operations;
// everything else about the host stays behind this package.
package onenote

import (
	"context"
	"errors"

	"github.com/foomo/onenote-mcp/hierarchy"
)

// ErrNodeNotFound is returned when an explicit node or page ID cannot be
// resolved by the host.
var ErrNodeNotFound = errors.New("node not found")

// Host is the four-operation interface to the external application. Host
// errors propagate unchanged to callers; the engine never retries them,
// since only the caller knows whether a retry is safe.
type Host interface {
	// FetchHierarchy returns raw hierarchy XML for the given scope,
	// rooted at startNodeID. An empty startNodeID means the whole
	// hierarchy root.
	FetchHierarchy(ctx context.Context, scope hierarchy.Scope, startNodeID string) (string, error)
	// FetchPageContent returns the full content subtree of one page.
	FetchPageContent(ctx context.Context, pageID string) (string, error)
	// PersistPageContent writes a full content subtree back to the host.
	PersistPageContent(ctx context.Context, rawContent string) error
	// ResolveLinkTarget returns a stable navigable reference to a
	// specific element within a page.
	ResolveLinkTarget(ctx context.Context, pageID, elementID string) (string, error)
}
