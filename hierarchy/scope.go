package hierarchy

import "fmt"

// Scope controls how far below a start node a hierarchy query expands.
// The five levels mirror the host's own retrieval granularity.
type Scope int

const (
	ScopeSelf Scope = iota
	ScopeChildren
	ScopeNotebooks
	ScopeSections
	ScopePages
)

func (s Scope) String() string {
	switch s {
	case ScopeSelf:
		return "self"
	case ScopeChildren:
		return "children"
	case ScopeNotebooks:
		return "notebooks"
	case ScopeSections:
		return "sections"
	case ScopePages:
		return "pages"
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// ParseScope maps the wire/tool representation back to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "self":
		return ScopeSelf, nil
	case "children":
		return ScopeChildren, nil
	case "notebooks":
		return ScopeNotebooks, nil
	case "sections":
		return ScopeSections, nil
	case "pages":
		return ScopePages, nil
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}
