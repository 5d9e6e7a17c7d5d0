package service

import "errors"

var (
	// ErrAmbiguousCurrent means more than one sibling carries the
	// currently-viewed flag. This is a data-consistency problem in the
	// host, never silently resolved by picking one.
	ErrAmbiguousCurrent = errors.New("more than one currently active node")

	// ErrPositionOutOfBounds is a reported condition on Reorder with an
	// invalid target index. The parent is returned unchanged; the
	// condition does not abort a surrounding pipeline.
	ErrPositionOutOfBounds = errors.New("target position out of bounds")

	// ErrInvalidPageReference is the precondition failure of a content
	// transform given neither preloaded content nor a page ID.
	ErrInvalidPageReference = errors.New("missing page reference")
)
