package revision

import "errors"

var (
	// ErrNoHead is returned when a head is required but the graph is empty.
	ErrNoHead = errors.New("revision graph has no head")

	// ErrMultipleHeads is returned when a single head is required but the
	// graph has diverged.
	ErrMultipleHeads = errors.New("revision graph has multiple heads")

	// ErrUnknownRevision is returned when a target revision id does not
	// exist in the graph.
	ErrUnknownRevision = errors.New("unknown revision")
)
