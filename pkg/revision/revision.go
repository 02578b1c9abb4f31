// Package revision models a directory of SQL migration scripts as a
// directed acyclic revision graph.
//
// Each script declares an opaque revision id and zero or more parent ids
// (multiple parents form a merge revision). The graph exposes the structural
// queries the drift detectors need: heads, missing parent links, ancestry
// closures, and the topological order used when applying migrations.
package revision

import (
	"fmt"
	"sort"
)

// Revision is one migration script. Immutable once authored.
type Revision struct {
	// ID is the opaque revision identifier.
	ID string

	// Parents holds the down-revision ids. Empty for a root revision,
	// more than one for a merge revision.
	Parents []string

	// Message is the human-readable description from the script header.
	Message string

	// Path is the script's location on disk.
	Path string

	// SQL is the upgrade body applied when migrating through this revision.
	SQL string
}

// MissingLink records a parent reference that resolves to no known revision.
type MissingLink struct {
	Revision      string
	MissingParent string
}

// Graph is the set of all revisions connected by parent links.
type Graph struct {
	revs map[string]*Revision

	// ids in sorted order so every traversal is deterministic
	ids []string
}

// NewGraph builds a graph from the given revisions.
// Duplicate ids are an error; dangling parent references are not (they are
// exactly what MissingLinks reports).
func NewGraph(revs []*Revision) (*Graph, error) {
	g := &Graph{revs: make(map[string]*Revision, len(revs))}
	for _, r := range revs {
		if r.ID == "" {
			return nil, fmt.Errorf("revision at %s has an empty id", r.Path)
		}
		if prev, ok := g.revs[r.ID]; ok {
			return nil, fmt.Errorf("duplicate revision id %q (%s and %s)", r.ID, prev.Path, r.Path)
		}
		g.revs[r.ID] = r
		g.ids = append(g.ids, r.ID)
	}
	sort.Strings(g.ids)
	return g, nil
}

// Get returns the revision with the given id.
func (g *Graph) Get(id string) (*Revision, bool) {
	r, ok := g.revs[id]
	return r, ok
}

// Len returns the number of revisions in the graph.
func (g *Graph) Len() int {
	return len(g.ids)
}

// IDs returns all revision ids in sorted order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Heads returns the revisions no other revision declares as a parent,
// sorted by id. A healthy graph has exactly one.
func (g *Graph) Heads() []string {
	referenced := make(map[string]bool, len(g.revs))
	for _, id := range g.ids {
		for _, p := range g.revs[id].Parents {
			referenced[p] = true
		}
	}
	var heads []string
	for _, id := range g.ids {
		if !referenced[id] {
			heads = append(heads, id)
		}
	}
	return heads
}

// Head returns the single head of the graph.
// It fails when the graph is empty or has diverged into multiple heads.
func (g *Graph) Head() (string, error) {
	heads := g.Heads()
	switch len(heads) {
	case 0:
		return "", ErrNoHead
	case 1:
		return heads[0], nil
	default:
		return "", fmt.Errorf("%w: %d heads", ErrMultipleHeads, len(heads))
	}
}

// MissingLinks walks every revision (not just heads) and reports each parent
// reference that does not resolve to a revision in the graph.
func (g *Graph) MissingLinks() []MissingLink {
	var missing []MissingLink
	for _, id := range g.ids {
		for _, p := range g.revs[id].Parents {
			if _, ok := g.revs[p]; !ok {
				missing = append(missing, MissingLink{Revision: id, MissingParent: p})
			}
		}
	}
	return missing
}

// Ancestry returns the ancestors-or-self closure of the given ids.
// Parent references outside the graph are ignored.
func (g *Graph) Ancestry(ids ...string) map[string]bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), ids...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r, ok := g.revs[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, r.Parents...)
	}
	return seen
}

// PendingOrder returns the revisions that must be applied to move a database
// whose applied closure is `applied` up to `target`, in an order where every
// revision follows all of its in-graph parents. The order is deterministic.
func (g *Graph) PendingOrder(applied map[string]bool, target string) ([]string, error) {
	if _, ok := g.revs[target]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRevision, target)
	}

	wanted := g.Ancestry(target)
	pending := make(map[string]bool, len(wanted))
	for id := range wanted {
		if !applied[id] {
			pending[id] = true
		}
	}

	var order []string
	// permanent/temporary marks for cycle detection
	done := make(map[string]bool, len(pending))
	visiting := make(map[string]bool, len(pending))

	var visit func(id string) error
	visit = func(id string) error {
		if done[id] || !pending[id] {
			return nil
		}
		if visiting[id] {
			return fmt.Errorf("revision graph contains a cycle through %q", id)
		}
		visiting[id] = true
		parents := append([]string(nil), g.revs[id].Parents...)
		sort.Strings(parents)
		for _, p := range parents {
			if _, ok := g.revs[p]; ok {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		visiting[id] = false
		done[id] = true
		order = append(order, id)
		return nil
	}

	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}
