package unit

import "github.com/google/uuid"

// Index answers ancestor/descendant questions over a snapshot of the unit
// tree. Guards depend on this interface instead of walking parent pointers
// inline, which keeps them testable without storage.
type Index interface {
	// IsDescendantOf reports whether id is ancestor itself or sits below
	// it. The reflexive case means "in the ancestor's scope".
	IsDescendantOf(id, ancestor uuid.UUID) bool
	Descendants(id uuid.UUID) []uuid.UUID
	Ancestors(id uuid.UUID) []uuid.UUID
	Exists(id uuid.UUID) bool
}

type treeIndex struct {
	parents  map[uuid.UUID]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
}

// BuildIndex precomputes the adjacency for a unit snapshot. Traversals are
// bounded by the node count, so a malformed parent cycle cannot hang a
// guard evaluation.
func BuildIndex(units []Unit) Index {
	idx := &treeIndex{
		parents:  make(map[uuid.UUID]uuid.UUID, len(units)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, u := range units {
		if u.ParentID != nil {
			idx.parents[u.ID] = *u.ParentID
			idx.children[*u.ParentID] = append(idx.children[*u.ParentID], u.ID)
		} else {
			idx.parents[u.ID] = uuid.Nil
		}
	}
	return idx
}

func (x *treeIndex) Exists(id uuid.UUID) bool {
	_, ok := x.parents[id]
	return ok
}

func (x *treeIndex) IsDescendantOf(id, ancestor uuid.UUID) bool {
	if !x.Exists(id) || !x.Exists(ancestor) {
		return false
	}
	cur := id
	for i := 0; i < len(x.parents)+1; i++ {
		if cur == ancestor {
			return true
		}
		parent, ok := x.parents[cur]
		if !ok || parent == uuid.Nil {
			return false
		}
		cur = parent
	}
	return false
}

func (x *treeIndex) Descendants(id uuid.UUID) []uuid.UUID {
	if !x.Exists(id) {
		return nil
	}
	var out []uuid.UUID
	seen := map[uuid.UUID]bool{id: true}
	queue := append([]uuid.UUID(nil), x.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, x.children[cur]...)
	}
	return out
}

func (x *treeIndex) Ancestors(id uuid.UUID) []uuid.UUID {
	if !x.Exists(id) {
		return nil
	}
	var out []uuid.UUID
	cur := id
	for i := 0; i < len(x.parents)+1; i++ {
		parent, ok := x.parents[cur]
		if !ok || parent == uuid.Nil {
			return out
		}
		out = append(out, parent)
		cur = parent
	}
	return out
}
