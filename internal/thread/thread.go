// Package thread indexes a flat list of comments as a reply tree.
//
// Nodes live in a slice in input order; parent links are resolved through an
// id lookup so no pointers between nodes are kept.
package thread

import "namethatobject/internal/models"

// Index is an arena of comments keyed by id with child lists per parent.
type Index struct {
	nodes    []models.Comment
	position map[uint]int
	children map[uint][]uint
	roots    []uint
}

// Build indexes comments. Input order is preserved in every child list, so
// comments given in creation order yield replies in creation order. A comment
// whose parent is not part of the input is treated as a root.
func Build(comments []models.Comment) *Index {
	idx := &Index{
		nodes:    make([]models.Comment, len(comments)),
		position: make(map[uint]int, len(comments)),
		children: make(map[uint][]uint),
	}
	copy(idx.nodes, comments)
	for i, c := range idx.nodes {
		idx.position[c.ID] = i
	}
	for _, c := range idx.nodes {
		if c.ParentID != nil {
			if _, ok := idx.position[*c.ParentID]; ok {
				idx.children[*c.ParentID] = append(idx.children[*c.ParentID], c.ID)
				continue
			}
		}
		idx.roots = append(idx.roots, c.ID)
	}
	return idx
}

// Len is the number of indexed comments.
func (x *Index) Len() int { return len(x.nodes) }

// Get returns the comment with the given id.
func (x *Index) Get(id uint) (models.Comment, bool) {
	i, ok := x.position[id]
	if !ok {
		return models.Comment{}, false
	}
	return x.nodes[i], true
}

// Replies returns the ids of the direct children of id.
func (x *Index) Replies(id uint) []uint {
	kids := x.children[id]
	out := make([]uint, len(kids))
	copy(out, kids)
	return out
}

// Roots returns the ids of top-level comments.
func (x *Index) Roots() []uint {
	out := make([]uint, len(x.roots))
	copy(out, x.roots)
	return out
}

// Subtree returns id followed by all its descendants, breadth first.
// It returns nil when id is not indexed.
func (x *Index) Subtree(id uint) []uint {
	if _, ok := x.position[id]; !ok {
		return nil
	}
	out := []uint{id}
	visited := map[uint]struct{}{id: {}}
	for i := 0; i < len(out); i++ {
		for _, child := range x.children[out[i]] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			out = append(out, child)
		}
	}
	return out
}

// Contains reports whether target is id itself or one of its descendants.
func (x *Index) Contains(id, target uint) bool {
	for _, n := range x.Subtree(id) {
		if n == target {
			return true
		}
	}
	return false
}

// Comments returns the indexed comments in input order with Replies filled in.
func (x *Index) Comments() []models.Comment {
	out := make([]models.Comment, len(x.nodes))
	for i, c := range x.nodes {
		c.Replies = x.Replies(c.ID)
		out[i] = c
	}
	return out
}
