// Package thread rebuilds the reply tree of an article's flat comment collection.
package thread

import (
	"errors"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/ranking"
)

// ErrCycle is returned when a parent chain revisits a comment
var ErrCycle = errors.New("comment parent chain contains a cycle")

// Node is a comment with its ordered direct replies
type Node struct {
	*models.Comment
	Replies []*Node `json:"replies"`
}

// Thread is a read-only projection of a comment collection. Comments held
// by the thread are copies with Score populated; the input is never mutated.
type Thread struct {
	mode     models.SortMode
	byID     map[string]*models.Comment
	roots    []*models.Comment
	children map[string][]*models.Comment
	orphans  []*models.Comment
}

// Build groups comments by parent and orders every group by mode
func Build(comments []*models.Comment, mode models.SortMode) *Thread {
	t := &Thread{
		mode:     mode,
		byID:     make(map[string]*models.Comment, len(comments)),
		children: make(map[string][]*models.Comment),
	}

	for _, c := range comments {
		cp := c.Clone()
		cp.Score = ranking.Score(cp.Likes, cp.Dislikes)
		t.byID[cp.ID] = cp
	}

	// second pass keeps the collection order inside each group
	placed := make(map[string]bool, len(comments))
	for _, c := range comments {
		if placed[c.ID] {
			continue
		}
		placed[c.ID] = true
		cp := t.byID[c.ID]
		if cp.IsRoot() {
			t.roots = append(t.roots, cp)
			continue
		}
		t.children[cp.ParentID] = append(t.children[cp.ParentID], cp)
		if _, ok := t.byID[cp.ParentID]; !ok {
			t.orphans = append(t.orphans, cp)
		}
	}

	ranking.Sort(t.roots, mode)
	for _, group := range t.children {
		ranking.Sort(group, mode)
	}

	return t
}

// Mode returns the ordering the thread was built with
func (t *Thread) Mode() models.SortMode {
	return t.mode
}

// Len returns the number of comments in the thread
func (t *Thread) Len() int {
	return len(t.byID)
}

// Get returns the comment with the given id, or nil
func (t *Thread) Get(id string) *models.Comment {
	return t.byID[id]
}

// Roots returns the comments attached directly to the article
func (t *Thread) Roots() []*models.Comment {
	out := make([]*models.Comment, len(t.roots))
	copy(out, t.roots)
	return out
}

// Replies returns the direct replies of parentID
func (t *Thread) Replies(parentID string) []*models.Comment {
	group := t.children[parentID]
	out := make([]*models.Comment, len(group))
	copy(out, group)
	return out
}

// Orphans returns replies whose parent is not in the collection.
// They are unreachable from Roots.
func (t *Thread) Orphans() []*models.Comment {
	out := make([]*models.Comment, len(t.orphans))
	copy(out, t.orphans)
	return out
}

// Walk visits every comment reachable from the roots depth-first, in order.
// Returning false from fn stops the walk.
func (t *Thread) Walk(fn func(c *models.Comment, depth int) bool) {
	visited := make(map[string]bool, len(t.byID))

	var visit func(c *models.Comment, depth int) bool
	visit = func(c *models.Comment, depth int) bool {
		if visited[c.ID] {
			return true
		}
		visited[c.ID] = true
		if !fn(c, depth) {
			return false
		}
		for _, r := range t.children[c.ID] {
			if !visit(r, depth+1) {
				return false
			}
		}
		return true
	}

	for _, r := range t.roots {
		if !visit(r, 0) {
			return
		}
	}
}

// Tree returns the nested reply tree under the roots
func (t *Thread) Tree() []*Node {
	visited := make(map[string]bool, len(t.byID))

	var build func(c *models.Comment) *Node
	build = func(c *models.Comment) *Node {
		visited[c.ID] = true
		n := &Node{Comment: c, Replies: []*Node{}}
		for _, r := range t.children[c.ID] {
			if visited[r.ID] {
				continue
			}
			n.Replies = append(n.Replies, build(r))
		}
		return n
	}

	nodes := make([]*Node, 0, len(t.roots))
	for _, r := range t.roots {
		if visited[r.ID] {
			continue
		}
		nodes = append(nodes, build(r))
	}
	return nodes
}

// Ancestors returns the parent chain of id, nearest first. A chain that
// ends at a missing comment stops there.
func (t *Thread) Ancestors(id string) ([]*models.Comment, error) {
	return Ancestors(t.byID, id)
}

// Ancestors follows parent links from id through byID
func Ancestors(byID map[string]*models.Comment, id string) ([]*models.Comment, error) {
	seen := map[string]bool{id: true}
	var chain []*models.Comment

	c := byID[id]
	for c != nil && !c.IsRoot() {
		if seen[c.ParentID] {
			return chain, ErrCycle
		}
		seen[c.ParentID] = true
		parent, ok := byID[c.ParentID]
		if !ok {
			break
		}
		chain = append(chain, parent)
		c = parent
	}
	return chain, nil
}

// Index maps comments by id
func Index(comments []*models.Comment) map[string]*models.Comment {
	byID := make(map[string]*models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}
	return byID
}
