package categories

import (
	"slices"
	"strings"
)

const breadcrumbSeparator = " > "

// Tree indexes active categories by id. All traversal is by id lookup, and
// every walk keeps a visited set so a corrupted parent graph still terminates.
type Tree struct {
	byID     map[int64]*Category
	children map[int64][]int64
	roots    []int64
	// loop members cut from their parent
	detached map[int64]struct{}
}

// NewTree keeps only active, non-deleted rows. A row whose parent is missing
// or inactive becomes a root, and so does the smallest id of a parent loop.
func NewTree(rows []*Category) *Tree {
	return newTree(rows, false)
}

func newTree(rows []*Category, includeInactive bool) *Tree {
	t := &Tree{
		byID:     make(map[int64]*Category, len(rows)),
		children: make(map[int64][]int64),
		detached: make(map[int64]struct{}),
	}
	for _, c := range rows {
		if c == nil || c.DeletedAt != nil || (!c.IsActive && !includeInactive) {
			continue
		}
		t.byID[c.ID] = c
	}
	t.breakLoops()
	for id, c := range t.byID {
		if pid, ok := t.parentOf(c); ok {
			t.children[pid] = append(t.children[pid], id)
			continue
		}
		t.roots = append(t.roots, id)
	}
	return t
}

// breakLoops detaches the smallest id of every parent loop.
func (t *Tree) breakLoops() {
	const (
		walking = 1
		done    = 2
	)
	state := make(map[int64]int, len(t.byID))
	for start := range t.byID {
		var path []int64
		cur, looped := start, false
		for {
			if s := state[cur]; s != 0 {
				looped = s == walking
				break
			}
			state[cur] = walking
			path = append(path, cur)
			pid, ok := t.parentOf(t.byID[cur])
			if !ok {
				break
			}
			cur = pid
		}
		if looped {
			loop := path[slices.Index(path, cur):]
			t.detached[slices.Min(loop)] = struct{}{}
		}
		for _, id := range path {
			state[id] = done
		}
	}
}

func (t *Tree) parentOf(c *Category) (int64, bool) {
	if c.ParentID == nil || *c.ParentID == c.ID {
		return 0, false
	}
	if _, cut := t.detached[c.ID]; cut {
		return 0, false
	}
	if _, ok := t.byID[*c.ParentID]; !ok {
		return 0, false
	}
	return *c.ParentID, true
}

func (t *Tree) Get(id int64) (*Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

func (t *Tree) Len() int { return len(t.byID) }

// AncestorChain returns the ids from the root down to leafID, leafID last.
// It returns nil when leafID is not an active category.
func (t *Tree) AncestorChain(leafID int64) []int64 {
	if _, ok := t.byID[leafID]; !ok {
		return nil
	}

	var chain []int64
	seen := make(map[int64]struct{})
	cur := leafID
	for {
		if _, dup := seen[cur]; dup {
			break
		}
		seen[cur] = struct{}{}
		chain = append(chain, cur)

		pid, ok := t.parentOf(t.byID[cur])
		if !ok {
			break
		}
		cur = pid
	}

	slices.Reverse(chain)
	return chain
}

// DescendantsInclusive returns rootID and every category below it.
func (t *Tree) DescendantsInclusive(rootID int64) map[int64]struct{} {
	out := map[int64]struct{}{rootID: {}}
	queue := []int64{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range t.children[id] {
			if _, seen := out[child]; seen {
				continue
			}
			out[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return out
}

// IsDescendant reports whether id sits in the subtree of ancestorID,
// ancestorID itself included.
func (t *Tree) IsDescendant(ancestorID, id int64) bool {
	_, ok := t.DescendantsInclusive(ancestorID)[id]
	return ok
}

// Children returns the direct children of parentID sorted by name. A nil
// parentID returns the roots.
func (t *Tree) Children(parentID *int64) []*Category {
	var ids []int64
	if parentID == nil {
		ids = t.roots
	} else {
		ids = t.children[*parentID]
	}
	out := make([]*Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	slices.SortFunc(out, func(a, b *Category) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpID(a.ID, b.ID)
	})
	return out
}

// Forest renders every active category as a name-sorted display tree.
func (t *Tree) Forest() []*Node {
	all := make(map[int64]struct{}, len(t.byID))
	for id := range t.byID {
		all[id] = struct{}{}
	}
	return t.buildForest(all)
}

// buildForest links the nodes in include. A node whose parent is not in
// include becomes a root.
func (t *Tree) buildForest(include map[int64]struct{}) []*Node {
	nodes := make(map[int64]*Node, len(include))
	for id := range include {
		c, ok := t.byID[id]
		if !ok {
			continue
		}
		nodes[id] = &Node{ID: id, Name: c.Name, Children: []*Node{}}
	}

	var roots []*Node
	for id, n := range nodes {
		pid, ok := t.parentOf(t.byID[id])
		if parent, visible := nodes[pid]; ok && visible {
			parent.Children = append(parent.Children, n)
			continue
		}
		roots = append(roots, n)
	}

	sortNodes(roots)
	if roots == nil {
		roots = []*Node{}
	}
	return roots
}

func sortNodes(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpID(a.ID, b.ID)
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func cmpID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Locate resolves the breadcrumb and picker levels for id.
func (t *Tree) Locate(id int64) (*Location, error) {
	chain := t.AncestorChain(id)
	if chain == nil {
		return nil, ErrNotFound
	}

	loc := &Location{Path: make([]Crumb, 0, len(chain))}
	names := make([]string, 0, len(chain))
	for i, cid := range chain {
		c := t.byID[cid]
		loc.Path = append(loc.Path, Crumb{ID: c.ID, Name: c.Name})
		names = append(names, c.Name)
		if i < len(loc.Levels) {
			v := cid
			loc.Levels[i] = &v
		}
	}
	loc.Breadcrumb = strings.Join(names, breadcrumbSeparator)
	return loc, nil
}

// Breadcrumb renders "A > B > C" for id, or "" when id is unknown.
func (t *Tree) Breadcrumb(id int64) string {
	loc, err := t.Locate(id)
	if err != nil {
		return ""
	}
	return loc.Breadcrumb
}

// MatchName returns the ids of categories whose name contains text,
// ignoring case.
func (t *Tree) MatchName(text string) []int64 {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	var ids []int64
	for id, c := range t.byID {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// SubtreeIDs unions DescendantsInclusive over roots and returns sorted ids.
func (t *Tree) SubtreeIDs(roots ...int64) []int64 {
	set := make(map[int64]struct{})
	for _, r := range roots {
		for id := range t.DescendantsInclusive(r) {
			set[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
