// Package hierarchy holds the parent-linked tree logic shared by the chart
// of accounts and the expense categories. Both entity kinds obey the same
// rules (bounded depth, no cycles, orphans surface as roots), so the walks
// are implemented once and parameterized by entity kind.
package hierarchy

import "sort"

// Node is any entity that participates in a bounded-depth hierarchy.
type Node interface {
	NodeID() int64
	NodeParentID() *int64
	NodeLevel() int
	NodeCode() string
	NodeIsSystem() bool
}

// TreeNode wraps one entity together with its resolved children.
type TreeNode[T Node] struct {
	Item     T              `json:"item"`
	Children []*TreeNode[T] `json:"children"`
}

// Forest is the result of arranging a shop's flat node set into trees.
// Nodes whose parent reference cannot be resolved are kept as roots and
// reported through OrphanIDs so the inconsistency is visible to callers.
type Forest[T Node] struct {
	Roots     []*TreeNode[T] `json:"roots"`
	OrphanIDs []int64        `json:"orphan_ids,omitempty"`
}

// ChildLevel returns the level a direct child of parent must carry.
// The caller is responsible for fetching the parent and for enforcing the
// depth cap before creating the child.
func ChildLevel(parent Node) int {
	return parent.NodeLevel() + 1
}

// WouldCreateCycle reports whether re-parenting nodeID under
// proposedParentID would introduce a cycle. It walks the parent chain
// starting at the proposed parent; reaching nodeID means a cycle, and a
// visited set terminates the walk even if the stored data already
// contains one. proposedParentID == nodeID counts as a cycle of length zero.
func WouldCreateCycle[T Node](nodes []T, nodeID, proposedParentID int64) bool {
	if proposedParentID == nodeID {
		return true
	}
	parents := make(map[int64]*int64, len(nodes))
	for _, n := range nodes {
		parents[n.NodeID()] = n.NodeParentID()
	}
	visited := make(map[int64]bool)
	current := proposedParentID
	for {
		if current == nodeID {
			return true
		}
		if visited[current] {
			// Pre-existing cycle in stored data; it does not involve nodeID.
			return true
		}
		visited[current] = true
		parent, ok := parents[current]
		if !ok || parent == nil {
			return false
		}
		current = *parent
	}
}

// CollectSubtree returns the ids of rootID and all of its descendants,
// breadth first. Used by reparenting to relevel and depth-check a whole
// subtree before any write.
func CollectSubtree[T Node](nodes []T, rootID int64) []int64 {
	children := make(map[int64][]int64)
	for _, n := range nodes {
		if p := n.NodeParentID(); p != nil {
			children[*p] = append(children[*p], n.NodeID())
		}
	}
	ids := []int64{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

// BuildForest arranges a flat node set into trees. Siblings are ordered
// system nodes first, then lexicographically by code.
func BuildForest[T Node](nodes []T) Forest[T] {
	index := make(map[int64]*TreeNode[T], len(nodes))
	for _, n := range nodes {
		index[n.NodeID()] = &TreeNode[T]{Item: n, Children: []*TreeNode[T]{}}
	}

	var forest Forest[T]
	for _, n := range nodes {
		node := index[n.NodeID()]
		parentID := n.NodeParentID()
		if parentID == nil {
			forest.Roots = append(forest.Roots, node)
			continue
		}
		parent, ok := index[*parentID]
		if !ok {
			// Orphaned reference: keep the subtree reachable, report the node.
			forest.Roots = append(forest.Roots, node)
			forest.OrphanIDs = append(forest.OrphanIDs, n.NodeID())
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortSiblings(forest.Roots)
	for _, root := range forest.Roots {
		sortChildrenRecursive(root)
	}
	return forest
}

func sortChildrenRecursive[T Node](node *TreeNode[T]) {
	sortSiblings(node.Children)
	for _, child := range node.Children {
		sortChildrenRecursive(child)
	}
}

func sortSiblings[T Node](siblings []*TreeNode[T]) {
	sort.SliceStable(siblings, func(i, j int) bool {
		a, b := siblings[i].Item, siblings[j].Item
		if a.NodeIsSystem() != b.NodeIsSystem() {
			return a.NodeIsSystem()
		}
		return a.NodeCode() < b.NodeCode()
	})
}
