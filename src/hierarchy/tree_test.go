package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	id       int64
	parentID *int64
	level    int
	code     string
	system   bool
}

func (n testNode) NodeID() int64        { return n.id }
func (n testNode) NodeParentID() *int64 { return n.parentID }
func (n testNode) NodeLevel() int       { return n.level }
func (n testNode) NodeCode() string     { return n.code }
func (n testNode) NodeIsSystem() bool   { return n.system }

func ptr(v int64) *int64 { return &v }

func TestChildLevel(t *testing.T) {
	assert.Equal(t, 2, ChildLevel(testNode{id: 1, level: 1}))
	assert.Equal(t, 3, ChildLevel(testNode{id: 2, level: 2}))
}

func TestWouldCreateCycle_SelfParent(t *testing.T) {
	nodes := []testNode{{id: 1, code: "A"}}
	assert.True(t, WouldCreateCycle(nodes, 1, 1))
}

func TestWouldCreateCycle_AncestorChain(t *testing.T) {
	// A -> B -> C; moving A under C would close the loop.
	nodes := []testNode{
		{id: 1, code: "A"},
		{id: 2, code: "B", parentID: ptr(1), level: 2},
		{id: 3, code: "C", parentID: ptr(2), level: 3},
	}
	assert.True(t, WouldCreateCycle(nodes, 1, 3))
	assert.True(t, WouldCreateCycle(nodes, 1, 2))
}

func TestWouldCreateCycle_UnrelatedBranch(t *testing.T) {
	nodes := []testNode{
		{id: 1, code: "A"},
		{id: 2, code: "B", parentID: ptr(1), level: 2},
		{id: 3, code: "C"},
		{id: 4, code: "D", parentID: ptr(3), level: 2},
	}
	assert.False(t, WouldCreateCycle(nodes, 2, 4))
	assert.False(t, WouldCreateCycle(nodes, 2, 3))
}

func TestCollectSubtree(t *testing.T) {
	// A -> B -> C, with D on its own branch.
	nodes := []testNode{
		{id: 1, code: "A"},
		{id: 2, code: "B", parentID: ptr(1), level: 2},
		{id: 3, code: "C", parentID: ptr(2), level: 3},
		{id: 4, code: "D"},
	}
	assert.ElementsMatch(t, []int64{1, 2, 3}, CollectSubtree(nodes, 1))
	assert.ElementsMatch(t, []int64{2, 3}, CollectSubtree(nodes, 2))
	assert.Equal(t, []int64{4}, CollectSubtree(nodes, 4))
}

func TestWouldCreateCycle_PreexistingCycleTerminates(t *testing.T) {
	// Corrupted data: B and C already point at each other. The walk must
	// terminate rather than loop forever.
	nodes := []testNode{
		{id: 1, code: "A"},
		{id: 2, code: "B", parentID: ptr(3)},
		{id: 3, code: "C", parentID: ptr(2)},
	}
	assert.True(t, WouldCreateCycle(nodes, 1, 2))
}

func TestBuildForest_Nesting(t *testing.T) {
	nodes := []testNode{
		{id: 1, code: "A", level: 1},
		{id: 2, code: "A-1", level: 2, parentID: ptr(1)},
		{id: 3, code: "A-2", level: 2, parentID: ptr(1)},
		{id: 4, code: "A-1-X", level: 3, parentID: ptr(2)},
		{id: 5, code: "B", level: 1},
	}
	forest := BuildForest(nodes)

	require.Len(t, forest.Roots, 2)
	assert.Empty(t, forest.OrphanIDs)
	assert.Equal(t, "A", forest.Roots[0].Item.code)
	assert.Equal(t, "B", forest.Roots[1].Item.code)

	a := forest.Roots[0]
	require.Len(t, a.Children, 2)
	assert.Equal(t, "A-1", a.Children[0].Item.code)
	require.Len(t, a.Children[0].Children, 1)
	assert.Equal(t, "A-1-X", a.Children[0].Children[0].Item.code)
}

func TestBuildForest_OrphansBecomeRoots(t *testing.T) {
	nodes := []testNode{
		{id: 1, code: "A", level: 1},
		{id: 2, code: "Z", level: 2, parentID: ptr(99)},
	}
	forest := BuildForest(nodes)

	require.Len(t, forest.Roots, 2)
	require.Len(t, forest.OrphanIDs, 1)
	assert.Equal(t, int64(2), forest.OrphanIDs[0])
}

func TestBuildForest_SystemNodesSortFirst(t *testing.T) {
	nodes := []testNode{
		{id: 1, code: "AAA", level: 1},
		{id: 2, code: "ZZZ", level: 1, system: true},
		{id: 3, code: "MMM", level: 1},
	}
	forest := BuildForest(nodes)

	require.Len(t, forest.Roots, 3)
	assert.Equal(t, "ZZZ", forest.Roots[0].Item.code)
	assert.Equal(t, "AAA", forest.Roots[1].Item.code)
	assert.Equal(t, "MMM", forest.Roots[2].Item.code)
}
