// Package dependencygraph implements a small generic DAG with ref-count
// based culling. It backs the frame graph's pass/resource dependency
// tracking but has no knowledge of passes or resources itself: nodes and
// edges are plain indices, owned by whatever arena the caller maintains.
package dependencygraph

// targetBit marks a node as a target: one that must survive culling
// because it has an observable side effect (present, read-back, an
// imported write). It is stored in the high bit of refcount so that
// RefCount can report "1" for targets without a separate field.
const targetBit = uint32(1) << 31

// NodeID identifies a node by its position in the enclosing Graph.
// Node memory itself is not owned by the graph; the Graph only tracks
// id allocation, refcounts, and edges.
type NodeID int

// invalidNodeID is never returned by NewNode.
const invalidNodeID NodeID = -1

// Edge is an immutable directed edge between two nodes, from → to.
// Edges are appended once via Link and never mutated afterward.
type Edge struct {
	From NodeID
	To   NodeID
}

// node holds the graph's private per-node bookkeeping: nothing about
// node identity or payload lives here, only what Cull needs.
type node struct {
	refcount uint32
}

func (n *node) isTarget() bool {
	return n.refcount&targetBit != 0
}

// RefCount returns the node's reference count, as a debugger or test
// would observe it: a target always reports 1, regardless of how many
// edges point to it.
func (n *node) RefCount() uint32 {
	if n.isTarget() {
		return 1
	}
	return n.refcount
}

// Graph is a strictly acyclic dependency graph of NodeIDs and Edges.
// It is not safe for concurrent use; the frame graph builds one per
// frame on a single thread.
type Graph struct {
	nodes []node
	edges []Edge
}

// New returns an empty Graph with reasonable initial capacity for a
// typical single frame's pass/resource count.
func New() *Graph {
	return &Graph{
		nodes: make([]node, 0, 16),
		edges: make([]Edge, 0, 32),
	}
}

// NewNode allocates the next NodeID. The caller is responsible for
// storing whatever payload it wants to associate with the id.
func (g *Graph) NewNode() NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{})
	return id
}

// Link appends an edge to the graph. It cannot fail: edges are only
// ever appended, never removed, so there is nothing to validate beyond
// what the caller already guaranteed (that from/to are valid ids).
func (g *Graph) Link(from, to NodeID) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// MakeTarget marks a node as a target, so that it survives Cull
// regardless of whether anything depends on it.
func (g *Graph) MakeTarget(n NodeID) {
	nd := &g.nodes[n]
	if nd.refcount != 0 && !nd.isTarget() {
		panic("dependencygraph: MakeTarget called on a node with a non-zero refcount")
	}
	nd.refcount = targetBit
}

// RefCount returns n's current reference count (1 for targets).
func (g *Graph) RefCount(n NodeID) uint32 {
	return g.nodes[n].RefCount()
}

// IsCulled reports whether n was removed by the last Cull pass. A node
// with a zero refcount that isn't a target is culled.
func (g *Graph) IsCulled(n NodeID) bool {
	return g.nodes[n].RefCount() == 0
}

// Incoming returns every edge whose To endpoint is n. This is a
// linear scan, which is the source behavior: graphs are expected to
// stay in the O(10^2) edge range for a single frame.
func (g *Graph) Incoming(n NodeID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To == n {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns every edge whose From endpoint is n.
func (g *Graph) Outgoing(n NodeID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == n {
			out = append(out, e)
		}
	}
	return out
}

// EdgeValid reports whether both endpoints of e survived the last
// Cull. Edges themselves are never removed; callers filter with this
// at use sites instead.
func (g *Graph) EdgeValid(e Edge) bool {
	return !g.IsCulled(e.From) && !g.IsCulled(e.To)
}

// NumNodes returns the number of nodes allocated so far.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Cull runs the reference-counting culling algorithm described by the
// frame graph's compile step: every edge increments its From node's
// refcount (a node's refcount equals the number of edges leaving it).
// Nodes that start at refcount 0 are pushed onto a stack; popping a
// node decrements the refcount of everything it depends on (its
// incoming edges' sources), pushing any that reach zero. Target nodes
// report refcount 1 and are therefore never pushed.
//
// Cull recomputes refcounts from scratch every time it is called, so
// repeated calls on an unchanged graph always reach the same result.
func (g *Graph) Cull() {
	for i := range g.nodes {
		if !g.nodes[i].isTarget() {
			g.nodes[i].refcount = 0
		}
	}
	for _, e := range g.edges {
		g.nodes[e.From].refcount++
	}

	stack := make([]NodeID, 0, len(g.nodes))
	for i := range g.nodes {
		if g.nodes[i].RefCount() == 0 {
			stack = append(stack, NodeID(i))
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Incoming(n) {
			src := &g.nodes[e.From]
			src.refcount--
			if src.RefCount() == 0 {
				stack = append(stack, e.From)
			}
		}
	}
}

// IsAcyclic is a debug-only verifier: it repeatedly removes leaves
// (nodes with no outgoing edges that haven't already been removed) and
// reports whether every node was eventually removed. A non-empty
// residual means the graph has a cycle. This does not mutate the
// graph's actual edge/node storage; it operates on a private copy of
// the outgoing-edge counts.
func (g *Graph) IsAcyclic() bool {
	if len(g.nodes) == 0 {
		return true
	}

	outDegree := make([]int, len(g.nodes))
	removed := make([]bool, len(g.nodes))
	for _, e := range g.edges {
		outDegree[e.From]++
	}

	remaining := len(g.nodes)
	for remaining > 0 {
		progress := false
		for i := range g.nodes {
			if removed[i] || outDegree[i] != 0 {
				continue
			}
			removed[i] = true
			remaining--
			progress = true
			for _, e := range g.Incoming(NodeID(i)) {
				if !removed[e.From] {
					outDegree[e.From]--
				}
			}
		}
		if !progress {
			return false
		}
	}
	return true
}
