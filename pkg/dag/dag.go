package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrNonConsecutiveRanks is returned by [DAG.Validate] when an edge does
	// not connect adjacent ranks.
	ErrNonConsecutiveRanks = errors.New("edges must connect consecutive ranks")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a directed cycle
	// exists.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeKind distinguishes devices from synthetic layout nodes.
type NodeKind int

const (
	// NodeKindDevice is a device from the topology.
	NodeKindDevice NodeKind = iota
	// NodeKindVirtual carries a long edge through an intermediate rank.
	NodeKindVirtual
)

// Node is a vertex with a rank assignment and box size.
type Node struct {
	ID     string
	Rank   int
	Kind   NodeKind
	Width  float64
	Height float64

	// Edge is the key of the edge a virtual node belongs to.
	Edge string
}

// IsVirtual reports whether the node was inserted by a transform.
func (n Node) IsVirtual() bool { return n.Kind == NodeKindVirtual }

// Edge is a directed edge. Key identifies the cable the edge was induced by;
// several edges may share the same endpoints.
type Edge struct {
	From     string
	To       string
	Key      string
	Reversed bool // set when cycle breaking flipped the edge
}

// DAG is a directed graph with rank assignments. It is not safe for
// concurrent use.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	ranks    map[int][]*Node
}

// New creates an empty graph.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		ranks:    make(map[int][]*Node),
	}
}

// AddNode adds n and indexes it by rank.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	d.nodes[n.ID] = node
	d.order = append(d.order, n.ID)
	d.ranks[n.Rank] = append(d.ranks[n.Rank], node)
	return nil
}

// AddEdge appends a directed edge between two existing nodes. Parallel
// edges are kept.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// SetEdges replaces the edge list and rebuilds adjacency.
func (d *DAG) SetEdges(edges []Edge) {
	d.edges = slices.Clone(edges)
	d.outgoing = make(map[string][]string, len(d.nodes))
	d.incoming = make(map[string][]string, len(d.nodes))
	for _, e := range d.edges {
		d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
		d.incoming[e.To] = append(d.incoming[e.To], e.From)
	}
}

// SetRanks updates rank assignments and rebuilds the rank index in
// insertion order. Nodes missing from ranks keep their current rank.
func (d *DAG) SetRanks(ranks map[string]int) {
	d.ranks = make(map[int][]*Node)
	for _, id := range d.order {
		n := d.nodes[id]
		if r, ok := ranks[id]; ok {
			n.Rank = r
		}
		d.ranks[n.Rank] = append(d.ranks[n.Rank], n)
	}
}

// SetRankOrder reorders the nodes of rank to match ids. IDs not in the rank
// are ignored; nodes of the rank missing from ids keep their relative order
// at the end.
func (d *DAG) SetRankOrder(rank int, ids []string) {
	pos := PosMap(ids)
	nodes := slices.Clone(d.ranks[rank])
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		pa, okA := pos[a.ID]
		pb, okB := pos[b.ID]
		switch {
		case okA && okB:
			return pa - pb
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	d.ranks[rank] = nodes
}

// Nodes returns all nodes in insertion order.
func (d *DAG) Nodes() []*Node {
	out := make([]*Node, len(d.order))
	for i, id := range d.order {
		out[i] = d.nodes[id]
	}
	return out
}

// Edges returns a copy of the edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Node returns the node with id.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Children returns the targets of id's outgoing edges, one entry per edge.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the sources of id's incoming edges, one entry per edge.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// InDegree returns the number of incoming edges.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// OutDegree returns the number of outgoing edges.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// NodesInRank returns the nodes of rank in their current order.
func (d *DAG) NodesInRank(rank int) []*Node { return d.ranks[rank] }

// RankIDs returns the populated ranks in ascending order.
func (d *DAG) RankIDs() []int { return slices.Sorted(maps.Keys(d.ranks)) }

// MaxRank returns the highest rank, or 0 for an empty graph.
func (d *DAG) MaxRank() int {
	ids := d.RankIDs()
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1]
}

// Orders returns the current left-to-right order of every rank.
func (d *DAG) Orders() map[int][]string {
	out := make(map[int][]string, len(d.ranks))
	for r, nodes := range d.ranks {
		out[r] = NodeIDs(nodes)
	}
	return out
}

// Sources returns nodes without incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var out []*Node
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			out = append(out, d.nodes[id])
		}
	}
	return out
}

// Validate checks that every edge joins consecutive ranks and that the
// graph is acyclic.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if d.nodes[e.To].Rank != d.nodes[e.From].Rank+1 {
			return ErrNonConsecutiveRanks
		}
	}
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
		}
		color[id] = black
	}

	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap maps each id to its index in ids.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts node IDs in order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
