// Package patcher implements the event/audio patcher graph: a small DAG of
// typed nodes (Euclidean, RandomDegree, Lfo, EventOut, Passthrough,
// AudioPassthrough, RustKernel) whose outputs feed the block scheduler's
// per-track event scratchpad.
package patcher

import "fmt"

// NodeKind is the patcher's closed set of node variants, dispatched by
// tag through the Kernels table.
type NodeKind int

const (
	NodeEuclidean NodeKind = iota
	NodeRandomDegree
	NodeLfo
	NodeEventOut
	NodePassthrough
	NodeAudioPassthrough
	NodeRustKernel
)

// EuclideanConfig parametrizes a Euclidean-rhythm generator node.
type EuclideanConfig struct {
	Steps    int
	Pulses   int
	Rotation int
	Degree   int
}

// RandomDegreeConfig parametrizes a seeded random-degree generator node.
type RandomDegreeConfig struct {
	Seed   uint64
	Low    int
	High   int
	Stride int // window is cut into steps of windowLen/Stride; one event per step
}

// LfoConfig parametrizes a low-frequency modulation source node.
type LfoConfig struct {
	RateHz    float64
	UID16     uint16
	Bipolar   bool
}

// RustKernelConfig names an externally-compiled kernel by id; the engine
// process treats it as an opaque pass-through until a real binding is
// wired, since no ABI for it is supplied here.
type RustKernelConfig struct {
	KernelID string
}

// Node is one patcher-graph vertex.
type Node struct {
	ID     int
	Kind   NodeKind
	Inputs []int

	Euclidean    *EuclideanConfig
	RandomDegree *RandomDegreeConfig
	Lfo          *LfoConfig
	Rust         *RustKernelConfig
}

// Graph is a built, validated patcher DAG: nodes plus derived topological
// order and per-node depth.
type Graph struct {
	Nodes    map[int]*Node
	TopoOrder []int
	Depth    map[int]int
}

// ErrCycle is returned by Build when the input graph is not acyclic.
var ErrCycle = fmt.Errorf("patcher graph contains a cycle")

// ErrDanglingInput is returned by Build when a node's Inputs references a
// node id not present in the graph.
type ErrDanglingInput struct {
	NodeID, InputID int
}

func (e *ErrDanglingInput) Error() string {
	return fmt.Sprintf("patcher node %d references out-of-range input %d", e.NodeID, e.InputID)
}

// Build computes indegree over Inputs edges, runs Kahn's algorithm to
// produce TopoOrder, and assigns Depth[n] = max(Depth[i]+1 for i in
// Inputs[n]), 0 if no inputs. Rejects graphs whose topo length differs
// from node count (a cycle) or that reference an out-of-range input id.
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{Nodes: make(map[int]*Node, len(nodes)), Depth: make(map[int]int, len(nodes))}
	for i := range nodes {
		n := nodes[i]
		g.Nodes[n.ID] = &n
	}
	indegree := make(map[int]int, len(nodes))
	for id := range g.Nodes {
		indegree[id] = 0
	}
	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			if _, ok := g.Nodes[in]; !ok {
				return nil, &ErrDanglingInput{NodeID: n.ID, InputID: in}
			}
			indegree[n.ID]++
		}
	}

	var queue []int
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
			g.Depth[id] = 0
		}
	}
	// deterministic order: sort queue ascending before each pass.
	sortInts(queue)

	outputsOf := make(map[int][]int, len(nodes))
	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			outputsOf[in] = append(outputsOf[in], n.ID)
		}
	}

	var order []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		var next []int
		for _, out := range outputsOf[id] {
			indegree[out]--
			if g.Depth[out] < g.Depth[id]+1 {
				g.Depth[out] = g.Depth[id] + 1
			}
			if indegree[out] == 0 {
				next = append(next, out)
			}
		}
		sortInts(next)
		queue = append(queue, next...)
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCycle
	}
	g.TopoOrder = order
	return g, nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ReachableUpstream returns the set of node ids reachable by walking
// Inputs edges backward from roots: only nodes upstream of a
// chain-referenced node are evaluated.
func (g *Graph) ReachableUpstream(roots []int) map[int]bool {
	seen := map[int]bool{}
	var visit func(id int)
	visit = func(id int) {
		if seen[id] {
			return
		}
		seen[id] = true
		n, ok := g.Nodes[id]
		if !ok {
			return
		}
		for _, in := range n.Inputs {
			visit(in)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return seen
}

// WouldCreateCycle reports whether adding an edge src->dst (dst gains src
// as an input) would create a cycle, i.e. dst is already reachable
// upstream from src. Used by the UI protocol's ConnectPatcherNodes to
// reject connections incrementally.
func (g *Graph) WouldCreateCycle(src, dst int) bool {
	if src == dst {
		return true
	}
	return g.ReachableUpstream([]int{src})[dst]
}
