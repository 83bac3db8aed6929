package patcher

import "testing"

func TestBuildTopoOrderAndDepth(t *testing.T) {
	nodes := []Node{
		{ID: 0, Kind: NodeEuclidean, Euclidean: &EuclideanConfig{Steps: 8, Pulses: 3}},
		{ID: 1, Kind: NodePassthrough, Inputs: []int{0}},
		{ID: 2, Kind: NodeEventOut, Inputs: []int{1}},
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.TopoOrder) != 3 {
		t.Fatalf("expected 3 nodes in topo order, got %d", len(g.TopoOrder))
	}
	if g.Depth[0] != 0 || g.Depth[1] != 1 || g.Depth[2] != 2 {
		t.Fatalf("unexpected depths: %v", g.Depth)
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	nodes := []Node{
		{ID: 0, Kind: NodePassthrough, Inputs: []int{1}},
		{ID: 1, Kind: NodePassthrough, Inputs: []int{0}},
	}
	_, err := Build(nodes)
	if err != ErrCycle {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestBuildRejectsDanglingInput(t *testing.T) {
	nodes := []Node{
		{ID: 0, Kind: NodePassthrough, Inputs: []int{99}},
	}
	_, err := Build(nodes)
	if err == nil {
		t.Fatalf("expected error for dangling input")
	}
}

func TestWouldCreateCycle(t *testing.T) {
	nodes := []Node{
		{ID: 0, Kind: NodePassthrough},
		{ID: 1, Kind: NodePassthrough, Inputs: []int{0}},
		{ID: 2, Kind: NodePassthrough, Inputs: []int{1}},
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.WouldCreateCycle(2, 0) {
		t.Fatalf("expected connecting 2->0 to be flagged as a cycle (0 already feeds 2 via 1)")
	}
	if g.WouldCreateCycle(0, 2) {
		t.Fatalf("0->2 does not create a cycle")
	}
}

func TestReachableUpstreamFiltersUnrelatedNodes(t *testing.T) {
	nodes := []Node{
		{ID: 0, Kind: NodeEuclidean, Euclidean: &EuclideanConfig{Steps: 4, Pulses: 2}},
		{ID: 1, Kind: NodeEventOut, Inputs: []int{0}},
		{ID: 2, Kind: NodeEuclidean, Euclidean: &EuclideanConfig{Steps: 4, Pulses: 1}}, // unrelated
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reach := g.ReachableUpstream([]int{1})
	if !reach[0] || !reach[1] || reach[2] {
		t.Fatalf("unexpected reachability set: %v", reach)
	}
}
