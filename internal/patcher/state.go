package patcher

import "sync"

// GraphState is one of the engine's process-wide singletons: the patcher
// graph's live, mutex-protected state, snapshotted to producers via a
// shared immutable pointer.
type GraphState struct {
	mu   sync.Mutex
	live []Node
	snap *Graph
}

// globalGraphState is the package-level singleton; every track shares one
// patcher graph, addressed per-track via chain-device reachability
// references.
var globalGraphState = &GraphState{}

// Global returns the process-wide patcher graph state singleton.
func Global() *GraphState { return globalGraphState }

// Snapshot returns the most recently built graph, or nil if none has been
// built yet. Safe to call without the mutex: callers only ever receive a
// pointer to a fully-built, immutable Graph.
func (s *GraphState) Snapshot() *Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Rebuild replaces the live node set, rebuilds the graph, and publishes it
// as the new snapshot on success; on failure the previous snapshot is left
// untouched and the error is returned (e.g. for a PatcherGraphError diff).
func (s *GraphState) Rebuild(nodes []Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := Build(nodes)
	if err != nil {
		return err
	}
	s.live = nodes
	s.snap = g
	return nil
}

// AddNode appends a node to the live set and rebuilds.
func (s *GraphState) AddNode(n Node) error {
	s.mu.Lock()
	nodes := append(append([]Node(nil), s.live...), n)
	s.mu.Unlock()
	return s.Rebuild(nodes)
}

// RemoveNode deletes a node (and any edges referencing it) and rebuilds.
func (s *GraphState) RemoveNode(id int) error {
	s.mu.Lock()
	var nodes []Node
	for _, n := range s.live {
		if n.ID == id {
			continue
		}
		filtered := n
		var inputs []int
		for _, in := range n.Inputs {
			if in != id {
				inputs = append(inputs, in)
			}
		}
		filtered.Inputs = inputs
		nodes = append(nodes, filtered)
	}
	s.mu.Unlock()
	return s.Rebuild(nodes)
}

// ConnectNodes adds dst<-src as an input edge, rejecting the change (and
// leaving state untouched) if it would create a cycle. Returns false, nil
// on a rejected-but-not-erroring connect.
func (s *GraphState) ConnectNodes(src, dst int) (bool, error) {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()
	if snap != nil && snap.WouldCreateCycle(src, dst) {
		return false, nil
	}

	s.mu.Lock()
	nodes := append([]Node(nil), s.live...)
	for i := range nodes {
		if nodes[i].ID == dst {
			nodes[i].Inputs = append(append([]int(nil), nodes[i].Inputs...), src)
		}
	}
	s.mu.Unlock()
	if err := s.Rebuild(nodes); err != nil {
		return false, err
	}
	return true, nil
}

// SetNodeConfig replaces the type-specific config struct for the named
// node (caller supplies exactly one of the pointer fields).
func (s *GraphState) SetNodeConfig(id int, n Node) error {
	s.mu.Lock()
	nodes := append([]Node(nil), s.live...)
	found := false
	for i := range nodes {
		if nodes[i].ID == id {
			nodes[i].Euclidean = n.Euclidean
			nodes[i].RandomDegree = n.RandomDegree
			nodes[i].Lfo = n.Lfo
			nodes[i].Rust = n.Rust
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return &ErrDanglingInput{NodeID: id}
	}
	return s.Rebuild(nodes)
}
