package reindex

import (
	"testing"

	"github.com/azybler/graphbuild/internal/graph"
	"github.com/azybler/graphbuild/internal/ingest"
)

func TestBuildAssignsAscendingDenseIDs(t *testing.T) {
	g := &graph.Graph{
		Adj: map[graph.NodeID][]graph.Edge{
			50: {{To: 10, Cost: 2}},
			10: {{To: 30, Cost: 3}},
			30: {},
		},
		Coords: map[graph.NodeID]ingest.Coord{
			50: {Lat: 1, Lon: 1},
			10: {Lat: 2, Lon: 2},
			30: {Lat: 3, Lon: 3},
		},
	}

	d, err := Build(g)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if d.NumNodes != 3 {
		t.Fatalf("NumNodes = %d, want 3", d.NumNodes)
	}
	want := []graph.NodeID{10, 30, 50}
	for i, id := range want {
		if d.OrigID[i] != id {
			t.Errorf("OrigID[%d] = %d, want %d", i, d.OrigID[i], id)
		}
	}

	// original node 50 is now dense id 2, pointing at original 10 (dense id 0).
	s, e := d.EdgesFrom(2)
	if e-s != 1 || d.Head[s] != 0 {
		t.Fatalf("edges from dense node 2 = %+v, want single edge to dense node 0", d.Head[s:e])
	}
}

func TestReverseInvertsEdges(t *testing.T) {
	g := &graph.Graph{
		Adj: map[graph.NodeID][]graph.Edge{
			1: {{To: 2, Cost: 5}},
			2: {},
		},
		Coords: map[graph.NodeID]ingest.Coord{
			1: {Lat: 0, Lon: 0},
			2: {Lat: 0, Lon: 0},
		},
	}
	d, err := Build(g)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	r := d.Reverse()

	// dense(1)=0, dense(2)=1: forward edge 0->1, reverse edge 1->0.
	s, e := r.EdgesFrom(1)
	if e-s != 1 || r.Head[s] != 0 || r.Weight[s] != 5 {
		t.Fatalf("reverse edges from node 1 = %+v, want single edge to 0 cost 5", r.Head[s:e])
	}
	s, e = r.EdgesFrom(0)
	if e-s != 0 {
		t.Fatalf("reverse edges from node 0 = %+v, want none", r.Head[s:e])
	}
}

// TestBuildRejectsDanglingDestination covers the "every edge
// destination is also a key of Adj" invariant: a corrupt input graph
// that violates it must fail loudly, not silently remap to node 0.
func TestBuildRejectsDanglingDestination(t *testing.T) {
	g := &graph.Graph{
		Adj: map[graph.NodeID][]graph.Edge{
			1: {{To: 99, Cost: 1}}, // 99 is never a key of Adj
		},
		Coords: map[graph.NodeID]ingest.Coord{
			1: {Lat: 0, Lon: 0},
		},
	}

	if _, err := Build(g); err == nil {
		t.Fatal("Build() error = nil, want error for dangling edge destination")
	}
}
