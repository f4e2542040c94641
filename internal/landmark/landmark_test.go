package landmark

import (
	"testing"

	"github.com/azybler/graphbuild/internal/graph"
	"github.com/azybler/graphbuild/internal/ingest"
	"github.com/azybler/graphbuild/internal/reindex"
)

func chainGraph(n int) *reindex.Dense {
	g := &graph.Graph{
		Adj:    make(map[graph.NodeID][]graph.Edge),
		Coords: make(map[graph.NodeID]ingest.Coord),
	}
	for i := 0; i < n; i++ {
		id := graph.NodeID(i)
		g.Coords[id] = ingest.Coord{Lat: float64(i), Lon: 0}
		if i+1 < n {
			g.Adj[id] = []graph.Edge{{To: graph.NodeID(i + 1), Cost: 1}}
		} else {
			g.Adj[id] = nil
		}
	}
	d, err := reindex.Build(g)
	if err != nil {
		panic(err) // test fixture is always a valid, self-consistent graph
	}
	return d
}

func TestDijkstraChainDistances(t *testing.T) {
	d := chainGraph(5)
	dist := dijkstra(d, 0)
	for i, want := range []float64{0, 1, 2, 3, 4} {
		if dist[i] != want {
			t.Errorf("dist[%d] = %f, want %f", i, dist[i], want)
		}
	}
}

func TestSelectPicksFarthestPoints(t *testing.T) {
	d := chainGraph(5)
	landmarks := Select(d, 2)
	if len(landmarks) != 2 {
		t.Fatalf("Select() = %v, want 2 landmarks", landmarks)
	}
	if landmarks[0] != 0 {
		t.Errorf("first landmark = %d, want 0", landmarks[0])
	}
	if landmarks[1] != 4 {
		t.Errorf("second landmark = %d, want 4 (farthest from node 0)", landmarks[1])
	}
}

func TestSelectStopsEarlyWhenUnreachable(t *testing.T) {
	// Two disconnected singleton components: landmark 0 can't reach node 1.
	g := &graph.Graph{
		Adj: map[graph.NodeID][]graph.Edge{
			0: {},
			1: {},
		},
		Coords: map[graph.NodeID]ingest.Coord{
			0: {Lat: 0, Lon: 0},
			1: {Lat: 1, Lon: 1},
		},
	}
	d, err := reindex.Build(g)
	if err != nil {
		t.Fatalf("reindex.Build() error = %v", err)
	}
	landmarks := Select(d, 5)
	if len(landmarks) != 1 {
		t.Fatalf("Select() = %v, want exactly 1 landmark (no reachable unvisited node)", landmarks)
	}
}

func TestComputeAllForwardAndBackwardAgree(t *testing.T) {
	d := chainGraph(4)
	landmarks := Select(d, 2)
	table := ComputeAll(d, landmarks)

	if len(table.Forward) != len(landmarks) || len(table.Backward) != len(landmarks) {
		t.Fatalf("table has %d forward / %d backward rows, want %d", len(table.Forward), len(table.Backward), len(landmarks))
	}

	// landmarks = [0, 3] on the directed chain 0->1->2->3.
	if got := table.Forward[0][3]; got != 3 {
		t.Errorf("Forward[landmark 0][node 3] = %f, want 3", got)
	}
	// Backward[1] is distance-to-landmark-3, reachable since the chain
	// runs forward into node 3 from every earlier node.
	if got := table.Backward[1][0]; got != 3 {
		t.Errorf("Backward[landmark 3][node 0] = %f, want 3", got)
	}
	// Backward[0] is distance-to-landmark-0: every edge points away from
	// node 0, so no other node (here node 3) can reach it.
	if got := table.Backward[0][3]; got != inf {
		t.Errorf("Backward[landmark 0][node 3] = %f, want unreachable (inf)", got)
	}
}
