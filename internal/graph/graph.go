// Package graph holds the sparse, node-id-keyed directed weighted graph
// used by the Graph Builder and Minimizer. The dense CSR form used by
// the Landmark Engine and Emitter lives in package reindex.
package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/osm"

	"github.com/azybler/graphbuild/internal/ingest"
)

// NodeID is the raw OSM-origin identifier used before reindexing.
type NodeID = osm.NodeID

// Edge is a directed edge to a destination at a given cost, owned by
// its source node's adjacency list.
type Edge struct {
	To   NodeID
	Cost float64
}

// Graph is a directed weighted graph keyed by node id: the form
// produced by Build and mutated in place by the Minimizer. Invariants:
// no self-loops, no duplicate destinations per source (min cost wins),
// every edge destination is also a key of Adj, adjacency lists sorted
// ascending by destination. Normalize/NormalizeNode enforce the first,
// second and last of these; they do not check destinations.
type Graph struct {
	Adj    map[NodeID][]Edge
	Coords map[NodeID]ingest.Coord
}

// ErrInvalidCost is returned when a distance computation produces a
// NaN or negative cost; great-circle distances from the haversine
// formula should never
// do this for valid coordinates, so it signals a bug or malformed
// input.
type ErrInvalidCost struct {
	From, To NodeID
	Cost     float64
}

func (e *ErrInvalidCost) Error() string {
	return fmt.Sprintf("invalid edge cost %g for (%d -> %d)", e.Cost, e.From, e.To)
}

// Build materializes the initial Graph from ingested roads and
// coordinates: for every consecutive pair of nodes in a road, the edge
// weight is the great-circle distance between them, added in the
// direction(s) the road's Direction allows.
func Build(result *ingest.Result, haversine func(lat1, lon1, lat2, lon2 float64) float64) (*Graph, error) {
	g := &Graph{
		Adj:    make(map[NodeID][]Edge, len(result.Coords)),
		Coords: result.Coords,
	}
	for id := range result.Coords {
		if _, ok := g.Adj[id]; !ok {
			g.Adj[id] = nil
		}
	}

	for _, road := range result.Roads {
		for i := 0; i+1 < len(road.Nodes); i++ {
			u, v := road.Nodes[i], road.Nodes[i+1]
			cu, cv := result.Coords[u], result.Coords[v]
			w := haversine(cu.Lat, cu.Lon, cv.Lat, cv.Lon)
			if math.IsNaN(w) || w < 0 {
				return nil, &ErrInvalidCost{From: u, To: v, Cost: w}
			}

			g.Adj[u] = append(g.Adj[u], Edge{To: v, Cost: w})
			if road.Direction == ingest.Twoway {
				g.Adj[v] = append(g.Adj[v], Edge{To: u, Cost: w})
			}
		}
	}

	g.Normalize()
	return g, nil
}

// Normalize drops self-loops, sorts each adjacency list ascending by
// destination, and deduplicates keeping the minimum-cost edge per
// destination. Called after construction; the Minimizer instead calls
// NormalizeNode on the nodes each contraction batch touched.
func (g *Graph) Normalize() {
	for u, edges := range g.Adj {
		g.Adj[u] = normalizeEdges(edges, u)
	}
}

// NormalizeNode re-normalizes a single node's adjacency list; used by
// the Minimizer to avoid a full-graph rescan after a small batch.
func (g *Graph) NormalizeNode(u NodeID) {
	if edges, ok := g.Adj[u]; ok {
		g.Adj[u] = normalizeEdges(edges, u)
	}
}

func normalizeEdges(edges []Edge, self NodeID) []Edge {
	if len(edges) == 0 {
		return edges
	}

	filtered := edges[:0]
	for _, e := range edges {
		if e.To != self {
			filtered = append(filtered, e)
		}
	}
	edges = filtered

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Cost < edges[j].Cost
	})

	out := edges[:0]
	for i, e := range edges {
		if i > 0 && e.To == out[len(out)-1].To {
			continue // edges sorted so the min-cost copy came first
		}
		out = append(out, e)
	}
	return out
}

// NumNodes returns the number of nodes currently in the graph.
func (g *Graph) NumNodes() int { return len(g.Adj) }

// NumEdges returns the total number of directed edges currently in the graph.
func (g *Graph) NumEdges() int {
	n := 0
	for _, edges := range g.Adj {
		n += len(edges)
	}
	return n
}
