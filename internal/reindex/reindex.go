// Package reindex assigns dense [0,N) node ids, in ascending original-id
// order, and assembles the resulting CSR graph used by every
// downstream stage (Landmark Engine, Projector, Emitter).
package reindex

import (
	"fmt"
	"sort"

	"github.com/azybler/graphbuild/internal/graph"
	"github.com/azybler/graphbuild/internal/ingest"
)

// Dense is the reindexed CSR form: node i's outgoing edges live in
// Head[FirstOut[i]:FirstOut[i+1]], with matching entries in Weight.
// OrigID maps a dense id back to its original OSM node id, written out
// by the Emitter; Coords carries the lat/lon the Projector reads.
type Dense struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32
	Head     []uint32
	Weight   []float64
	OrigID   []graph.NodeID
	Coords   []ingest.Coord // Coords[i] matches OrigID[i]
}

// Build reassigns g's surviving nodes to dense ids [0,N) in ascending
// original-id order and emits the CSR arrays. Returns an error if g
// violates its own "every edge destination is also a key of Adj"
// invariant — that should be unreachable given a correctly built and
// minimized graph, so a miss here means an upstream bug, not bad input.
func Build(g *graph.Graph) (*Dense, error) {
	orig := make([]graph.NodeID, 0, len(g.Adj))
	for u := range g.Adj {
		orig = append(orig, u)
	}
	sort.Slice(orig, func(i, j int) bool { return orig[i] < orig[j] })

	denseOf := make(map[graph.NodeID]uint32, len(orig))
	for i, u := range orig {
		denseOf[u] = uint32(i)
	}

	numNodes := uint32(len(orig))
	numEdges := uint32(0)
	for _, u := range orig {
		numEdges += uint32(len(g.Adj[u]))
	}

	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, 0, numEdges)
	weight := make([]float64, 0, numEdges)
	coords := make([]ingest.Coord, numNodes)

	for i, u := range orig {
		firstOut[i] = uint32(len(head))
		coords[i] = g.Coords[u]
		for _, e := range g.Adj[u] {
			dst, ok := denseOf[e.To]
			if !ok {
				return nil, fmt.Errorf("reindex: edge %d -> %d references a node absent from the graph", u, e.To)
			}
			head = append(head, dst)
			weight = append(weight, e.Cost)
		}
	}
	firstOut[numNodes] = uint32(len(head))

	return &Dense{
		NumNodes: numNodes,
		NumEdges: numEdges,
		FirstOut: firstOut,
		Head:     head,
		Weight:   weight,
		OrigID:   orig,
		Coords:   coords,
	}, nil
}

// EdgesFrom returns the half-open edge index range for node u's
// outgoing edges.
func (d *Dense) EdgesFrom(u uint32) (start, end uint32) {
	return d.FirstOut[u], d.FirstOut[u+1]
}

// Reverse builds the transpose graph: every edge u->v in d appears as
// v->u here, with the same weight. Used by the Landmark Engine to run
// a Dijkstra from a landmark against incoming distances without
// re-deriving predecessor edges on every query.
func (d *Dense) Reverse() *Dense {
	numEdges := d.NumEdges
	firstOut := make([]uint32, d.NumNodes+1)
	for _, v := range d.Head {
		firstOut[v+1]++
	}
	for i := uint32(1); i <= d.NumNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	head := make([]uint32, numEdges)
	weight := make([]float64, numEdges)
	cursor := make([]uint32, d.NumNodes)
	copy(cursor, firstOut[:d.NumNodes])

	for u := uint32(0); u < d.NumNodes; u++ {
		s, e := d.EdgesFrom(u)
		for i := s; i < e; i++ {
			v := d.Head[i]
			pos := cursor[v]
			head[pos] = u
			weight[pos] = d.Weight[i]
			cursor[v]++
		}
	}

	return &Dense{
		NumNodes: d.NumNodes,
		NumEdges: d.NumEdges,
		FirstOut: firstOut,
		Head:     head,
		Weight:   weight,
		OrigID:   d.OrigID,
		Coords:   d.Coords,
	}
}
