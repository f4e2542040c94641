package graph

import (
	"sort"

	"github.com/azybler/graphbuild/internal/ingest"
)

// unionFind is a disjoint-set data structure over NodeIDs with path
// halving and union by rank, adapted from the contraction hierarchies
// preprocessing's connectivity helper.
type unionFind struct {
	parent map[NodeID]NodeID
	rank   map[NodeID]byte
	size   map[NodeID]int
}

func newUnionFind(nodes []NodeID) *unionFind {
	uf := &unionFind{
		parent: make(map[NodeID]NodeID, len(nodes)),
		rank:   make(map[NodeID]byte, len(nodes)),
		size:   make(map[NodeID]int, len(nodes)),
	}
	for _, n := range nodes {
		uf.parent[n] = n
		uf.size[n] = 1
	}
	return uf
}

func (uf *unionFind) find(x NodeID) NodeID {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y NodeID) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}

// LargestComponent returns the node ids belonging to g's largest
// weakly connected component (edges treated as undirected), sorted
// ascending for deterministic downstream processing.
func LargestComponent(g *Graph) []NodeID {
	if len(g.Adj) == 0 {
		return nil
	}

	nodes := make([]NodeID, 0, len(g.Adj))
	for u := range g.Adj {
		nodes = append(nodes, u)
	}

	uf := newUnionFind(nodes)
	for u, edges := range g.Adj {
		for _, e := range edges {
			uf.union(u, e.To)
		}
	}

	bestRoot, bestSize := NodeID(0), 0
	for _, n := range nodes {
		root := uf.find(n)
		if uf.size[root] > bestSize {
			bestRoot, bestSize = root, uf.size[root]
		}
	}

	out := make([]NodeID, 0, bestSize)
	for _, n := range nodes {
		if uf.find(n) == bestRoot {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FilterToComponent returns a new Graph containing only the given
// nodes and the edges whose destination also survives.
func FilterToComponent(g *Graph, nodes []NodeID) *Graph {
	keep := make(map[NodeID]struct{}, len(nodes))
	for _, n := range nodes {
		keep[n] = struct{}{}
	}

	out := &Graph{
		Adj:    make(map[NodeID][]Edge, len(nodes)),
		Coords: make(map[NodeID]ingest.Coord, len(nodes)),
	}
	for _, u := range nodes {
		var edges []Edge
		for _, e := range g.Adj[u] {
			if _, ok := keep[e.To]; ok {
				edges = append(edges, e)
			}
		}
		out.Adj[u] = edges
		out.Coords[u] = g.Coords[u]
	}
	return out
}
