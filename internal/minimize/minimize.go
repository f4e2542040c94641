// Package minimize implements the Minimizer: repeated contraction of
// degree-2 intermediate nodes, with optional end-pruning, until a
// fixed point is reached. The transformation preserves shortest-path
// distances between every pair of surviving nodes.
package minimize

import (
	"log"
	"sort"

	"github.com/azybler/graphbuild/internal/graph"
)

// neighborSets holds the distinct-neighbor classification data for one
// node: its out-neighbors and in-neighbors (classify derives their
// union). Recomputed
// fresh after every contraction batch, treating In(u) as a derived
// index rather than a long-lived alias into the adjacency structure
// (the graph's cyclic references make incremental upkeep error-prone).
type neighborSets struct {
	out map[graph.NodeID]struct{}
	in  map[graph.NodeID]struct{}
}

// class is a node's structural classification under the degree-2
// contraction predicates.
type class int

const (
	classNone class = iota
	classOneWayIntermediate
	classTwoWayIntermediate
	classStartEnd
	classSinkEnd
	classTwoWayLeaf
	classDead
)

// buildIndex computes in/out neighbor sets for every node currently in g.
func buildIndex(g *graph.Graph) map[graph.NodeID]*neighborSets {
	idx := make(map[graph.NodeID]*neighborSets, len(g.Adj))
	for u := range g.Adj {
		idx[u] = &neighborSets{out: make(map[graph.NodeID]struct{}), in: make(map[graph.NodeID]struct{})}
	}
	for u, edges := range g.Adj {
		for _, e := range edges {
			idx[u].out[e.To] = struct{}{}
			if ns, ok := idx[e.To]; ok {
				ns.in[u] = struct{}{}
			}
		}
	}
	return idx
}

func setsEqual(a, b map[graph.NodeID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// classify determines u's structural class from its neighbor sets.
func classify(ns *neighborSets) class {
	nUnion := make(map[graph.NodeID]struct{}, len(ns.out)+len(ns.in))
	for k := range ns.out {
		nUnion[k] = struct{}{}
	}
	for k := range ns.in {
		nUnion[k] = struct{}{}
	}

	switch {
	case len(nUnion) == 2 && len(ns.in) == 1 && len(ns.out) == 1 && !setsEqual(ns.in, ns.out):
		return classOneWayIntermediate
	case len(nUnion) == 2 && len(ns.in) == 2 && len(ns.out) == 2 && setsEqual(ns.in, ns.out):
		return classTwoWayIntermediate
	case len(ns.out) == 1 && len(ns.in) == 0:
		return classStartEnd
	case len(ns.out) == 0 && len(ns.in) == 1:
		return classSinkEnd
	case len(ns.out) == 1 && len(ns.in) == 1 && setsEqual(ns.in, ns.out):
		return classTwoWayLeaf
	case len(ns.out) == 0 && len(ns.in) == 0:
		return classDead
	default:
		return classNone
	}
}

func only(set map[graph.NodeID]struct{}) graph.NodeID {
	for k := range set {
		return k
	}
	return graph.NodeID(0)
}

// pairOf returns the two elements of a two-element set. Iteration order
// over a Go map is unspecified, but the pair is unordered from the
// caller's point of view (a↔b contraction is symmetric), so any order
// is correct.
func pairOf(set map[graph.NodeID]struct{}) (graph.NodeID, graph.NodeID) {
	var a, b graph.NodeID
	i := 0
	for k := range set {
		if i == 0 {
			a = k
		} else {
			b = k
		}
		i++
	}
	return a, b
}

// Run contracts g to a fixed point: no remaining node classifies as a
// one-way or two-way intermediate. End-class nodes (start-end, sink-end,
// two-way leaf, dead) are kept unless removeEnds is true. When
// removeEnds is true, end-pruning and
// intermediate contraction alternate until both are simultaneously
// stable, since pruning an end can expose a new degree-2 junction.
func Run(g *graph.Graph, removeEnds bool) {
	contractIntermediatesToFixedPoint(g)
	if !removeEnds {
		return
	}

	for {
		removed := pruneEndsOnce(g)
		contracted := contractIntermediatesToFixedPoint(g)
		if !removed && !contracted {
			break
		}
	}
}

// shortcut is one candidate contraction: u is the node being removed,
// anchors holds the one (one-way) or two (two-way) surviving
// neighbors the new edge(s) splice onto.
type shortcut struct {
	u       graph.NodeID
	anchors [2]graph.NodeID
	twoWay  bool
	cost    float64
}

// contractIntermediatesToFixedPoint repeatedly contracts intermediate
// nodes in batches until none remain. Each batch only accepts a
// candidate if none of its anchor nodes are themselves being removed
// in the same batch: a run of adjacent intermediates (as in a long
// one-way chain) collapses over several batches rather than all at
// once, since an anchor that's about to disappear can't host a new
// shortcut edge. Returns whether any contraction happened.
func contractIntermediatesToFixedPoint(g *graph.Graph) bool {
	any := false
	for {
		idx := buildIndex(g)

		var candidates []shortcut
		for u, ns := range idx {
			switch classify(ns) {
			case classOneWayIntermediate:
				p, s := only(ns.in), only(ns.out)
				candidates = append(candidates, shortcut{u: u, anchors: [2]graph.NodeID{p, s}})
			case classTwoWayIntermediate:
				a, b := pairOf(ns.out)
				candidates = append(candidates, shortcut{u: u, anchors: [2]graph.NodeID{a, b}, twoWay: true})
			}
		}
		if len(candidates) == 0 {
			break
		}
		any = true

		sort.Slice(candidates, func(i, j int) bool { return candidates[i].u < candidates[j].u })

		beingRemoved := make(map[graph.NodeID]struct{}, len(candidates))
		var batch []shortcut
		for _, c := range candidates {
			if _, conflict := beingRemoved[c.anchors[0]]; conflict {
				continue
			}
			if _, conflict := beingRemoved[c.anchors[1]]; conflict {
				continue
			}
			c.cost = edgeCost(g, c.anchors[0], c.u) + edgeCost(g, c.u, c.anchors[1])
			batch = append(batch, c)
			beingRemoved[c.u] = struct{}{}
		}

		touched := make(map[graph.NodeID]struct{})
		for _, c := range batch {
			a, b := c.anchors[0], c.anchors[1]
			removeEdgesTo(g, a, c.u)
			g.Adj[a] = append(g.Adj[a], graph.Edge{To: b, Cost: c.cost})
			touched[a] = struct{}{}
			if c.twoWay {
				removeEdgesTo(g, b, c.u)
				g.Adj[b] = append(g.Adj[b], graph.Edge{To: a, Cost: c.cost})
				touched[b] = struct{}{}
			}
		}

		for u := range beingRemoved {
			delete(g.Adj, u)
			delete(g.Coords, u)
		}
		for u := range touched {
			g.NormalizeNode(u)
		}
		log.Printf("minimize: contracted %d intermediates this batch, %d nodes remain", len(batch), len(g.Adj))
	}
	return any
}

func edgeCost(g *graph.Graph, from, to graph.NodeID) float64 {
	best := -1.0
	for _, e := range g.Adj[from] {
		if e.To == to && (best < 0 || e.Cost < best) {
			best = e.Cost
		}
	}
	return best
}

// removeEdgesTo drops every edge from -> to, leaving the node's other
// edges in place. Used before splicing in a contraction shortcut so
// the node being contracted away doesn't leave a dangling reference.
func removeEdgesTo(g *graph.Graph, from, to graph.NodeID) {
	kept := g.Adj[from][:0]
	for _, e := range g.Adj[from] {
		if e.To != to {
			kept = append(kept, e)
		}
	}
	g.Adj[from] = kept
}

// pruneEndsOnce removes every start-end, sink-end, two-way-leaf, and
// dead node in one batch, deleting edges into them from their
// neighbors. Returns whether anything was removed.
func pruneEndsOnce(g *graph.Graph) bool {
	idx := buildIndex(g)

	var doomed []graph.NodeID
	for u, ns := range idx {
		switch classify(ns) {
		case classStartEnd, classSinkEnd, classTwoWayLeaf, classDead:
			doomed = append(doomed, u)
		}
	}
	if len(doomed) == 0 {
		return false
	}

	doomedSet := make(map[graph.NodeID]struct{}, len(doomed))
	for _, u := range doomed {
		doomedSet[u] = struct{}{}
	}

	touched := make(map[graph.NodeID]struct{})
	for u := range idx {
		if _, isDoomed := doomedSet[u]; isDoomed {
			continue
		}
		for n := range idx[u].out {
			if _, isDoomed := doomedSet[n]; isDoomed {
				touched[u] = struct{}{}
			}
		}
	}

	for _, u := range doomed {
		delete(g.Adj, u)
		delete(g.Coords, u)
	}
	for u := range touched {
		var kept []graph.Edge
		for _, e := range g.Adj[u] {
			if _, isDoomed := doomedSet[e.To]; !isDoomed {
				kept = append(kept, e)
			}
		}
		g.Adj[u] = kept
	}

	log.Printf("minimize: pruned %d dangling nodes, %d nodes remain", len(doomed), len(g.Adj))
	return true
}
