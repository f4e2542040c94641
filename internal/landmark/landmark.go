// Package landmark implements the Landmark Engine: farthest-point
// landmark selection and per-landmark forward/reverse single-source
// shortest-path tables, used downstream for ALT-style distance lower
// bounds.
package landmark

import (
	"math"
	"runtime"
	"sync"

	"github.com/azybler/graphbuild/internal/reindex"
)

var inf = math.Inf(1)

// Table holds the landmark distance data the Emitter writes out: for
// each landmark, its node id plus the forward SSSP distances (from the
// landmark to every node) and reverse SSSP distances (from every node
// to the landmark).
type Table struct {
	NodeIDs  []uint32
	Forward  [][]float64
	Backward [][]float64
}

// Select picks up to k landmarks by farthest-point sampling: the first
// landmark is node 0, and each subsequent landmark is the reachable
// node with the greatest shortest-path distance from the set already
// chosen, ties broken by smallest node id. Sampling stops early if no
// unvisited node remains reachable from any landmark chosen so far.
func Select(d *reindex.Dense, k int) []uint32 {
	if d.NumNodes == 0 || k <= 0 {
		return nil
	}
	if uint32(k) > d.NumNodes {
		k = int(d.NumNodes)
	}

	minDistToSet := make([]float64, d.NumNodes)
	for i := range minDistToSet {
		minDistToSet[i] = inf
	}

	landmarks := make([]uint32, 0, k)
	next := uint32(0)

	for len(landmarks) < k {
		dist := dijkstra(d, next)
		landmarks = append(landmarks, next)

		for u := uint32(0); u < d.NumNodes; u++ {
			if dist[u] < minDistToSet[u] {
				minDistToSet[u] = dist[u]
			}
		}

		best := uint32(0)
		bestDist := -1.0
		found := false
		for u := uint32(0); u < d.NumNodes; u++ {
			if alreadyChosen(landmarks, u) {
				continue
			}
			if minDistToSet[u] == inf {
				continue
			}
			if minDistToSet[u] > bestDist {
				bestDist = minDistToSet[u]
				best = u
				found = true
			}
		}
		if !found {
			break
		}
		next = best
	}
	return landmarks
}

func alreadyChosen(landmarks []uint32, u uint32) bool {
	for _, l := range landmarks {
		if l == u {
			return true
		}
	}
	return false
}

// dijkstra computes single-source shortest distances from source over
// d's outgoing edges.
func dijkstra(d *reindex.Dense, source uint32) []float64 {
	dist := make([]float64, d.NumNodes)
	for i := range dist {
		dist[i] = inf
	}
	dist[source] = 0

	var h minHeap
	h.Push(source, 0)

	for h.Len() > 0 {
		cur := h.Pop()
		if cur.dist > dist[cur.node] {
			continue // stale entry, already improved
		}
		s, e := d.EdgesFrom(cur.node)
		for i := s; i < e; i++ {
			v := d.Head[i]
			nd := cur.dist + d.Weight[i]
			if nd < dist[v] {
				dist[v] = nd
				h.Push(v, nd)
			}
		}
	}
	return dist
}

// ComputeAll runs forward and reverse Dijkstra from every landmark in
// parallel, bounded to GOMAXPROCS workers; each Dijkstra run allocates
// its own heap and distance slice.
func ComputeAll(d *reindex.Dense, landmarks []uint32) *Table {
	rev := d.Reverse()

	t := &Table{
		NodeIDs:  landmarks,
		Forward:  make([][]float64, len(landmarks)),
		Backward: make([][]float64, len(landmarks)),
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(landmarks) {
		workers = len(landmarks)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(landmarks))
	for i := range landmarks {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				t.Forward[i] = dijkstra(d, landmarks[i])
				t.Backward[i] = dijkstra(rev, landmarks[i])
			}
		}()
	}
	wg.Wait()

	return t
}
