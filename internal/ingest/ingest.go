// Package ingest implements the two-pass OSM scan described by the
// Ingestor component: collect qualifying ways and the node ids they
// reference, then collect coordinates for those nodes only.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/azybler/graphbuild/internal/config"
)

// Direction is a road's traversal policy.
type Direction int

const (
	// Forward roads may only be traversed from Nodes[0] to Nodes[len-1].
	Forward Direction = iota
	// Twoway roads may be traversed in either direction.
	Twoway
)

// Road is an ordered sequence of node ids, as emitted by a single
// accepted OSM way. Roads live only across ingest→build; the Graph
// Builder discards them once adjacency lists are populated.
type Road struct {
	Nodes     []osm.NodeID
	Direction Direction
}

// Result holds the output of a full ingest run: every accepted road,
// and the coordinate of every node referenced by an accepted road.
type Result struct {
	Roads  []Road
	Coords map[osm.NodeID]Coord
}

// Coord is a geographic point in degrees.
type Coord struct {
	Lat, Lon float64
}

// ErrDanglingReference is returned when a way references a node id
// that Pass 2 never found a coordinate for.
type ErrDanglingReference struct {
	NodeID osm.NodeID
}

func (e *ErrDanglingReference) Error() string {
	return fmt.Sprintf("way references node %d with no coordinate", e.NodeID)
}

// isAccepted reports whether a way's tags pass the highway/area filter
// of the Ingestor's Pass 1 predicate.
func isAccepted(tags osm.Tags, blacklist map[string]struct{}) bool {
	hw := tags.Find("highway")
	if hw == "" {
		return false
	}
	if _, blocked := blacklist[hw]; blocked {
		return false
	}
	for _, t := range tags {
		if t.Key == "area" {
			return false
		}
	}
	return true
}

// direction resolves a way's Direction: Forward iff oneway=yes or any
// tag value equals "roundabout"; otherwise Twoway.
func direction(tags osm.Tags) Direction {
	if tags.Find("oneway") == "yes" {
		return Forward
	}
	for _, t := range tags {
		if t.Value == "roundabout" {
			return Forward
		}
	}
	return Twoway
}

// Run performs the two-pass scan over rs, an OSM PBF stream that must
// support seeking back to the start for Pass 2.
func Run(ctx context.Context, rs io.ReadSeeker, cfg config.Config) (*Result, error) {
	roads, kept, err := scanWays(ctx, rs, cfg)
	if err != nil {
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	log.Printf("ingest: pass 1 complete, %d ways accepted, %d referenced nodes", len(roads), len(kept))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	coords, err := scanNodes(ctx, rs, kept)
	if err != nil {
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	log.Printf("ingest: pass 2 complete, %d node coordinates collected", len(coords))

	if err := validateReferences(roads, coords); err != nil {
		return nil, err
	}

	return &Result{Roads: roads, Coords: coords}, nil
}

// validateReferences checks that every node a road references has a
// coordinate; a miss means the graph would be incoherent downstream.
func validateReferences(roads []Road, coords map[osm.NodeID]Coord) error {
	for _, road := range roads {
		for _, id := range road.Nodes {
			if _, ok := coords[id]; !ok {
				return &ErrDanglingReference{NodeID: id}
			}
		}
	}
	return nil
}

func scanWays(ctx context.Context, rs io.ReadSeeker, cfg config.Config) ([]Road, map[osm.NodeID]struct{}, error) {
	kept := make(map[osm.NodeID]struct{})
	var roads []Road

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	defer scanner.Close()

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isAccepted(w.Tags, cfg.HighwayBlacklist) {
			continue
		}
		if len(w.Nodes) < 2 {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			kept[wn.ID] = struct{}{}
		}

		roads = append(roads, Road{Nodes: nodeIDs, Direction: direction(w.Tags)})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return roads, kept, nil
}

func scanNodes(ctx context.Context, rs io.ReadSeeker, kept map[osm.NodeID]struct{}) (map[osm.NodeID]Coord, error) {
	coords := make(map[osm.NodeID]Coord, len(kept))

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	defer scanner.Close()

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			// OSM node records precede way/relation records, so the
			// first non-node object marks the end of anything Pass 2
			// could possibly need.
			break
		}
		if _, needed := kept[n.ID]; !needed {
			continue
		}
		coords[n.ID] = Coord{Lat: n.Lat, Lon: n.Lon}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return coords, nil
}
