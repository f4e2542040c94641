// Command graphbuild runs the full compaction pipeline over an OSM PBF
// extract: ingest roads and coordinates, build the initial graph,
// extract its largest connected component, minimize degree-2
// junctions, reindex to dense ids, select and compute ALT landmarks,
// project to a planar coordinate system, and write the binary result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/azybler/graphbuild/internal/config"
	"github.com/azybler/graphbuild/internal/emit"
	"github.com/azybler/graphbuild/internal/geo"
	"github.com/azybler/graphbuild/internal/graph"
	"github.com/azybler/graphbuild/internal/ingest"
	"github.com/azybler/graphbuild/internal/landmark"
	"github.com/azybler/graphbuild/internal/minimize"
	"github.com/azybler/graphbuild/internal/project"
	"github.com/azybler/graphbuild/internal/reindex"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "graph.bin", "Output binary graph file path")
	removeEnds := flag.Bool("remove-ends", false, "Prune dangling start/sink/leaf nodes after minimizing")
	landmarkCount := flag.Int("landmarks", config.DefaultLandmarkCount, "Number of ALT landmarks to select")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: graphbuild --input <file.osm.pbf> [--output graph.bin] [--remove-ends] [--landmarks N]")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.InputPath = *input
	cfg.OutputPath = *output
	cfg.RemoveEnds = *removeEnds
	cfg.LandmarkCount = *landmarkCount

	start := time.Now()

	log.Println("Opening OSM file...")
	f, err := os.Open(cfg.InputPath)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	log.Println("Ingesting ways and nodes...")
	result, err := ingest.Run(context.Background(), f, cfg)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	log.Printf("Ingested %d roads, %d node coordinates", len(result.Roads), len(result.Coords))

	log.Println("Building graph...")
	g, err := graph.Build(result, geo.Haversine)
	if err != nil {
		log.Fatalf("Graph build failed: %v", err)
	}
	log.Printf("Graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	log.Println("Extracting largest connected component...")
	componentNodes := graph.LargestComponent(g)
	log.Printf("Largest component: %d nodes (%.1f%%)", len(componentNodes), pct(len(componentNodes), g.NumNodes()))
	g = graph.FilterToComponent(g, componentNodes)

	log.Println("Minimizing graph...")
	minimize.Run(g, cfg.RemoveEnds)
	log.Printf("Minimized graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())
	if g.NumNodes() == 0 {
		log.Fatalf("Minimized graph is empty; configuration is almost certainly wrong")
	}

	log.Println("Reindexing to dense ids...")
	dense, err := reindex.Build(g)
	if err != nil {
		log.Fatalf("Reindex failed: %v", err)
	}
	reverse := dense.Reverse()

	log.Printf("Selecting up to %d landmarks...", cfg.LandmarkCount)
	landmarks := landmark.Select(dense, cfg.LandmarkCount)
	if len(landmarks) < cfg.LandmarkCount {
		log.Printf("warning: only %d of %d requested landmarks were reachable", len(landmarks), cfg.LandmarkCount)
	}
	table := landmark.ComputeAll(dense, landmarks)

	log.Println("Projecting coordinates...")
	centerLat, centerLon := project.Centroid(dense.Coords)
	projected := project.Project(dense.Coords, centerLat, centerLon)

	log.Printf("Writing binary to %s...", cfg.OutputPath)
	if err := emit.Write(cfg.OutputPath, dense, reverse, projected, table); err != nil {
		log.Fatalf("Failed to write binary: %v", err)
	}

	info, _ := os.Stat(cfg.OutputPath)
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB)", elapsed.Round(time.Second), cfg.OutputPath, float64(info.Size())/(1024*1024))
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
