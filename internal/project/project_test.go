package project

import (
	"math"
	"testing"

	"github.com/azybler/graphbuild/internal/ingest"
)

func TestCentroidIsMean(t *testing.T) {
	coords := []ingest.Coord{
		{Lat: 0, Lon: 0},
		{Lat: 2, Lon: 4},
	}
	latRad, lonRad := Centroid(coords)
	if got := latRad * 180 / math.Pi; math.Abs(got-1) > 1e-9 {
		t.Errorf("centroid lat = %f, want 1", got)
	}
	if got := lonRad * 180 / math.Pi; math.Abs(got-2) > 1e-9 {
		t.Errorf("centroid lon = %f, want 2", got)
	}
}

func TestProjectCenterMapsToOrigin(t *testing.T) {
	centerLat, centerLon := toRad(10), toRad(20)
	coords := []ingest.Coord{{Lat: 10, Lon: 20}}

	pts := Project(coords, centerLat, centerLon)
	if math.Abs(pts[0].X) > 1e-6 || math.Abs(pts[0].Y) > 1e-6 {
		t.Errorf("Project(center) = %+v, want near origin", pts[0])
	}
}

func TestProjectNeverProducesNaN(t *testing.T) {
	centerLat, centerLon := toRad(1), toRad(103)
	coords := []ingest.Coord{
		{Lat: 1.5, Lon: 103.5},
		{Lat: -1.5, Lon: 102.5},
		{Lat: 1.0, Lon: 103.0},
		{Lat: 89.9, Lon: 0},
	}
	pts := Project(coords, centerLat, centerLon)
	for i, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Errorf("Project(coords[%d]) = %+v, want finite", i, p)
		}
	}
}

func TestProjectDistanceFromCenterMatchesGreatCircleApprox(t *testing.T) {
	centerLat, centerLon := toRad(0), toRad(0)
	// One degree of latitude north of the equator, roughly 111.2km.
	coords := []ingest.Coord{{Lat: 1, Lon: 0}}
	pts := Project(coords, centerLat, centerLon)

	dist := math.Hypot(pts[0].X, pts[0].Y)
	want := projectionRadiusMeters * toRad(1)
	if math.Abs(dist-want) > 1 {
		t.Errorf("distance from center = %f, want ~%f", dist, want)
	}
}
