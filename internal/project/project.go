// Package project converts geographic coordinates into a flat 2D plane
// via an azimuthal equidistant projection centered on the graph's
// centroid, for the planar (x, y) coordinates the Emitter writes
// alongside each node's original lat/lon.
package project

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/azybler/graphbuild/internal/ingest"
)

// projectionRadiusMeters is the earth radius used for the azimuthal
// equidistant projection. Deliberately distinct from the great-circle
// radius used for edge-weight distances: the two serve different
// purposes and were tuned independently upstream.
const projectionRadiusMeters = 6_371_000.0

// Centroid returns the mean latitude/longitude, in radians, over the
// given coordinates.
func Centroid(coords []ingest.Coord) (latRad, lonRad float64) {
	if len(coords) == 0 {
		return 0, 0
	}
	var sumLat, sumLon float64
	for _, c := range coords {
		sumLat += c.Lat
		sumLon += c.Lon
	}
	n := float64(len(coords))
	return toRad(sumLat / n), toRad(sumLon / n)
}

// Project maps each coordinate to a planar point via an azimuthal
// equidistant projection centered at (centerLatRad, centerLonRad): the
// central angle comes from the spherical law of cosines (acos), and
// the azimuth from a two-argument atan2, matching the upstream
// preprocessor this was ported from. A coordinate identical to the
// center projects to the origin; acos is only ever fed a cosine in
// [-1, 1] for valid lat/lon pairs, so a NaN result indicates malformed
// input coordinates rather than a projection edge case.
func Project(coords []ingest.Coord, centerLatRad, centerLonRad float64) []r2.Vec {
	out := make([]r2.Vec, len(coords))
	sinCenterLat := math.Sin(centerLatRad)
	cosCenterLat := math.Cos(centerLatRad)

	for i, c := range coords {
		lat := toRad(c.Lat)
		lon := toRad(c.Lon)
		dLon := lon - centerLonRad

		cosC := sinCenterLat*math.Sin(lat) + cosCenterLat*math.Cos(lat)*math.Cos(dLon)
		cosC = clamp(cosC, -1, 1)
		centralAngle := math.Acos(cosC)

		azimuth := math.Atan2(
			math.Cos(lat)*math.Sin(dLon),
			cosCenterLat*math.Sin(lat)-sinCenterLat*math.Cos(lat)*math.Cos(dLon),
		)

		dist := projectionRadiusMeters * centralAngle
		out[i] = r2.Vec{
			X: dist * math.Sin(azimuth),
			Y: dist * math.Cos(azimuth),
		}
	}
	return out
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
