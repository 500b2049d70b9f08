// Package diskbuilder implements DiskBuilder (spec.md §4.2): turning a
// (reference point, radius) pair into a polygon Region on the WGS-84
// ellipsoid, including the antimeridian-crossing and pole-diversion
// surgery a naive ring sample needs near the seam.
package diskbuilder

import (
	"fmt"

	"github.com/ageo-project/locate-from-db/internal/geodesic"
	"github.com/ageo-project/locate-from-db/internal/region"
)

// RingPoints is the number of vertices sampled around the disk boundary
// (spec.md §4.2: "60 points, one every 6 degrees of azimuth").
const RingPoints = 60

// FullRectangleThresholdM is the radius above which the disk is considered
// to cover the whole map rectangle (spec.md §4.2: "a radius greater than
// roughly half the Earth's meridian circumference covers everything the
// basemap could distinguish").
const FullRectangleThresholdM = 19_975_000

// MinRadiusM is the floor radius clamp (spec.md §4.2: "radii below 5000m
// are clamped up to 5000m, since sub-5km disks are numerically unstable to
// sample at 60 points and carry no discriminating power at this scale").
const MinRadiusM = 5000

// Build constructs the disk Region centered at (refLon, refLat) with the
// given radius in meters.
func Build(ctx *region.Context, refLon, refLat, radiusM float64) (region.Region, error) {
	rect := ctx.MapRectangle()

	if radiusM > FullRectangleThresholdM {
		return rect, nil
	}
	if radiusM < MinRadiusM {
		radiusM = MinRadiusM
	}

	ring := make([][2]float64, 0, RingPoints+1)
	for i := 0; i < RingPoints; i++ {
		azimuth := float64(i) * (360.0 / RingPoints)
		lat, lon, err := geodesic.Direct(refLat, refLon, azimuth, radiusM)
		if err != nil {
			return region.Region{}, fmt.Errorf("diskbuilder: sample point %d: %w", i, err)
		}
		ring = append(ring, [2]float64{lon, lat})
	}

	crossings := countSeamCrossings(ring)

	var disk region.Region
	var err error
	switch {
	case crossings == 0:
		disk, err = ctx.FromRing(ring)
	case crossings == 1:
		disk, err = buildWithPoleDiversion(ctx, ring)
	case crossings == 2:
		disk, err = buildSeamSplit(ctx, ring)
	default:
		// 3 or more crossings only happens for disks so large they wrap
		// most of a latitude circle; treat as covering the full rectangle
		// rather than attempting to reconstruct a self-consistent ring.
		return rect, nil
	}
	if err != nil {
		return region.Region{}, err
	}

	disk = disk.Repair()

	// The ring sample can, depending on winding, describe either the disk
	// or its complement within the rectangle; spec.md §4.2 resolves this
	// by checking containment of the reference point itself.
	if !disk.Contains(refLon, refLat) {
		disk, err = rect.Difference(disk)
		if err != nil {
			return region.Region{}, err
		}
		disk = disk.Repair()
	}

	out, err := disk.Intersection(rect)
	if err != nil {
		return region.Region{}, err
	}
	return out.Repair(), nil
}

// countSeamCrossings counts how many consecutive ring edges cross the
// ±180° antimeridian, defined as a longitude jump of more than 180°
// between consecutive sample points.
func countSeamCrossings(ring [][2]float64) int {
	n := 0
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		if absFloat(ring[j][0]-ring[i][0]) > 180 {
			n++
		}
	}
	return n
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// buildWithPoleDiversion handles a disk that crosses the seam exactly
// once: this only happens when the disk also encloses a pole, so the ring
// is routed via the enclosed pole's latitude extreme instead of being
// split into two pieces (spec.md §4.2's "pole diversion" case).
//
// Ported directly from original_source/lib/ageo/ageo.py's
// compute_bounding_region_now: the pole is picked from the sign of the
// crossing point's own latitude (not the reference point's), and each end
// of the detour closes against whichever rectangle edge (west or east) is
// on that point's side of the seam, not unconditionally the west edge —
// a ring point on the positive side must detour via the east edge, or the
// inserted edge jumps back across the seam instead of routing through the
// pole band.
func buildWithPoleDiversion(ctx *region.Context, ring [][2]float64) (region.Region, error) {
	crossIdx := -1
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		if absFloat(ring[j][0]-ring[i][0]) > 180 {
			crossIdx = i
			break
		}
	}
	if crossIdx < 0 {
		return ctx.FromRing(ring)
	}

	a := ring[crossIdx]
	b := ring[(crossIdx+1)%len(ring)]

	poleLat := region.MapNorth
	if a[1] < 0 {
		poleLat = region.MapSouth
	}
	nearA, nearB := region.MapWest, region.MapEast
	if a[0] >= 0 {
		nearA, nearB = region.MapEast, region.MapWest
	}

	diverted := make([][2]float64, 0, len(ring)+4)
	diverted = append(diverted, ring[:crossIdx+1]...)
	diverted = append(diverted,
		[2]float64{nearA, a[1]},
		[2]float64{nearA, poleLat},
		[2]float64{nearB, poleLat},
		[2]float64{nearB, b[1]},
	)
	diverted = append(diverted, ring[crossIdx+1:]...)
	return ctx.FromRing(diverted)
}

// buildSeamSplit handles a disk that crosses the seam exactly twice: the
// ring is cut into an eastern and a western piece at the crossing edges,
// each piece closed along the rectangle's west/east boundary, and the two
// pieces are unioned into one multi-part Region (spec.md §4.2's "seam
// split" case).
func buildSeamSplit(ctx *region.Context, ring [][2]float64) (region.Region, error) {
	if countSeamCrossings(ring) != 2 {
		return ctx.FromRing(ring)
	}

	west := make([][2]float64, 0, len(ring))
	east := make([][2]float64, 0, len(ring))

	for idx := 0; idx < len(ring); idx++ {
		pt := ring[idx]
		if pt[0] < 0 {
			west = append(west, pt)
		} else {
			east = append(east, pt)
		}
	}

	closeAt := func(pts [][2]float64, edgeLon float64) [][2]float64 {
		if len(pts) == 0 {
			return pts
		}
		out := append([][2]float64{}, pts...)
		first, last := pts[0], pts[len(pts)-1]
		out = append(out, [2]float64{edgeLon, last[1]}, [2]float64{edgeLon, first[1]})
		return out
	}

	west = closeAt(west, region.MapWest)
	east = closeAt(east, region.MapEast)

	return ctx.FromRings([][][2]float64{west, east})
}
