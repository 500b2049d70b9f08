package diskbuilder

import (
	"testing"

	"github.com/ageo-project/locate-from-db/internal/region"
)

func TestBuild_SmallDiskContainsCenter(t *testing.T) {
	ctx := region.NewContext()
	disk, err := Build(ctx, 10.0, 45.0, 200_000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if disk.IsEmpty() {
		t.Fatal("disk should not be empty")
	}
	if !disk.Contains(10.0, 45.0) {
		t.Error("disk should contain its own reference point")
	}
}

func TestBuild_HugeRadiusCoversRectangle(t *testing.T) {
	ctx := region.NewContext()
	disk, err := Build(ctx, 0, 0, FullRectangleThresholdM+1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rect := ctx.MapRectangle()
	if !disk.AlmostEqual(rect) {
		t.Error("oversized disk should equal the map rectangle")
	}
}

func TestBuild_RadiusClampedToMinimum(t *testing.T) {
	ctx := region.NewContext()
	tiny, err := Build(ctx, 20, 20, 1)
	if err != nil {
		t.Fatalf("Build(1m): %v", err)
	}
	floor, err := Build(ctx, 20, 20, MinRadiusM)
	if err != nil {
		t.Fatalf("Build(min): %v", err)
	}
	if !tiny.AlmostEqual(floor) {
		t.Error("sub-floor radius should be clamped up to MinRadiusM")
	}
}

func TestBuild_NearAntimeridianStillContainsCenter(t *testing.T) {
	ctx := region.NewContext()
	disk, err := Build(ctx, 179.95, 10, 100_000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if disk.IsEmpty() {
		t.Fatal("disk crossing the seam should not be empty")
	}
	if !disk.Contains(179.95, 10) {
		t.Error("seam-crossing disk should contain its own reference point")
	}
}

// TestBuild_NearPoleHandlesPoleDiversion exercises spec.md §8's boundary
// case directly: "a disk whose reference point is at latitude 84° and
// radius 2,000 km encloses the North Pole". At that radius the geodesic
// ring wraps every longitude near the pole, crossing the antimeridian
// exactly once and forcing the pole-diversion path; a wrong diversion
// (e.g. always closing against the west edge regardless of which side of
// the seam each endpoint falls on) produces an invalid polygon that fails
// to contain the pole band on the side it got wrong.
func TestBuild_NearPoleHandlesPoleDiversion(t *testing.T) {
	ctx := region.NewContext()
	disk, err := Build(ctx, 0, 84.0, 2_000_000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if disk.IsEmpty() {
		t.Fatal("near-pole disk should not be empty")
	}

	// A disk that truly encloses the pole must contain points right up to
	// the map rectangle's north edge at every meridian, not just near its
	// own reference longitude.
	for _, lon := range []float64{0, 90, 179, -90, -179} {
		if !disk.Contains(lon, region.MapNorth-0.1) {
			t.Errorf("disk enclosing the pole should contain (%v, %v)", lon, region.MapNorth-0.1)
		}
	}
}

func TestCountSeamCrossings(t *testing.T) {
	noCrossing := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if n := countSeamCrossings(noCrossing); n != 0 {
		t.Errorf("no-crossing ring: got %d crossings, want 0", n)
	}

	twoCrossings := [][2]float64{{170, 0}, {-170, 0}, {-170, 1}, {170, 1}}
	if n := countSeamCrossings(twoCrossings); n != 2 {
		t.Errorf("closed ring crossing twice: got %d, want 2", n)
	}
}
