package region

import "testing"

func square(ctx *Context, t *testing.T, x0, y0, x1, y1 float64) Region {
	t.Helper()
	r, err := ctx.FromRing([][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}})
	if err != nil {
		t.Fatalf("FromRing: %v", err)
	}
	return r
}

func TestIntersection(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 10, 10)
	b := square(ctx, t, 5, 5, 15, 15)

	got, err := a.Intersection(b)
	if err != nil {
		t.Fatalf("Intersection: %v", err)
	}
	if got.IsEmpty() {
		t.Fatal("overlapping squares should intersect")
	}
	if !got.Contains(7, 7) {
		t.Error("intersection should contain the shared corner region")
	}
	if got.Contains(1, 1) {
		t.Error("intersection should not contain a point only in A")
	}
}

func TestIntersectionDisjoint(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 5, 5)
	b := square(ctx, t, 50, 50, 55, 55)

	got, err := a.Intersection(b)
	if err != nil {
		t.Fatalf("Intersection: %v", err)
	}
	if !got.IsEmpty() {
		t.Error("disjoint squares should have an empty intersection")
	}
}

func TestDifference(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 10, 10)
	b := square(ctx, t, 5, 0, 10, 10)

	got, err := a.Difference(b)
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	if got.IsEmpty() {
		t.Fatal("difference should not be empty")
	}
	if !got.Contains(2, 5) {
		t.Error("difference should keep the left half of A")
	}
	if got.Contains(8, 5) {
		t.Error("difference should not contain B's overlapping half")
	}
}

func TestArea(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 10, 10)
	b := square(ctx, t, 0, 0, 5, 5)

	if a.Area() <= b.Area() {
		t.Errorf("area(A)=%v should exceed area(B)=%v", a.Area(), b.Area())
	}
	if NewContext().Empty().Area() != 0 {
		t.Error("empty region should have zero area")
	}
}

func TestContains(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 10, 10)

	if !a.Contains(5, 5) {
		t.Error("square should contain its own center")
	}
	if a.Contains(50, 50) {
		t.Error("square should not contain a far-away point")
	}
}

func TestIsEmpty(t *testing.T) {
	ctx := NewContext()
	if !ctx.Empty().IsEmpty() {
		t.Error("Empty() should report IsEmpty")
	}
	if square(ctx, t, 0, 0, 1, 1).IsEmpty() {
		t.Error("a real square should not report IsEmpty")
	}
}

func TestAlmostEqual(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 10, 10)
	bNear, err := ctx.FromRing([][2]float64{{0.001, 0.001}, {10.001, 0.001}, {10.001, 10.001}, {0.001, 10.001}})
	if err != nil {
		t.Fatalf("FromRing: %v", err)
	}
	if !a.AlmostEqual(bNear) {
		t.Error("squares offset by 0.001deg should be almost equal")
	}

	cFar := square(ctx, t, 0, 0, 20, 20)
	if a.AlmostEqual(cFar) {
		t.Error("squares with very different extents should not be almost equal")
	}

	if !ctx.Empty().AlmostEqual(ctx.Empty()) {
		t.Error("two empty regions should be almost equal")
	}
	if a.AlmostEqual(ctx.Empty()) {
		t.Error("a non-empty region should not be almost equal to an empty one")
	}
}

func TestRepair(t *testing.T) {
	ctx := NewContext()
	// A bowtie (self-intersecting) ring: GEOS parses it but IsValid
	// reports false, exercising the Repair→MakeValid path used after
	// DiskBuilder's seam surgery.
	bowtie, err := ctx.FromRing([][2]float64{{0, 0}, {10, 10}, {10, 0}, {0, 10}})
	if err != nil {
		t.Fatalf("FromRing: %v", err)
	}
	repaired := bowtie.Repair()
	if repaired.IsEmpty() {
		t.Fatal("repaired bowtie should not collapse to empty")
	}
}

func TestFromRingsAntimeridianSplit(t *testing.T) {
	ctx := NewContext()
	// Mirrors DiskBuilder's two-crossing case: a disk straddling the
	// antimeridian split into a western sliver and an eastern sliver,
	// each closed against its own rectangle edge, then unioned.
	west := [][2]float64{{MapWest, -5}, {-175, -5}, {-175, 5}, {MapWest, 5}}
	east := [][2]float64{{175, -5}, {MapEast, -5}, {MapEast, 5}, {175, 5}}

	got, err := ctx.FromRings([][][2]float64{west, east})
	if err != nil {
		t.Fatalf("FromRings: %v", err)
	}
	if got.IsEmpty() {
		t.Fatal("split multi-part region should not be empty")
	}
	if !got.Contains(-177, 0) {
		t.Error("split region should contain a point in the western sliver")
	}
	if !got.Contains(177, 0) {
		t.Error("split region should contain a point in the eastern sliver")
	}
	if got.Contains(0, 0) {
		t.Error("split region should not contain a point between the two slivers")
	}
}

func TestParseWKTRoundTrip(t *testing.T) {
	ctx := NewContext()
	a := square(ctx, t, 0, 0, 10, 10)
	other := NewContext()

	parsed, err := other.ParseWKT(a.ToWKT())
	if err != nil {
		t.Fatalf("ParseWKT: %v", err)
	}
	if !parsed.Contains(5, 5) {
		t.Error("round-tripped region should still contain the original center point")
	}
}
