// Package region implements RegionAlgebra (spec.md §4.3): polygon set
// operations over spherical lon/lat polygons, plus the bounded map
// rectangle and BaseMap.
//
// The pack's examples contain no general polygon-boolean-algebra library
// (WavesMan-ip-api hand-rolls only bounding-box and even-odd
// point-in-polygon tests); this package is built on
// github.com/twpayne/go-geos, cgo bindings onto GEOS, mirroring
// original_source's own shapely/GEOS dependency. See DESIGN.md.
package region

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-geos"
)

// Map rectangle bounds from spec.md §3.
const (
	MapWest  = -179.9
	MapEast  = 179.9
	MapSouth = -60.0
	MapNorth = 85.0

	// AlmostEqualToleranceDeg is the vertex-agreement tolerance from
	// spec.md §4.3.
	AlmostEqualToleranceDeg = 0.01
)

// Context owns one GEOS handle. go-geos contexts are not safe for
// concurrent use from multiple goroutines, so spec.md §5's "one handle per
// worker" ownership model is expressed directly: callers construct one
// Context per worker goroutine.
type Context struct {
	g *geos.Context
}

// NewContext constructs a fresh GEOS context.
func NewContext() *Context {
	return &Context{g: geos.NewContext()}
}

// Region is a possibly multi-part polygon in lon/lat, wrapping one GEOS
// geometry handle.
type Region struct {
	ctx  *Context
	geom *geos.Geom
}

// MapRectangle returns the bounding rectangle from spec.md §3.
func (c *Context) MapRectangle() Region {
	return c.mustFromWKT(boxWKT(MapWest, MapSouth, MapEast, MapNorth))
}

func boxWKT(west, south, east, north float64) string {
	return fmt.Sprintf(
		"POLYGON((%[1]f %[2]f,%[3]f %[2]f,%[3]f %[4]f,%[1]f %[4]f,%[1]f %[2]f))",
		west, south, east, north)
}

// FromRing builds a single-ring polygon Region from a sequence of (lon, lat)
// points. The ring need not be closed: if the last point differs from the
// first, FromRing appends the first point to close it.
func (c *Context) FromRing(ring [][2]float64) (Region, error) {
	if len(ring) < 3 {
		return Region{}, fmt.Errorf("region: ring needs at least 3 points, got %d", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(append([][2]float64{}, ring...), ring[0])
	}
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, p := range ring {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%f %f", p[0], p[1])
	}
	b.WriteString("))")
	g, err := c.g.NewGeomFromWKT(b.String())
	if err != nil {
		return Region{}, fmt.Errorf("region: parse ring: %w", err)
	}
	return Region{ctx: c, geom: g}, nil
}

// FromRings builds a multi-polygon Region out of several independently
// closed rings (used by DiskBuilder's two-crossing antimeridian split).
func (c *Context) FromRings(rings [][][2]float64) (Region, error) {
	if len(rings) == 0 {
		return c.Empty(), nil
	}
	parts := make([]Region, 0, len(rings))
	for _, r := range rings {
		p, err := c.FromRing(r)
		if err != nil {
			return Region{}, err
		}
		parts = append(parts, p)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		var err error
		out, err = out.Union(p)
		if err != nil {
			return Region{}, err
		}
	}
	return out, nil
}

// ParseWKT parses a WKT string into a Region bound to this context. Used
// to move a Region computed under one GEOS context (e.g. the BaseMap
// loaded once by the coordinator) into another worker's context, since
// go-geos geometries are not shareable across contexts (spec.md §5: each
// worker owns its own handle).
func (c *Context) ParseWKT(s string) (Region, error) {
	g, err := c.g.NewGeomFromWKT(s)
	if err != nil {
		return Region{}, fmt.Errorf("region: parse wkt: %w", err)
	}
	return Region{ctx: c, geom: g}, nil
}

// Empty returns the empty Region.
func (c *Context) Empty() Region {
	return c.mustFromWKT("POLYGON EMPTY")
}

func (c *Context) mustFromWKT(wkt string) Region {
	g, err := c.g.NewGeomFromWKT(wkt)
	if err != nil {
		panic("region: invalid builtin WKT: " + err.Error())
	}
	return Region{ctx: c, geom: g}
}

func (r Region) valid() bool { return r.geom != nil }

// Context returns the GEOS context r was built under, so callers can
// parse another Region's WKT into the same context before combining them
// (go-geos requires both operands of a binary op to share a context).
func (r Region) Context() *Context { return r.ctx }

// Intersection returns r ∩ other.
func (r Region) Intersection(other Region) (Region, error) {
	if !r.valid() || !other.valid() {
		return Region{}, fmt.Errorf("region: intersection of invalid region")
	}
	g := r.geom.Intersection(other.geom)
	return Region{ctx: r.ctx, geom: g}, nil
}

// Difference returns r \ other.
func (r Region) Difference(other Region) (Region, error) {
	if !r.valid() || !other.valid() {
		return Region{}, fmt.Errorf("region: difference of invalid region")
	}
	g := r.geom.Difference(other.geom)
	return Region{ctx: r.ctx, geom: g}, nil
}

// Union returns r ∪ other.
func (r Region) Union(other Region) (Region, error) {
	if !r.valid() || !other.valid() {
		return Region{}, fmt.Errorf("region: union of invalid region")
	}
	g := r.geom.Union(other.geom)
	return Region{ctx: r.ctx, geom: g}, nil
}

// Area returns the area in square degrees. Only used for tie-breaking
// (spec.md §4.3), so no equal-area projection is needed.
func (r Region) Area() float64 {
	if !r.valid() {
		return 0
	}
	a, err := r.geom.Area()
	if err != nil {
		return 0
	}
	return a
}

// IsEmpty reports whether the region is the empty set. A degenerate
// non-empty result (e.g. two polygons touching along an edge) is not empty
// even though its area is zero.
func (r Region) IsEmpty() bool {
	return !r.valid() || r.geom.IsEmpty()
}

// Contains reports whether the region contains (lon, lat).
func (r Region) Contains(lon, lat float64) bool {
	if !r.valid() {
		return false
	}
	pt := r.ctx.g.NewPoint(geos.NewCoord(lon, lat))
	return r.geom.Contains(pt)
}

// Repair fixes self-intersections introduced by seam surgery, per
// spec.md §4.3's repair() contract.
func (r Region) Repair() Region {
	if !r.valid() {
		return r
	}
	if r.geom.IsValid() {
		return r
	}
	return Region{ctx: r.ctx, geom: r.geom.MakeValid()}
}

// Buffer grows (or, for negative width, shrinks) the region by width
// (degrees if the region is already in lon/lat — used directly by
// AlmostEqual's Hausdorff-style tolerance check, not by DiskBuilder, which
// builds its circle via GeodesicKit instead of a planar buffer).
func (r Region) Buffer(width float64) Region {
	if !r.valid() {
		return r
	}
	return Region{ctx: r.ctx, geom: r.geom.Buffer(width, 8)}
}

// AlmostEqual implements spec.md §4.3's "almost equal" tolerance test:
// true when every point of each polygon lies within
// AlmostEqualToleranceDeg of the other, i.e. the symmetric Hausdorff
// distance is at most that tolerance. Expressed as two buffered-containment
// checks rather than vertex walking, since GEOS already normalizes ring
// orientation and starting vertex (spec.md intentionally leaves the
// *technique* open: "two polygons are almost equal when corresponding
// vertices agree to 0.01°").
func (r Region) AlmostEqual(other Region) bool {
	if r.IsEmpty() && other.IsEmpty() {
		return true
	}
	if r.IsEmpty() != other.IsEmpty() {
		return false
	}
	rBuf := r.Buffer(AlmostEqualToleranceDeg)
	oBuf := other.Buffer(AlmostEqualToleranceDeg)
	return rBuf.geom.Contains(other.geom) && oBuf.geom.Contains(r.geom)
}

// ToWKT returns the region's WKT representation, used to move a region
// between GEOS contexts (via ParseWKT), to store it in ResultCache, and to
// encode output files.
func (r Region) ToWKT() string {
	if !r.valid() {
		return "POLYGON EMPTY"
	}
	return r.geom.ToWKT()
}

// Geom exposes the underlying GEOS geometry for callers that need to walk
// rings directly.
func (r Region) Geom() *geos.Geom { return r.geom }
