// Package basemap loads the BaseMap (spec.md §3/§6): the land-area
// polygon clipped to the map rectangle, produced once by external
// map-prep tooling and read here through RegionAlgebra.
//
// spec.md §6 leaves the on-disk format implementation-private ("a vector
// polygon dataset... loadable by a common GIS library"); SPEC_FULL.md §4.3
// resolves this to a simple binary ring-dump this package parses directly,
// then hands to go-geos via region.Context.FromRings, mirroring
// original_source/maps/make_geog_baseline.py's role of producing a
// pre-built land dataset for the engine to load rather than rasterizing at
// run time.
package basemap

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/ageo-project/locate-from-db/internal/ageoerr"
	"github.com/ageo-project/locate-from-db/internal/region"
)

// Load reads a ring-dump: a uint32 ring count, then per ring a uint32
// point count followed by that many (lon, lat) float64 pairs. Rings are
// unioned into a single Region representing land, which Load intersects
// with the map rectangle before returning it.
func Load(ctx *region.Context, r io.Reader) (region.Region, error) {
	br := bufio.NewReader(r)

	var ringCount uint32
	if err := binary.Read(br, binary.LittleEndian, &ringCount); err != nil {
		return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "read basemap ring count", err)
	}

	rings := make([][][2]float64, 0, ringCount)
	for i := uint32(0); i < ringCount; i++ {
		var pointCount uint32
		if err := binary.Read(br, binary.LittleEndian, &pointCount); err != nil {
			return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "read basemap ring header", err)
		}
		ring := make([][2]float64, 0, pointCount)
		for p := uint32(0); p < pointCount; p++ {
			var lon, lat float64
			if err := binary.Read(br, binary.LittleEndian, &lon); err != nil {
				return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "read basemap point", err)
			}
			if err := binary.Read(br, binary.LittleEndian, &lat); err != nil {
				return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "read basemap point", err)
			}
			ring = append(ring, [2]float64{lon, lat})
		}
		rings = append(rings, ring)
	}

	land, err := ctx.FromRings(rings)
	if err != nil {
		return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "build basemap rings", err)
	}
	land = land.Repair()

	base, err := land.Intersection(ctx.MapRectangle())
	if err != nil {
		return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "clip basemap to map rectangle", err)
	}
	return base.Repair(), nil
}

// LoadFile opens path and calls Load.
func LoadFile(ctx *region.Context, path string) (region.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return region.Region{}, ageoerr.Wrap(ageoerr.KindIO, "open basemap file "+path, err)
	}
	defer f.Close()
	return Load(ctx, f)
}
