// Package output writes one GeoJSON feature file per (batch, variant)
// pair, per spec.md §6's "region as polygon or multi-polygon in lon/lat,
// plus the full BatchMetadata annotations as key/value pairs" output
// contract.
//
// Grounded on the rest of the pack's indirect paulmach/orb dependency
// (promoted to direct use here, see DESIGN.md) as the wire representation:
// go-geos produces WKT, which orb/encoding/wkt parses into an orb.Geometry
// for orb/geojson to marshal alongside the annotation map.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/ageo-project/locate-from-db/internal/geomodel"
	"github.com/ageo-project/locate-from-db/internal/region"
)

// FileExt is the extension used for every output file (spec.md §6:
// "<tag>-<batch_id>.<ext>").
const FileExt = "geojson"

// Path returns the conventional output path for tag and batchID under
// dir, per spec.md §4.8's naming rule.
func Path(dir, tag string, batchID int64) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.%s", tag, batchID, FileExt))
}

// Write renders reg and meta's annotations as a GeoJSON Feature and writes
// it atomically (write-to-temp, rename) to Path(dir, tag, meta.BatchID).
func Write(dir, tag string, meta *geomodel.BatchMetadata, reg region.Region) error {
	var geom orb.Geometry = orb.MultiPolygon{}
	if !reg.IsEmpty() {
		g, err := wkt.Unmarshal(reg.ToWKT())
		if err != nil {
			return fmt.Errorf("output: parse region wkt: %w", err)
		}
		geom = g
	}

	feature := geojson.NewFeature(geom)
	feature.Properties = make(geojson.Properties)
	for k, v := range meta.Annotation {
		feature.Properties[k] = v
	}
	feature.Properties["batch_id"] = meta.BatchID
	feature.Properties["tag"] = tag
	feature.Properties["is_empty"] = reg.IsEmpty()

	data, err := feature.MarshalJSON()
	if err != nil {
		return fmt.Errorf("output: marshal geojson: %w", err)
	}

	target := Path(dir, tag, meta.BatchID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("output: write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("output: rename into place: %w", err)
	}
	return nil
}

