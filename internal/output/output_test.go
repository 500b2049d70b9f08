package output

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/ageo-project/locate-from-db/internal/geomodel"
	"github.com/ageo-project/locate-from-db/internal/region"
)

func TestWrite_NonEmptyRegion(t *testing.T) {
	dir := t.TempDir()
	ctx := region.NewContext()
	reg, err := ctx.FromRing([][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("FromRing: %v", err)
	}

	meta := &geomodel.BatchMetadata{
		BatchID:    42,
		ClientAddr: net.ParseIP("203.0.113.9"),
		Annotation: map[string]any{"estimated_proxy_rtt": 3.0},
	}

	if err := Write(dir, "cbg-m-1", meta, reg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := Path(dir, "cbg-m-1", 42)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	props, ok := decoded["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties object: %v", decoded)
	}
	if props["batch_id"].(float64) != 42 {
		t.Errorf("batch_id = %v, want 42", props["batch_id"])
	}
	if props["tag"] != "cbg-m-1" {
		t.Errorf("tag = %v, want cbg-m-1", props["tag"])
	}
	if props["is_empty"] != false {
		t.Errorf("is_empty = %v, want false", props["is_empty"])
	}
}

func TestWrite_EmptyRegion(t *testing.T) {
	dir := t.TempDir()
	ctx := region.NewContext()
	meta := &geomodel.BatchMetadata{BatchID: 7}

	if err := Write(dir, "empty-intersection", meta, ctx.Empty()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "empty-intersection-7.geojson")); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}
