package basemap

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ageo-project/locate-from-db/internal/region"
)

// encodeRingDump writes the ring-dump format Load expects, for testing.
func encodeRingDump(rings [][][2]float64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(rings)))
	for _, ring := range rings {
		binary.Write(&buf, binary.LittleEndian, uint32(len(ring)))
		for _, p := range ring {
			binary.Write(&buf, binary.LittleEndian, p[0])
			binary.Write(&buf, binary.LittleEndian, p[1])
		}
	}
	return buf.Bytes()
}

func TestLoad_SingleSquareRing(t *testing.T) {
	ctx := region.NewContext()
	square := [][2]float64{
		{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0},
	}
	data := encodeRingDump([][][2]float64{square})

	reg, err := Load(ctx, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reg.IsEmpty() {
		t.Fatal("loaded basemap should not be empty")
	}
	if !reg.Contains(5, 5) {
		t.Error("basemap should contain a point inside the square")
	}
	if reg.Contains(50, 50) {
		t.Error("basemap should not contain a point outside the square")
	}
}

func TestLoad_EmptyDump(t *testing.T) {
	ctx := region.NewContext()
	data := encodeRingDump(nil)
	reg, err := Load(ctx, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reg.IsEmpty() {
		t.Error("an empty ring-dump should produce an empty basemap")
	}
}

func TestLoadFile_MissingPath(t *testing.T) {
	ctx := region.NewContext()
	if _, err := LoadFile(ctx, "/nonexistent/path/basemap.bin"); err == nil {
		t.Error("expected error for missing basemap file")
	}
}
