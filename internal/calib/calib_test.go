package calib

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"math"
	"net"
	"testing"

	"github.com/ageo-project/locate-from-db/internal/geomodel"
)

func TestCalibration_MinMaxRange(t *testing.T) {
	c := Calibration{Kind: KindCBG, M: 100_000, B: 500}
	rMin, rMax := c.Range([]float64{12.5, 20, 30})
	if rMin != 0 {
		t.Errorf("rMin = %v, want 0", rMin)
	}
	want := 100_000*12.5 + 500
	if math.Abs(rMax-want) > 1e-9 {
		t.Errorf("rMax = %v, want %v", rMax, want)
	}
}

func TestCalibration_GaussianRange(t *testing.T) {
	c := Calibration{Kind: KindSpotterGaussian, M: 1000, B: 0}
	rMin, rMax := c.Range([]float64{10, 20, 30, 40, 50})
	if rMin >= rMax {
		t.Errorf("rMin (%v) should be < rMax (%v)", rMin, rMax)
	}
}

func TestCalibration_EmptyRtts(t *testing.T) {
	c := Calibration{Kind: KindCBG, M: 1, B: 1}
	rMin, rMax := c.Range(nil)
	if rMin != 0 || rMax != 0 {
		t.Errorf("empty rtts: got (%v, %v), want (0, 0)", rMin, rMax)
	}
}

func TestPhysicalLimit(t *testing.T) {
	rMin, rMax := PhysicalLimit([]float64{30, 40})
	if rMin != 0 {
		t.Errorf("rMin = %v, want 0", rMin)
	}
	// c_eff = 299792458 * 2/3 m/s; minrtt = 30ms = 0.03s; r_max = c_eff*0.03/2
	cEff := 299_792_458.0 * 2.0 / 3.0
	want := cEff * 0.015
	if math.Abs(rMax-want) > 1.0 {
		t.Errorf("rMax = %v, want ~%v", rMax, want)
	}
}

func TestStore_LookupPriority(t *testing.T) {
	globalCal := Calibration{Kind: KindCBG, M: 1, B: 1}
	blob := variantBlob{
		Kind:   KindCBG,
		Global: &globalCal,
		ByKey: map[string]Calibration{
			"10.0.0.1": {Kind: KindCBG, M: 2, B: 2},
			"node-7":   {Kind: KindCBG, M: 3, B: 3},
		},
	}
	s := &Store{variants: map[string]variantBlob{"cbg": blob}}

	byIP := geomodel.LandmarkPosition{Addr: net.ParseIP("10.0.0.1"), Label: "node-7", ILabel: -1}
	got, ok := s.Lookup("cbg", byIP)
	if !ok || got.M != 2 {
		t.Errorf("expected ipv4 match (M=2), got %v, ok=%v", got, ok)
	}

	byLabel := geomodel.LandmarkPosition{Label: "node-7", ILabel: -1}
	got, ok = s.Lookup("cbg", byLabel)
	if !ok || got.M != 3 {
		t.Errorf("expected label match (M=3), got %v, ok=%v", got, ok)
	}

	unmatched := geomodel.LandmarkPosition{Label: "unknown", ILabel: -1}
	got, ok = s.Lookup("cbg", unmatched)
	if !ok || got.M != 1 {
		t.Errorf("expected pooled global match (M=1), got %v, ok=%v", got, ok)
	}
}

func TestStore_LookupMissingVariant(t *testing.T) {
	s := &Store{variants: map[string]variantBlob{}}
	_, ok := s.Lookup("octant", geomodel.LandmarkPosition{Label: "x", ILabel: -1})
	if ok {
		t.Error("expected no match for missing variant")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	globalCal := Calibration{Kind: KindOctant, M: 5, B: 0}
	variants := map[string]variantBlob{
		"octant": {Kind: KindOctant, Global: &globalCal, ByKey: map[string]Calibration{}},
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(variants); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}

	s, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := s.Lookup("octant", geomodel.LandmarkPosition{Label: "anything", ILabel: -1})
	if !ok || got.M != 5 {
		t.Errorf("round trip lookup: got %v, ok=%v", got, ok)
	}
}
