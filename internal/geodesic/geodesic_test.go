package geodesic

import (
	"math"
	"testing"
)

// Flinders Peak to Buninyong, the classic Vincenty worked example.
// Expected: azimuth ~306.86816 deg, distance ~54972.271 m.
func TestInverse_VincentyWorkedExample(t *testing.T) {
	azimuth, dist, err := Inverse(-37.95103341, 144.42486789, -37.65282114, 143.92649552)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if math.Abs(dist-54972.271) > 0.01 {
		t.Errorf("distance = %v, want ~54972.271", dist)
	}
	if math.Abs(azimuth-306.86816) > 0.001 {
		t.Errorf("azimuth = %v, want ~306.86816", azimuth)
	}
}

func TestDirect_VincentyWorkedExample(t *testing.T) {
	lat, lon, err := Direct(-37.95103341, 144.42486789, 306.86816, 54972.271)
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}
	if math.Abs(lat-(-37.65282114)) > 1e-5 {
		t.Errorf("lat = %v, want ~-37.65282114", lat)
	}
	if math.Abs(lon-143.92649552) > 1e-5 {
		t.Errorf("lon = %v, want ~143.92649552", lon)
	}
}

func TestInverse_CoincidentPoints(t *testing.T) {
	azimuth, dist, err := Inverse(10, 20, 10, 20)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if azimuth != 0 || dist != 0 {
		t.Errorf("coincident points: got azimuth=%v dist=%v, want 0,0", azimuth, dist)
	}
}

func TestDirectInverse_RoundTrip(t *testing.T) {
	cases := []struct {
		lat0, lon0, az, dist float64
	}{
		{0, 0, 45, 1_000_000},
		{51.5, -0.1, 270, 5_000_000},
		{-33.9, 151.2, 10, 15_000_000},
	}
	for _, c := range cases {
		lat1, lon1, err := Direct(c.lat0, c.lon0, c.az, c.dist)
		if err != nil {
			t.Fatalf("Direct: %v", err)
		}
		az2, dist2, err := Inverse(c.lat0, c.lon0, lat1, lon1)
		if err != nil {
			t.Fatalf("Inverse: %v", err)
		}
		if math.Abs(dist2-c.dist) > 1.0 {
			t.Errorf("round trip distance = %v, want ~%v", dist2, c.dist)
		}
		if math.Abs(az2-c.az) > 0.01 {
			t.Errorf("round trip azimuth = %v, want ~%v", az2, c.az)
		}
	}
}

func TestDirect_NonFiniteInput(t *testing.T) {
	_, _, err := Direct(math.NaN(), 0, 0, 1000)
	if err == nil {
		t.Fatal("expected error for NaN input")
	}
}

func TestWrapLon(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{180, 180},
		{-180, 180},
		{181, -179},
		{-181, 179},
		{360, 0},
		{540, 180},
	}
	for _, c := range cases {
		got := WrapLon(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("WrapLon(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAEQD_ForwardInverseRoundTrip(t *testing.T) {
	proj := NewAEQD(40.0, -75.0)
	lat, lon := 42.5, -80.0
	x, y, err := proj.Forward(lat, lon)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	lat2, lon2, err := proj.Inverse(x, y)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if math.Abs(lat2-lat) > 1e-6 || math.Abs(lon2-lon) > 1e-6 {
		t.Errorf("round trip = (%v, %v), want (%v, %v)", lat2, lon2, lat, lon)
	}
}

func TestAEQD_OriginMapsToReference(t *testing.T) {
	proj := NewAEQD(51.5, -0.1)
	lat, lon, err := proj.Inverse(0, 0)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if lat != proj.RefLat || lon != proj.RefLon {
		t.Errorf("origin = (%v, %v), want (%v, %v)", lat, lon, proj.RefLat, proj.RefLon)
	}
}
