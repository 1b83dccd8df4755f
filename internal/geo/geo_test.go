package geo

import (
	"math"
	"testing"
)

func TestDistanceReflexive(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{12.9716, 77.5946},
		{-33.8688, 151.2093},
		{90, 180},
		{-90, -180},
	}
	for _, p := range points {
		if d := Distance(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Distance(%v, %v) to itself = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{12.9716, 77.5946, 17.3850, 78.4867},
		{51.5074, -0.1278, 40.7128, -74.0060},
		{-1, -1, 1, 1},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1], p[2], p[3])
		ba := Distance(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("asymmetric distance: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceEquatorTenthDegree(t *testing.T) {
	d := Distance(0, 0, 0, 0.1)
	want := 11119.0
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("Distance = %.1f m, want about %.0f m", d, want)
	}
}

// metersNorth returns a latitude offset of roughly m meters
func metersNorth(m float64) float64 {
	return m / (EarthRadiusMeters * math.Pi / 180)
}

func TestClassify(t *testing.T) {
	office := Fence{Name: "ACS", Latitude: 12.9716, Longitude: 77.5946, RadiusMeters: 100}

	if name, ok := Classify(12.9716, 77.5946, nil); ok || name != "" {
		t.Fatalf("empty fence list classified as %q", name)
	}

	tests := []struct {
		name   string
		offset float64
		want   string
		wantOK bool
	}{
		{"inside", 50, "ACS", true},
		{"outside", 150, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(office.Latitude+metersNorth(tt.offset), office.Longitude, []Fence{office})
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Classify at %vm = (%q, %v), want (%q, %v)", tt.offset, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	far := Fence{Name: "Wide", Latitude: 0, Longitude: 0, RadiusMeters: 5000}
	near := Fence{Name: "Near", Latitude: 0, Longitude: 0.0001, RadiusMeters: 100}

	got, _ := Classify(0, 0.0001, []Fence{far, near})
	if got != "Wide" {
		t.Fatalf("Classify = %q, want the first listed fence", got)
	}
}

func TestPathLength(t *testing.T) {
	if got := PathLength(nil); got != 0 {
		t.Fatalf("PathLength(nil) = %v", got)
	}
	pts := []Point{{0, 0}, {0, 0.1}, {0, 0.2}}
	got := PathLength(pts)
	want := 2 * Distance(0, 0, 0, 0.1)
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("PathLength = %v, want %v", got, want)
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
	}
	for _, c := range cases {
		if got := ValidCoordinates(c.lat, c.lon); got != c.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v", c.lat, c.lon, got)
		}
	}
}
