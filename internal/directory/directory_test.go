package directory

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"mbtamap/internal/lines"
)

func testDirectory() *Directory {
	d := &Directory{
		Stations: []Station{
			{ID: "place-alfcl", Name: "Alewife", Position: orb.Point{-71.142483, 42.395428}, Lines: []lines.ID{"Red"}},
			{ID: "place-pktrm", Name: "Park Street", Position: orb.Point{-71.062424, 42.356395}, Lines: []lines.ID{"Red", "Green-B"}},
			{ID: "place-wondl", Name: "Wonderland", Position: orb.Point{-70.991648, 42.41342}, Lines: []lines.ID{"Blue"}},
		},
		Routes: map[lines.ID]string{"Red": "Red Line"},
		index:  map[string]int{"place-alfcl": 0, "place-pktrm": 1, "place-wondl": 2},
		table:  lines.Default(),
	}
	return d
}

func TestStation_Bounds(t *testing.T) {
	d := testDirectory()
	if _, ok := d.Station(-1); ok {
		t.Error("Station(-1) ok = true")
	}
	if _, ok := d.Station(3); ok {
		t.Error("Station(3) ok = true")
	}
	if s, ok := d.Station(2); !ok || s.Name != "Wonderland" {
		t.Errorf("Station(2) = %v, %v", s.Name, ok)
	}
}

func TestStationsOnLine(t *testing.T) {
	d := testDirectory()
	got := d.StationsOnLine("Red")
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("StationsOnLine(Red) = %v, want [0 1]", got)
	}
	if got := d.StationsOnLine("Orange"); len(got) != 0 {
		t.Errorf("StationsOnLine(Orange) = %v, want none", got)
	}
}

func TestNearest(t *testing.T) {
	d := testDirectory()

	// Downtown Crossing is a few hundred meters from Park Street.
	i, meters, ok := d.Nearest(orb.Point{-71.060225, 42.355518})
	if !ok {
		t.Fatal("Nearest() ok = false")
	}
	if i != 1 {
		t.Errorf("Nearest() index = %d, want 1 (Park Street)", i)
	}
	if meters <= 0 || meters > 500 {
		t.Errorf("Nearest() distance = %.0f m, want (0, 500]", meters)
	}

	empty := &Directory{}
	if _, _, ok := empty.Nearest(orb.Point{0, 0}); ok {
		t.Error("Nearest() on empty directory ok = true")
	}
}

func TestBound(t *testing.T) {
	d := testDirectory()
	b := d.Bound()
	if b.Min.Lon() != -71.142483 || b.Max.Lon() != -70.991648 {
		t.Errorf("Bound lon = [%f, %f]", b.Min.Lon(), b.Max.Lon())
	}
	if math.Abs(b.Min.Lat()-42.356395) > 1e-9 || math.Abs(b.Max.Lat()-42.41342) > 1e-9 {
		t.Errorf("Bound lat = [%f, %f]", b.Min.Lat(), b.Max.Lat())
	}

	if got := (&Directory{}).Bound(); !got.IsZero() {
		t.Errorf("empty Bound = %v, want zero", got)
	}
}

func TestRouteName(t *testing.T) {
	d := testDirectory()
	if got := d.RouteName("Red"); got != "Red Line" {
		t.Errorf("RouteName(Red) = %q", got)
	}
	if got := d.RouteName("Blue"); got != "Blue" {
		t.Errorf("RouteName(Blue) = %q, want id fallback", got)
	}
}

func TestAccessibilityString(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "Accessibility unknown"},
		{1, "Wheelchair accessible"},
		{2, "Not wheelchair accessible"},
		{7, "Accessibility unknown"},
	}
	for _, tt := range tests {
		if got := accessibilityFromGTFS(tt.in).String(); got != tt.want {
			t.Errorf("accessibilityFromGTFS(%d).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLines(t *testing.T) {
	d := testDirectory()
	got := d.Lines()
	if len(got) != 7 || got[0] != "Red" || got[6] != "Green-E" {
		t.Errorf("Lines() = %v, want the seven default lines", got)
	}
	if (&Directory{}).Lines() != nil {
		t.Error("Lines() without a table should be nil")
	}
}

func TestHasLine(t *testing.T) {
	d := testDirectory()
	tests := []struct {
		line lines.ID
		want bool
	}{
		{"Red", true},
		{"Green-E", true},
		{"Silver", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := d.HasLine(tt.line); got != tt.want {
			t.Errorf("HasLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
	if (&Directory{}).HasLine("Red") {
		t.Error("HasLine() without a table should be false")
	}
}
