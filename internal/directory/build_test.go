package directory

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"mbtamap/internal/lines"
	"mbtamap/internal/mbta"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func f(v float64) *float64 { return &v }

func stop(id, name string, lat, lon *float64) mbta.Stop {
	return mbta.Stop{ID: id, Attributes: mbta.StopAttributes{Name: name, Latitude: lat, Longitude: lon}}
}

// fakeSource serves canned per-line responses. delays lets a test make
// early lines finish last.
type fakeSource struct {
	mu     sync.Mutex
	data   map[string]mbta.RouteStops
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
}

func (s *fakeSource) StopsForRoute(ctx context.Context, routeID string) (mbta.RouteStops, error) {
	s.mu.Lock()
	s.calls = append(s.calls, routeID)
	s.mu.Unlock()
	if d := s.delays[routeID]; d > 0 {
		time.Sleep(d)
	}
	if err := s.errs[routeID]; err != nil {
		return mbta.RouteStops{}, err
	}
	rs := s.data[routeID]
	rs.RouteID = routeID
	return rs, nil
}

func TestBuild_MergesSharedStops(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{
		{ID: "Green-B", Color: "#008000"},
		{ID: "Green-C", Color: "#00AA00"},
	})
	src := &fakeSource{data: map[string]mbta.RouteStops{
		"Green-B": {LongName: "Green Line B", Stops: []mbta.Stop{
			stop("place-bland", "Blandford Street", f(42.349), f(-71.100)),
			stop("place-kencl", "Kenmore", f(42.348), f(-71.095)),
		}},
		"Green-C": {LongName: "Green Line C", Stops: []mbta.Stop{
			stop("place-smary", "Saint Mary's Street", f(42.345), f(-71.107)),
			stop("place-kencl", "Kenmore", f(42.348), f(-71.095)),
		}},
	}}

	d := Build(context.Background(), src, tbl, 0, testLogger())

	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (Kenmore merged)", d.Len())
	}
	i, ok := d.IndexOf("place-kencl")
	if !ok {
		t.Fatal("IndexOf(place-kencl) not found")
	}
	kenmore := d.Stations[i]
	if len(kenmore.Lines) != 2 || kenmore.Lines[0] != "Green-B" || kenmore.Lines[1] != "Green-C" {
		t.Errorf("Kenmore Lines = %v, want [Green-B Green-C]", kenmore.Lines)
	}
	if kenmore.PrimaryLine != "Green-B" {
		t.Errorf("PrimaryLine = %q, want first-seen Green-B", kenmore.PrimaryLine)
	}
	if kenmore.RouteName != "Green Line B" {
		t.Errorf("RouteName = %q, want Green Line B", kenmore.RouteName)
	}
}

func TestBuild_StationOrderFollowsLineOrder(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{{ID: "Red"}, {ID: "Blue"}, {ID: "Orange"}})
	src := &fakeSource{
		data: map[string]mbta.RouteStops{
			"Red":    {Stops: []mbta.Stop{stop("r1", "R1", f(1), f(1)), stop("r2", "R2", f(2), f(2))}},
			"Blue":   {Stops: []mbta.Stop{stop("b1", "B1", f(3), f(3))}},
			"Orange": {Stops: []mbta.Stop{stop("o1", "O1", f(4), f(4))}},
		},
		// Red finishes last; output must not depend on completion order.
		delays: map[string]time.Duration{"Red": 30 * time.Millisecond},
	}

	d := Build(context.Background(), src, tbl, 3, testLogger())

	want := []string{"r1", "r2", "b1", "o1"}
	if d.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", d.Len(), len(want))
	}
	for i, id := range want {
		if d.Stations[i].ID != id {
			t.Errorf("Stations[%d].ID = %q, want %q", i, d.Stations[i].ID, id)
		}
	}
	if len(src.calls) != 3 {
		t.Errorf("fetch calls = %d, want one per line", len(src.calls))
	}
}

func TestBuild_SegmentsPerLine(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{{ID: "Red", Color: "#FF0000"}, {ID: "Blue", Color: "#0000FF"}})
	src := &fakeSource{data: map[string]mbta.RouteStops{
		"Red": {Stops: []mbta.Stop{
			stop("a", "A", f(1), f(10)),
			stop("b", "B", f(2), f(20)),
			stop("c", "C", f(3), f(30)),
			stop("d", "D", f(4), f(40)),
		}},
		"Blue": {Stops: []mbta.Stop{stop("x", "X", f(5), f(50))}},
	}}

	d := Build(context.Background(), src, tbl, 0, testLogger())

	if len(d.Segments) != 3 {
		t.Fatalf("len(Segments) = %d, want 3 (4 Red stops, 1 Blue stop)", len(d.Segments))
	}
	for i, seg := range d.Segments {
		if seg.Line != "Red" || seg.Color != "#FF0000" {
			t.Errorf("Segments[%d] = %s/%s, want Red/#FF0000", i, seg.Line, seg.Color)
		}
		wantFrom := orb.Point{float64(10 * (i + 1)), float64(i + 1)}
		wantTo := orb.Point{float64(10 * (i + 2)), float64(i + 2)}
		if seg.From != wantFrom || seg.To != wantTo {
			t.Errorf("Segments[%d] = %v->%v, want %v->%v", i, seg.From, seg.To, wantFrom, wantTo)
		}
	}
}

func TestBuild_UnknownLineColorFallsBack(t *testing.T) {
	d := Build(context.Background(), &fakeSource{}, lines.Default(), 0, testLogger())
	if got := d.Color("Mattapan"); got != lines.FallbackColor {
		t.Errorf("Color(Mattapan) = %q, want %q", got, lines.FallbackColor)
	}
}

func TestBuild_FiltersMissingCoordinates(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{{ID: "Orange", Color: "#FFA500"}})
	src := &fakeSource{data: map[string]mbta.RouteStops{
		"Orange": {Stops: []mbta.Stop{
			stop("a", "A", f(1), f(1)),
			stop("nolat", "No Lat", nil, f(2)),
			stop("nolon", "No Lon", f(2), nil),
			stop("b", "B", f(3), f(3)),
		}},
	}}

	d := Build(context.Background(), src, tbl, 0, testLogger())

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	for _, id := range []string{"nolat", "nolon"} {
		if _, ok := d.IndexOf(id); ok {
			t.Errorf("station %q should be excluded", id)
		}
	}
	if len(d.Segments) != 1 {
		t.Fatalf("len(Segments) = %d, want 1", len(d.Segments))
	}
	seg := d.Segments[0]
	if seg.From != (orb.Point{1, 1}) || seg.To != (orb.Point{3, 3}) {
		t.Errorf("segment = %v->%v, want A->B skipping filtered stops", seg.From, seg.To)
	}
}

func TestBuild_PartialFailure(t *testing.T) {
	tbl := lines.Default()
	data := map[string]mbta.RouteStops{}
	for i, id := range tbl.IDs() {
		lat := float64(i)
		data[string(id)] = mbta.RouteStops{Stops: []mbta.Stop{
			stop(string(id)+"-1", "one", f(lat), f(1)),
			stop(string(id)+"-2", "two", f(lat), f(2)),
		}}
	}
	src := &fakeSource{
		data: data,
		errs: map[string]error{"Orange": errors.New("connection reset")},
	}

	d := Build(context.Background(), src, tbl, 2, testLogger())

	if d.Len() != 12 {
		t.Errorf("Len() = %d, want 12 (6 lines x 2 stops)", d.Len())
	}
	if len(d.Segments) != 6 {
		t.Errorf("len(Segments) = %d, want 6", len(d.Segments))
	}
	if len(d.StationsOnLine("Orange")) != 0 {
		t.Error("failed line should contribute no stations")
	}
	if _, ok := d.Failures["Orange"]; !ok || len(d.Failures) != 1 {
		t.Errorf("Failures = %v, want only Orange", d.Failures)
	}
	if _, ok := d.Routes["Orange"]; ok {
		t.Error("failed line should have no route name")
	}
}

func TestBuild_AllLinesFail(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{{ID: "Red"}, {ID: "Blue"}})
	src := &fakeSource{errs: map[string]error{
		"Red":  errors.New("down"),
		"Blue": errors.New("down"),
	}}

	d := Build(context.Background(), src, tbl, 0, testLogger())
	if !d.Empty() {
		t.Errorf("Len() = %d, want empty directory", d.Len())
	}
	if len(d.Failures) != 2 {
		t.Errorf("len(Failures) = %d, want 2", len(d.Failures))
	}
}

func TestBuild_RouteNameFallsBackToLineID(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{{ID: "Blue", Color: "#0000FF"}})
	src := &fakeSource{data: map[string]mbta.RouteStops{
		"Blue": {Stops: []mbta.Stop{stop("w", "Wonderland", f(42.41), f(-70.99))}},
	}}

	d := Build(context.Background(), src, tbl, 0, testLogger())
	if got := d.Stations[0].RouteName; got != "Blue" {
		t.Errorf("RouteName = %q, want line id Blue", got)
	}
	if got := d.RouteName("Blue"); got != "Blue" {
		t.Errorf("RouteName(Blue) = %q, want Blue", got)
	}
}

func TestBuild_DuplicateStopWithinLine(t *testing.T) {
	// A loop line that lists its terminal twice keeps one station but
	// still draws the closing segment.
	tbl := lines.NewTable([]lines.Line{{ID: "Loop", Color: "#123456"}})
	src := &fakeSource{data: map[string]mbta.RouteStops{
		"Loop": {Stops: []mbta.Stop{
			stop("a", "A", f(0), f(0)),
			stop("b", "B", f(1), f(1)),
			stop("a", "A", f(0), f(0)),
		}},
	}}

	d := Build(context.Background(), src, tbl, 0, testLogger())
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
	if got := d.Stations[0].Lines; len(got) != 1 {
		t.Errorf("Lines = %v, want a single Loop entry", got)
	}
	if len(d.Segments) != 2 {
		t.Errorf("len(Segments) = %d, want 2", len(d.Segments))
	}
}

func TestBuild_Accessibility(t *testing.T) {
	tbl := lines.NewTable([]lines.Line{{ID: "Red"}})
	addr := "700 Atlantic Ave"
	st := stop("place-sstat", "South Station", f(42.352), f(-71.055))
	st.Attributes.Address = &addr
	st.Attributes.WheelchairBoarding = 1
	src := &fakeSource{data: map[string]mbta.RouteStops{"Red": {Stops: []mbta.Stop{st}}}}

	d := Build(context.Background(), src, tbl, 0, testLogger())
	s := d.Stations[0]
	if s.Address != addr {
		t.Errorf("Address = %q, want %q", s.Address, addr)
	}
	if s.Wheelchair != AccessAccessible {
		t.Errorf("Wheelchair = %v, want AccessAccessible", s.Wheelchair)
	}
}
