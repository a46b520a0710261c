package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"mbtamap/internal/lines"
	"mbtamap/internal/mbta"
)

// StopSource returns one line's stops in traversal order.
// *mbta.Client satisfies it.
type StopSource interface {
	StopsForRoute(ctx context.Context, routeID string) (mbta.RouteStops, error)
}

type lineResult struct {
	stops mbta.RouteStops
	err   error
}

// Build fetches every line in table and merges the results into a
// Directory. Fetches run concurrently, up to concurrency at a time
// (<= 0 means one per line), but the merge always follows table order.
// A line whose fetch fails contributes nothing and is recorded in
// Directory.Failures; Build itself never fails.
func Build(ctx context.Context, src StopSource, table *lines.Table, concurrency int, logger *slog.Logger) *Directory {
	ids := table.IDs()
	results := make([]lineResult, len(ids))
	logger.Info("fetching stops", "lines", table.Len(), "concurrency", concurrency)

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			rs, err := src.StopsForRoute(ctx, string(id))
			results[i] = lineResult{stops: rs, err: err}
			return nil
		})
	}
	g.Wait()

	return merge(ids, results, table, logger)
}

// merge folds per-line results into a new Directory in ids order.
func merge(ids []lines.ID, results []lineResult, table *lines.Table, logger *slog.Logger) *Directory {
	d := &Directory{
		Routes:   make(map[lines.ID]string, len(ids)),
		Failures: make(map[lines.ID]error),
		index:    make(map[string]int),
		table:    table,
	}

	for i, line := range ids {
		res := results[i]
		if res.err != nil {
			logger.Warn("line fetch failed, skipping", "line", line, "error", res.err)
			d.Failures[line] = res.err
			continue
		}

		routeName := res.stops.LongName
		if routeName == "" {
			routeName = string(line)
		}
		d.Routes[line] = routeName
		color := table.Color(line)

		var prev *orb.Point
		kept := 0
		for _, stop := range res.stops.Stops {
			if !stop.HasPosition() {
				continue
			}
			pos := orb.Point{*stop.Attributes.Longitude, *stop.Attributes.Latitude}
			d.addStop(stop, pos, line, routeName)

			if prev != nil {
				d.Segments = append(d.Segments, Segment{Line: line, From: *prev, To: pos, Color: color})
			}
			prev = &pos
			kept++
		}
		logger.Info("line merged", "line", line, "stops", kept, "dropped", len(res.stops.Stops)-kept)
	}

	d.BuiltAt = time.Now()
	logger.Info("directory built",
		"stations", len(d.Stations),
		"segments", len(d.Segments),
		"failed_lines", len(d.Failures),
	)
	return d
}

func (d *Directory) addStop(stop mbta.Stop, pos orb.Point, line lines.ID, routeName string) {
	if i, ok := d.index[stop.ID]; ok {
		s := &d.Stations[i]
		if !s.Serves(line) {
			s.Lines = append(s.Lines, line)
		}
		return
	}

	var addr string
	if stop.Attributes.Address != nil {
		addr = *stop.Attributes.Address
	}
	d.index[stop.ID] = len(d.Stations)
	d.Stations = append(d.Stations, Station{
		ID:          stop.ID,
		Name:        stop.Attributes.Name,
		Position:    pos,
		Lines:       []lines.ID{line},
		PrimaryLine: line,
		RouteName:   routeName,
		Address:     addr,
		Wheelchair:  accessibilityFromGTFS(stop.Attributes.WheelchairBoarding),
	})
}
