package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// DefaultInterval is how often the alerts feed is polled.
const DefaultInterval = 60 * time.Second

// Fetcher polls the GTFS-RT service alerts feed and updates the store.
type Fetcher struct {
	alertsURL string
	interval  time.Duration
	store     *Store
	client    *http.Client
	logger    *slog.Logger
}

// NewFetcher creates an alerts fetcher polling every interval. A
// non-positive interval uses DefaultInterval.
func NewFetcher(alertsURL string, interval time.Duration, store *Store, logger *slog.Logger) *Fetcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Fetcher{
		alertsURL: alertsURL,
		interval:  interval,
		store:     store,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Start begins polling the alerts feed. Blocks until context is cancelled.
func (f *Fetcher) Start(ctx context.Context) {
	f.poll(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.poll(ctx)
		case <-ctx.Done():
			f.logger.Info("alerts fetcher stopped")
			return
		}
	}
}

func (f *Fetcher) poll(ctx context.Context) {
	if err := f.Fetch(ctx); err != nil {
		// Keep serving the previous alerts until the feed recovers.
		f.logger.Warn("fetch alerts failed", "url", f.alertsURL, "error", err)
	}
}

// Fetch downloads the feed once and replaces the store contents.
func (f *Fetcher) Fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.alertsURL, nil)
	if err != nil {
		return fmt.Errorf("create alerts request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("alerts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from alerts feed", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read alerts body: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return fmt.Errorf("parse alerts protobuf: %w", err)
	}

	alerts := decodeAlerts(feed)
	f.store.SetAlerts(alerts, time.Now())
	f.logger.Info("service alerts updated", "count", len(alerts))
	return nil
}

func decodeAlerts(feed *gtfs.FeedMessage) []Alert {
	var alerts []Alert
	for _, entity := range feed.GetEntity() {
		a := entity.GetAlert()
		if a == nil || entity.GetIsDeleted() {
			continue
		}

		alert := Alert{
			ID:       entity.GetId(),
			Header:   translation(a.GetHeaderText()),
			Body:     translation(a.GetDescriptionText()),
			Effect:   a.GetEffect().String(),
			Cause:    a.GetCause().String(),
			Severity: a.GetSeverityLevel().String(),
		}
		for _, p := range a.GetActivePeriod() {
			alert.Periods = append(alert.Periods, Period{Start: p.GetStart(), End: p.GetEnd()})
		}

		routes := make(map[string]bool)
		stops := make(map[string]bool)
		for _, ie := range a.GetInformedEntity() {
			if rid := ie.GetRouteId(); rid != "" && !routes[rid] {
				alert.Routes = append(alert.Routes, rid)
				routes[rid] = true
			}
			if sid := ie.GetStopId(); sid != "" && !stops[sid] {
				alert.Stops = append(alert.Stops, sid)
				stops[sid] = true
			}
		}

		alerts = append(alerts, alert)
	}
	return alerts
}

// translation picks the English text, falling back to the first non-empty one.
func translation(ts *gtfs.TranslatedString) string {
	var first string
	for _, t := range ts.GetTranslation() {
		text := t.GetText()
		if text == "" {
			continue
		}
		if lang := t.GetLanguage(); lang == "en" || lang == "" {
			return text
		}
		if first == "" {
			first = text
		}
	}
	return first
}

// EffectLabel turns a GTFS-RT effect name into display text:
// "SIGNIFICANT_DELAYS" becomes "Significant Delays". Unknown and
// unspecified effects read "Alert".
func EffectLabel(effect string) string {
	switch effect {
	case "", "UNKNOWN_EFFECT", "OTHER_EFFECT", "NO_EFFECT":
		return "Alert"
	}
	words := strings.Split(strings.ToLower(effect), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
