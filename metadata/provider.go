// Package metadata fetches and caches the calendar index of the Liturgical
// Calendar API and answers lookups against it.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	litcal "github.com/AnandSundar/go-litcal"
)

const (
	calendarsPath = "/calendars"
	rootField     = "litcal_metadata"
)

var requiredFields = []string{"diocesan_calendars", "national_calendars", "locales"}

var optionalArrayFields = []string{"diocesan_groups", "wider_regions"}

// Provider fetches the calendar index once and serves it from memory until
// ClearCache. Configuration is fixed at construction.
type Provider struct {
	baseURL   string
	transport litcal.Transport
	logger    *zap.Logger

	// fillMu serializes fetches; mu only guards index.
	fillMu sync.Mutex
	mu     sync.Mutex
	index  *Index
}

// NewProvider builds a provider. Without WithTransport it uses the default
// client stack, with caching when WithStore is given.
func NewProvider(opts ...Option) *Provider {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	t := cfg.transport
	if t == nil {
		chain := []litcal.Option{litcal.WithLogger(cfg.logger)}
		if cfg.store != nil {
			chain = append(chain, litcal.WithCache(cfg.store, cfg.cacheTTL))
		}
		t = litcal.New(chain...)
	}

	return &Provider{
		baseURL:   cfg.baseURL,
		transport: t,
		logger:    cfg.logger.With(zap.String("base_url", cfg.baseURL)),
	}
}

// APIURL returns the configured base URL.
func (p *Provider) APIURL() string { return p.baseURL }

// Fetched reports whether the index is held in memory.
func (p *Provider) Fetched() bool {
	return p.cached() != nil
}

// ClearCache drops the in-memory index so the next Metadata call refetches.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = nil
	p.logger.Debug("metadata cache cleared")
}

// Metadata returns the calendar index, fetching it on first use. Concurrent
// callers share one fetch; Fetched and ClearCache never wait for it.
func (p *Provider) Metadata(ctx context.Context) (*Index, error) {
	if index := p.cached(); index != nil {
		return index, nil
	}

	p.fillMu.Lock()
	defer p.fillMu.Unlock()

	if index := p.cached(); index != nil {
		return index, nil
	}

	index, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.index = index
	p.mu.Unlock()

	p.logger.Info("calendar metadata loaded",
		zap.Int("national_calendars", len(index.NationalCalendars)),
		zap.Int("diocesan_calendars", len(index.DiocesanCalendars)),
		zap.Int("locales", len(index.Locales)),
	)
	return index, nil
}

func (p *Provider) cached() *Index {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

func (p *Provider) fetch(ctx context.Context) (*Index, error) {
	url := p.baseURL + calendarsPath
	header := http.Header{"Accept": {"application/json"}}

	resp, err := p.transport.Get(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("fetch calendars metadata: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &ValidationError{URL: url, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode())}
	}

	var envelope map[string]json.RawMessage
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, &ValidationError{URL: url, Reason: "failed to decode JSON response", Err: err}
	}
	raw, ok := envelope[rootField]
	if !ok {
		return nil, &ValidationError{URL: url, Field: rootField, Reason: "missing"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &ValidationError{URL: url, Field: rootField, Reason: "not an object", Err: err}
	}
	for _, name := range requiredFields {
		value, ok := fields[name]
		if !ok {
			return nil, &ValidationError{URL: url, Field: name, Reason: "missing"}
		}
		if !isArray(value) {
			return nil, &ValidationError{URL: url, Field: name, Reason: "not an array"}
		}
	}
	for _, name := range optionalArrayFields {
		if value, ok := fields[name]; ok && !isArray(value) && string(value) != "null" {
			return nil, &ValidationError{URL: url, Field: name, Reason: "not an array"}
		}
	}

	var index Index
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, &ValidationError{URL: url, Field: rootField, Reason: "failed to decode calendar entries", Err: err}
	}
	return &index, nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// NationalCalendars returns every national calendar.
func (p *Provider) NationalCalendars(ctx context.Context) ([]NationalCalendar, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return index.NationalCalendars, nil
}

// DiocesanCalendars returns every diocesan calendar.
func (p *Provider) DiocesanCalendars(ctx context.Context) ([]DiocesanCalendar, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return index.DiocesanCalendars, nil
}

func (p *Provider) DiocesanGroups(ctx context.Context) ([]DiocesanGroup, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return index.DiocesanGroups, nil
}

func (p *Provider) WiderRegions(ctx context.Context) ([]WiderRegion, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return index.WiderRegions, nil
}

func (p *Provider) Locales(ctx context.Context) ([]string, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return index.Locales, nil
}

// NationalCalendar looks a national calendar up by id. The boolean is
// false when no calendar matches.
func (p *Provider) NationalCalendar(ctx context.Context, id string) (NationalCalendar, bool, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return NationalCalendar{}, false, err
	}
	for _, c := range index.NationalCalendars {
		if c.CalendarID == id {
			return c, true, nil
		}
	}
	return NationalCalendar{}, false, nil
}

// DiocesanCalendar looks a diocesan calendar up by id.
func (p *Provider) DiocesanCalendar(ctx context.Context, id string) (DiocesanCalendar, bool, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return DiocesanCalendar{}, false, err
	}
	for _, c := range index.DiocesanCalendars {
		if c.CalendarID == id {
			return c, true, nil
		}
	}
	return DiocesanCalendar{}, false, nil
}

// DiocesesForNation returns the diocesan calendars whose nation is nation.
func (p *Provider) DiocesesForNation(ctx context.Context, nation string) ([]DiocesanCalendar, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	var out []DiocesanCalendar
	for _, c := range index.DiocesanCalendars {
		if c.Nation == nation {
			out = append(out, c)
		}
	}
	return out, nil
}

// IsValidDioceseForNation reports whether diocese is a calendar of nation.
func (p *Provider) IsValidDioceseForNation(ctx context.Context, diocese, nation string) (bool, error) {
	index, err := p.Metadata(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range index.DiocesanCalendars {
		if c.CalendarID == diocese && c.Nation == nation {
			return true, nil
		}
	}
	return false, nil
}
