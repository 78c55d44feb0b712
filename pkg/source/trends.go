package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"keyword-volume/pkg/volume"
)

// DefaultTrendEndpoint is the public explore endpoint of the trend service.
const DefaultTrendEndpoint = "https://trends.google.com/trends/api/explore"

const trendTimeframe = "today 12-m"

var trendGeos = map[volume.Country]string{
	volume.CountryUS: "US",
	volume.CountryUK: "GB",
	volume.CountryCA: "CA",
	volume.CountrySA: "ZA",
}

// TrendGeo maps a country to the trend service's geo code.
func TrendGeo(country volume.Country) string {
	if geo, ok := trendGeos[country]; ok {
		return geo
	}
	return "US"
}

// TrendAdapter estimates volume from the last 12 months of interest samples.
type TrendAdapter struct {
	base
}

func NewTrendAdapter(config Config, fallback Fallback) *TrendAdapter {
	if config.Endpoint == "" {
		config.Endpoint = DefaultTrendEndpoint
	}
	return &TrendAdapter{base: newBase(NameTrend, config, fallback)}
}

type trendComparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type trendQuery struct {
	ComparisonItem []trendComparisonItem `json:"comparisonItem"`
	Category       int                   `json:"category"`
	Property       string                `json:"property"`
}

func (a *TrendAdapter) Fetch(ctx context.Context, keyword string, country volume.Country) Result {
	q, err := json.Marshal(trendQuery{
		ComparisonItem: []trendComparisonItem{{Keyword: keyword, Geo: TrendGeo(country), Time: trendTimeframe}},
	})
	if err != nil {
		return a.finish(keyword, country, 0, fmt.Errorf("%w: encode query: %v", volume.ErrSourceUnavailable, err))
	}

	body, err := a.client.get(ctx, a.config.Endpoint, map[string]string{
		"hl":  "en",
		"tz":  "-480",
		"req": string(q),
	})
	if err != nil {
		return a.finish(keyword, country, 0, err)
	}

	samples, err := ParseTrendTimeline(body)
	if err != nil {
		return a.finish(keyword, country, 0, err)
	}
	return a.finish(keyword, country, TrendVolume(samples), nil)
}

func (a *TrendAdapter) Estimate(ctx context.Context, keyword string, country volume.Country) int {
	return a.resolve(ctx, a.Fetch(ctx, keyword, country), keyword, country)
}

type trendPayload struct {
	Default *struct {
		TimelineData []struct {
			Value []json.RawMessage `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

var antiJSONPrefix = []byte(")]}'")

// ParseTrendTimeline extracts the numeric samples of a timeline response.
// The anti-JSON prefix is optional. Blank or non-numeric points are
// skipped; no samples at all yields ErrNoSignal.
func ParseTrendTimeline(body []byte) ([]float64, error) {
	body = bytes.TrimSpace(body)
	if bytes.HasPrefix(body, antiJSONPrefix) {
		body = bytes.TrimPrefix(body[len(antiJSONPrefix):], []byte(","))
		body = bytes.TrimSpace(body)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty trend response", volume.ErrNoSignal)
	}

	var payload trendPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode trend response: %v", volume.ErrSourceUnavailable, err)
	}
	if payload.Default == nil {
		return nil, fmt.Errorf("%w: trend response has no timeline", volume.ErrNoSignal)
	}

	samples := make([]float64, 0, len(payload.Default.TimelineData))
	for _, point := range payload.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}
		if v, ok := parseSample(point.Value[0]); ok {
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: trend timeline is empty", volume.ErrNoSignal)
	}
	return samples, nil
}

func parseSample(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// TrendVolume scales the mean interest to a volume: round(mean * 1000).
func TrendVolume(samples []float64) int {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return int(math.Round(sum / float64(len(samples)) * 1000))
}
