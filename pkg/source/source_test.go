package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-volume/pkg/volume"
)

// stubFallback returns a fixed value and counts calls.
type stubFallback struct {
	value int
	calls int32
}

func (s *stubFallback) Estimate(ctx context.Context, keyword string, country volume.Country) int {
	atomic.AddInt32(&s.calls, 1)
	return s.value
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseTrendTimeline(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		samples []float64
		err     error
	}{
		{
			name:    "plain json",
			body:    `{"default":{"timelineData":[{"value":[1]},{"value":[2]},{"value":[3]}]}}`,
			samples: []float64{1, 2, 3},
		},
		{
			name:    "anti json prefix",
			body:    ")]}',\n" + `{"default":{"timelineData":[{"value":[10]},{"value":[20]}]}}`,
			samples: []float64{10, 20},
		},
		{
			name:    "string and blank values",
			body:    `{"default":{"timelineData":[{"value":["4"]},{"value":[""]},{"value":[]}]}}`,
			samples: []float64{4},
		},
		{name: "empty timeline", body: `{"default":{"timelineData":[]}}`, err: volume.ErrNoSignal},
		{name: "no default", body: `{"widgets":[]}`, err: volume.ErrNoSignal},
		{name: "malformed", body: `<html>`, err: volume.ErrSourceUnavailable},
		{name: "empty body", body: ``, err: volume.ErrNoSignal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := ParseTrendTimeline([]byte(tt.body))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.samples, samples)
		})
	}
}

func TestTrendVolume(t *testing.T) {
	assert.Equal(t, 2000, TrendVolume([]float64{1, 2, 3}))
	assert.Equal(t, 1500, TrendVolume([]float64{1, 2}))
	assert.Equal(t, 333, TrendVolume([]float64{0, 0, 1}))
	assert.Equal(t, 0, TrendVolume(nil))
}

func TestMatchPositionAndVolume(t *testing.T) {
	suggestions := []string{"Running Shoes", "running shoes men", "x", "x", "x", "x", "x", "x", "x", "trail shoes"}

	pos, ok := MatchPosition(suggestions, "running shoes")
	require.True(t, ok)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 10000, PositionVolume(pos))

	pos, ok = MatchPosition(suggestions, "TRAIL SHOES")
	require.True(t, ok)
	assert.Equal(t, 9, pos)
	assert.Equal(t, 1000, PositionVolume(pos))

	_, ok = MatchPosition(suggestions, "running")
	assert.False(t, ok, "prefix is not an exact match")

	long := append(append([]string{}, suggestions...), "eleventh")
	_, ok = MatchPosition(long, "eleventh")
	assert.False(t, ok, "positions past ten are ignored")

	_, ok = MatchPosition(nil, "anything")
	assert.False(t, ok)
}

func TestTrendAdapter_FetchSuccess(t *testing.T) {
	var gotReq map[string]interface{}
	var gotGeo string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("hl"))
		if err := json.Unmarshal([]byte(r.URL.Query().Get("req")), &gotReq); err == nil {
			items := gotReq["comparisonItem"].([]interface{})
			gotGeo = items[0].(map[string]interface{})["geo"].(string)
		}
		w.Write([]byte(")]}',\n" + `{"default":{"timelineData":[{"value":[1]},{"value":[2]},{"value":[3]}]}}`))
	})

	fb := &stubFallback{value: 42}
	a := NewTrendAdapter(Config{Enabled: true, Endpoint: srv.URL, Timeout: time.Second}, fb)

	r := a.Fetch(context.Background(), "shoes", volume.CountryUK)
	require.True(t, r.OK(), "unexpected error: %v", r.Err)
	assert.Equal(t, 2000, r.Volume)
	assert.Equal(t, NameTrend, r.Source)
	assert.Equal(t, "GB", gotGeo)

	assert.Equal(t, 2000, a.Estimate(context.Background(), "shoes", volume.CountryUK))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fb.calls))
}

func TestTrendAdapter_FallbackOnFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		err     error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			err:     volume.ErrSourceUnavailable,
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) },
			err:     volume.ErrSourceUnavailable,
		},
		{
			name:    "empty timeline",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"default":{"timelineData":[]}}`)) },
			err:     volume.ErrNoSignal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.handler)
			fb := &stubFallback{value: 42}
			a := NewTrendAdapter(Config{Endpoint: srv.URL, Timeout: time.Second}, fb)

			r := a.Fetch(context.Background(), "shoes", volume.CountryUS)
			assert.ErrorIs(t, r.Err, tt.err)
			assert.Equal(t, 42, a.Estimate(context.Background(), "shoes", volume.CountryUS))
			assert.Equal(t, int32(1), atomic.LoadInt32(&fb.calls))
		})
	}
}

func TestTrendAdapter_Timeout(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"default":{"timelineData":[{"value":[1]}]}}`))
	})

	fb := &stubFallback{value: 7}
	a := NewTrendAdapter(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}, fb)

	start := time.Now()
	v := a.Estimate(context.Background(), "shoes", volume.CountryUS)
	assert.Equal(t, 7, v)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestTrendAdapter_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	a := NewTrendAdapter(Config{Endpoint: endpoint, Timeout: time.Second}, &stubFallback{value: 1})
	r := a.Fetch(context.Background(), "shoes", volume.CountryUS)
	assert.ErrorIs(t, r.Err, volume.ErrSourceUnavailable)
	assert.True(t, Retryable(r.Err))
}

func TestAutocompleteAdapter_Fetch(t *testing.T) {
	var gotMID, gotPrefix string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotMID = r.URL.Query().Get("mid")
		gotPrefix = r.URL.Query().Get("prefix")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"suggestions":[{"value":"yoga mat thick"},{"value":"Yoga Mat"},{"value":"yoga mats"}]}`))
	})

	fb := &stubFallback{value: 42}
	a := NewAutocompleteAdapter(Config{Endpoint: srv.URL, Timeout: time.Second}, fb)

	r := a.Fetch(context.Background(), "yoga mat", volume.CountryCA)
	require.True(t, r.OK(), "unexpected error: %v", r.Err)
	assert.Equal(t, 9000, r.Volume)
	assert.Equal(t, "A2EUQ1WTGCTBG2", gotMID)
	assert.Equal(t, "yoga mat", gotPrefix)

	r = a.Fetch(context.Background(), "yoga", volume.CountryCA)
	assert.ErrorIs(t, r.Err, volume.ErrNoSignal)
	assert.Equal(t, 42, a.Estimate(context.Background(), "yoga", volume.CountryCA))
}

func TestAutocompleteAdapter_EmptySuggestionsFallsBack(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"suggestions":[]}`))
	})
	fb := &stubFallback{value: 55}
	a := NewAutocompleteAdapter(Config{Endpoint: srv.URL, Timeout: time.Second}, fb)

	assert.Equal(t, 55, a.Estimate(context.Background(), "yoga", volume.CountryUS))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(volume.ErrNoSignal))
	assert.False(t, Retryable(&StatusError{Code: 404}))
	assert.False(t, Retryable(context.Canceled))
	assert.True(t, Retryable(&StatusError{Code: 429}))
	assert.True(t, Retryable(&StatusError{Code: 503}))
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.True(t, errors.Is(&StatusError{Code: 500}, volume.ErrSourceUnavailable))
}

func TestCountryMappings(t *testing.T) {
	assert.Equal(t, "ZA", TrendGeo(volume.CountrySA))
	assert.Equal(t, "US", TrendGeo(volume.Country("XX")))
	assert.Equal(t, "A1F83G8C2ARO7P", Marketplace(volume.CountryUK))
	assert.Equal(t, "ATVPDKIKX0DER", Marketplace(volume.Country("XX")))
}
