// Package source turns responses from the unofficial trend and autocomplete
// services into volume figures.
//
// Fetch reports the raw outcome as a Result. Estimate never fails: when the
// Result carries an error it returns the heuristic value instead.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/metrics"
	"keyword-volume/pkg/volume"
)

// Name identifies a signal source.
type Name string

const (
	NameTrend        Name = "trend"
	NameAutocomplete Name = "autocomplete"
)

// Config is the per-source configuration surface.
type Config struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Delay    time.Duration `mapstructure:"delay"`
}

const defaultTimeout = 30 * time.Second

// Result is the outcome of a single source call. Volume is meaningful only
// when Err is nil.
type Result struct {
	Source Name
	Volume int
	Err    error
}

// OK reports whether the source produced a usable volume.
func (r Result) OK() bool {
	return r.Err == nil
}

// Fallback produces a volume without any external signal.
type Fallback interface {
	Estimate(ctx context.Context, keyword string, country volume.Country) int
}

// Adapter is implemented by TrendAdapter and AutocompleteAdapter.
type Adapter interface {
	Name() Name
	Enabled() bool
	Fetch(ctx context.Context, keyword string, country volume.Country) Result
	Estimate(ctx context.Context, keyword string, country volume.Country) int
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return volume.ErrSourceUnavailable
}

// Retryable reports whether another attempt could succeed. Missing signal
// and client errors other than 429 are final.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, volume.ErrNoSignal) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == 429 || se.Code >= 500
	}
	return true
}

type base struct {
	name     Name
	config   Config
	client   *httpClient
	fallback Fallback
	log      *logger.Logger
}

func newBase(name Name, config Config, fallback Fallback) base {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return base{
		name:     name,
		config:   config,
		client:   newHTTPClient(config.Timeout, config.Delay),
		fallback: fallback,
		log:      logger.GetLogger().WithField("component", string(name)+"_source"),
	}
}

func (b *base) Name() Name {
	return b.name
}

func (b *base) Enabled() bool {
	return b.config.Enabled
}

// finish records the outcome and builds the Result.
func (b *base) finish(keyword string, country volume.Country, v int, err error) Result {
	switch {
	case err == nil:
		metrics.RecordSourceRequest(string(b.name), metrics.OutcomeOK)
	case errors.Is(err, volume.ErrNoSignal):
		metrics.RecordSourceRequest(string(b.name), metrics.OutcomeNoSignal)
		b.log.WithFields(map[string]interface{}{
			"keyword": keyword,
			"country": country,
		}).Debug("Source returned no usable signal")
	default:
		metrics.RecordSourceRequest(string(b.name), metrics.OutcomeError)
		b.log.WithError(err).WithFields(map[string]interface{}{
			"keyword": keyword,
			"country": country,
		}).Warn("Source request failed")
	}
	return Result{Source: b.name, Volume: v, Err: err}
}

// resolve applies the fallback rule to a Result.
func (b *base) resolve(ctx context.Context, r Result, keyword string, country volume.Country) int {
	if r.OK() {
		return r.Volume
	}
	return b.fallback.Estimate(ctx, keyword, country)
}
