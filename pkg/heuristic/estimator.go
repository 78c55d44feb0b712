// Package heuristic estimates keyword volume from the keyword text and the
// country alone. It is the network-free fallback of every signal source.
package heuristic

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/volume"
)

const (
	baseVolume      = 1000.0
	minVolume       = 10
	minLengthFactor = 0.3
	jitterLow       = 0.7
	jitterHigh      = 1.4

	// DefaultDelay emulates an upstream rate limit even without I/O.
	DefaultDelay = 100 * time.Millisecond
)

type boost struct {
	words  []string
	factor float64
}

var boosts = []boost{
	{words: []string{"how", "what", "why", "when", "where"}, factor: 1.5},
	{words: []string{"best", "top", "review", "guide"}, factor: 1.3},
	{words: []string{"free", "cheap", "discount"}, factor: 1.2},
}

var countryMultipliers = map[volume.Country]float64{
	volume.CountryUS: 1.0,
	volume.CountryUK: 0.4,
	volume.CountryCA: 0.3,
	volume.CountrySA: 0.2,
}

// Estimator is safe for concurrent use.
type Estimator struct {
	delay  time.Duration
	jitter func() float64
	log    *logger.Logger
}

type Option func(*Estimator)

// WithDelay sets the wait applied after each estimate. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(e *Estimator) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithJitter replaces the random jitter source. fn must return values in
// [0.7, 1.4).
func WithJitter(fn func() float64) Option {
	return func(e *Estimator) {
		if fn != nil {
			e.jitter = fn
		}
	}
}

func New(opts ...Option) *Estimator {
	e := &Estimator{
		delay:  DefaultDelay,
		jitter: randomJitter,
		log:    logger.GetLogger().WithField("component", "heuristic"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns a volume ≥ 10 for keyword in country, then waits the
// configured delay. A cancelled context cuts the wait short but the value
// is still returned.
func (e *Estimator) Estimate(ctx context.Context, keyword string, country volume.Country) int {
	v := Score(keyword, country, e.jitter())

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	e.log.WithFields(map[string]interface{}{
		"keyword": keyword,
		"country": country,
		"volume":  v,
	}).Debug("Heuristic estimate computed")
	return v
}

// Score is the deterministic part of the estimate for a given jitter.
func Score(keyword string, country volume.Country, jitter float64) int {
	base := baseVolume

	folded := cases.Fold().String(keyword)
	for _, b := range boosts {
		if containsAny(folded, b.words) {
			base *= b.factor
		}
	}

	multiplier, ok := countryMultipliers[country]
	if !ok {
		multiplier = 1.0
	}

	v := int(math.Floor(base * LengthFactor(keyword) * multiplier * jitter))
	if v < minVolume {
		return minVolume
	}
	return v
}

// LengthFactor favours short keywords: 1.0 - (len-3)*0.15, floored at 0.3.
// Length counts characters, not bytes.
func LengthFactor(keyword string) float64 {
	n := utf8.RuneCountInString(keyword)
	return math.Max(minLengthFactor, 1.0-float64(n-3)*0.15)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func randomJitter() float64 {
	return jitterLow + rand.Float64()*(jitterHigh-jitterLow)
}
