// Package volume holds the domain model of the keyword volume engine:
// countries, estimation methods, cached records and batch entries.
package volume

import (
	"fmt"
	"strings"
	"time"
)

// Country is a supported market code.
type Country string

const (
	CountryUS Country = "US"
	CountryUK Country = "UK"
	CountryCA Country = "CA"
	CountrySA Country = "SA"
)

// SupportedCountries lists every accepted country in display order.
var SupportedCountries = []Country{CountryUS, CountryUK, CountryCA, CountrySA}

// Valid reports whether c is one of SupportedCountries.
func (c Country) Valid() bool {
	switch c {
	case CountryUS, CountryUK, CountryCA, CountrySA:
		return true
	}
	return false
}

// ParseCountry accepts an exact country code, ignoring surrounding spaces.
func ParseCountry(s string) (Country, error) {
	c := Country(strings.TrimSpace(s))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q (must be one of %s)", ErrUnsupportedCountry, s, joinCountries())
	}
	return c, nil
}

// Method selects the estimation strategy.
type Method string

const (
	MethodCombined     Method = "combined"
	MethodTrend        Method = "trend"
	MethodAutocomplete Method = "autocomplete"
	MethodFallback     Method = "fallback"
)

// SupportedMethods lists every accepted method; combined is the default.
var SupportedMethods = []Method{MethodCombined, MethodTrend, MethodAutocomplete, MethodFallback}

var methodAliases = map[string]Method{
	"google_trends":       MethodTrend,
	"amazon_autocomplete": MethodAutocomplete,
}

// Valid reports whether m is one of SupportedMethods.
func (m Method) Valid() bool {
	switch m {
	case MethodCombined, MethodTrend, MethodAutocomplete, MethodFallback:
		return true
	}
	return false
}

// ParseMethod resolves a method name or one of its legacy aliases.
// An empty string selects MethodCombined.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return MethodCombined, nil
	}
	if m, ok := methodAliases[name]; ok {
		return m, nil
	}
	m := Method(name)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
	return m, nil
}

// Key identifies one cached estimation.
type Key struct {
	Keyword string
	Country Country
	Method  Method
}

func (k Key) String() string {
	return string(k.Method) + ":" + string(k.Country) + ":" + k.Keyword
}

// VolumeRecord is a persisted estimation result.
type VolumeRecord struct {
	Keyword    string    `json:"keyword"`
	Country    Country   `json:"country"`
	Method     Method    `json:"method"`
	Volume     int       `json:"volume"`
	ComputedAt time.Time `json:"computed_at"`
}

// Key returns the record's cache key.
func (r VolumeRecord) Key() Key {
	return Key{Keyword: r.Keyword, Country: r.Country, Method: r.Method}
}

// Fresh reports whether the record is still inside the freshness window.
func (r VolumeRecord) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.ComputedAt) < ttl
}

// Request is a validated single estimation request.
type Request struct {
	Keyword string
	Country Country
	Method  Method
}

// NewRequest trims the keyword and checks country and method.
func NewRequest(keyword string, country Country, method Method) (Request, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return Request{}, ErrEmptyKeyword
	}
	if !country.Valid() {
		return Request{}, fmt.Errorf("%w: %q (must be one of %s)", ErrUnsupportedCountry, country, joinCountries())
	}
	if !method.Valid() {
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	return Request{Keyword: kw, Country: country, Method: method}, nil
}

// Key returns the cache key for the request.
func (r Request) Key() Key {
	return Key{Keyword: r.Keyword, Country: r.Country, Method: r.Method}
}

// BatchEntry is one keyword's outcome inside a batch.
type BatchEntry struct {
	Keyword string  `json:"keyword"`
	Country Country `json:"country"`
	Volume  int     `json:"volume"`
	Error   string  `json:"error,omitempty"`
}

// MethodInfo describes the engine's capabilities.
type MethodInfo struct {
	CurrentMethod      Method    `json:"current_method"`
	AvailableMethods   []Method  `json:"available_methods"`
	SupportedCountries []Country `json:"supported_countries"`
	EnabledSources     []string  `json:"enabled_sources"`
	Description        string    `json:"description"`
}

func joinCountries() string {
	codes := make([]string, len(SupportedCountries))
	for i, c := range SupportedCountries {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}
