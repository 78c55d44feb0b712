package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/text/cases"

	"keyword-volume/pkg/volume"
)

// DefaultAutocompleteEndpoint is the marketplace suggestion endpoint.
const DefaultAutocompleteEndpoint = "https://completion.amazon.com/api/2017/suggestions"

const (
	suggestionLimit = 10
	positionVolume  = 10000.0
)

var marketplaces = map[volume.Country]string{
	volume.CountryUS: "ATVPDKIKX0DER",
	volume.CountryUK: "A1F83G8C2ARO7P",
	volume.CountryCA: "A2EUQ1WTGCTBG2",
	volume.CountrySA: "A17E79C6D8DWNP",
}

// Marketplace maps a country to its marketplace identifier.
func Marketplace(country volume.Country) string {
	if id, ok := marketplaces[country]; ok {
		return id
	}
	return marketplaces[volume.CountryUS]
}

// AutocompleteAdapter estimates volume from the keyword's rank among the
// marketplace's prefix completions.
type AutocompleteAdapter struct {
	base
}

func NewAutocompleteAdapter(config Config, fallback Fallback) *AutocompleteAdapter {
	if config.Endpoint == "" {
		config.Endpoint = DefaultAutocompleteEndpoint
	}
	return &AutocompleteAdapter{base: newBase(NameAutocomplete, config, fallback)}
}

func (a *AutocompleteAdapter) Fetch(ctx context.Context, keyword string, country volume.Country) Result {
	body, err := a.client.get(ctx, a.config.Endpoint, map[string]string{
		"mid":    Marketplace(country),
		"alias":  "aps",
		"prefix": keyword,
		"limit":  fmt.Sprint(suggestionLimit),
	})
	if err != nil {
		return a.finish(keyword, country, 0, err)
	}

	suggestions, err := ParseSuggestions(body)
	if err != nil {
		return a.finish(keyword, country, 0, err)
	}

	pos, ok := MatchPosition(suggestions, keyword)
	if !ok {
		return a.finish(keyword, country, 0, fmt.Errorf("%w: %q not among %d suggestions", volume.ErrNoSignal, keyword, len(suggestions)))
	}
	return a.finish(keyword, country, PositionVolume(pos), nil)
}

func (a *AutocompleteAdapter) Estimate(ctx context.Context, keyword string, country volume.Country) int {
	return a.resolve(ctx, a.Fetch(ctx, keyword, country), keyword, country)
}

type suggestionPayload struct {
	Suggestions []struct {
		Value string `json:"value"`
	} `json:"suggestions"`
}

// ParseSuggestions returns the suggestion values in ranked order.
func ParseSuggestions(body []byte) ([]string, error) {
	var payload suggestionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode suggestions: %v", volume.ErrSourceUnavailable, err)
	}
	values := make([]string, len(payload.Suggestions))
	for i, s := range payload.Suggestions {
		values[i] = s.Value
	}
	return values, nil
}

// MatchPosition finds the first suggestion equal to keyword under Unicode
// case folding. Only the first ten suggestions count.
func MatchPosition(suggestions []string, keyword string) (int, bool) {
	want := cases.Fold().String(keyword)
	for i, s := range suggestions {
		if i >= suggestionLimit {
			break
		}
		if cases.Fold().String(s) == want {
			return i, true
		}
	}
	return 0, false
}

// PositionVolume is round(10000 * (10 - pos) / 10).
func PositionVolume(pos int) int {
	return int(math.Round(positionVolume * float64(suggestionLimit-pos) / suggestionLimit))
}
