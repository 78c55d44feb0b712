package estimator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-volume/pkg/source"
	"keyword-volume/pkg/volume"
)

func TestCleanKeywords(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CleanKeywords([]string{"a", "", "  b  "}))
	assert.Empty(t, CleanKeywords([]string{" ", "\t"}))
	assert.Empty(t, CleanKeywords(nil))
}

func TestEstimateManyKeepsOrderAndDropsBlanks(t *testing.T) {
	svc := newTestService(t, Config{}, failing(source.NameTrend), failing(source.NameAutocomplete))

	entries := svc.EstimateMany(context.Background(), []string{"a", "", "  b  "}, volume.CountryUS, volume.MethodFallback)

	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Keyword)
	assert.Equal(t, "b", entries[1].Keyword)
	for _, e := range entries {
		assert.Equal(t, volume.CountryUS, e.Country)
		assert.Empty(t, e.Error)
		assert.GreaterOrEqual(t, e.Volume, 10)
	}
}

func TestEstimateManyMatchesSingleEstimates(t *testing.T) {
	svc := newTestService(t, Config{}, failing(source.NameTrend), failing(source.NameAutocomplete))
	ctx := context.Background()

	entries := svc.EstimateMany(ctx, []string{"cat", "how to"}, volume.CountryUK, volume.MethodCombined)
	require.Len(t, entries, 2)

	for _, e := range entries {
		v, err := svc.Estimate(ctx, e.Keyword, volume.CountryUK, volume.MethodCombined)
		require.NoError(t, err)
		assert.Equal(t, v, e.Volume)
	}
}

func TestEstimateManyRecordsPerEntryErrors(t *testing.T) {
	svc := newTestService(t, Config{}, working(source.NameTrend, 1), working(source.NameAutocomplete, 1))

	entries := svc.EstimateMany(context.Background(), []string{"a", "b"}, volume.Country("ZZ"), volume.MethodCombined)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Zero(t, e.Volume)
		assert.NotEmpty(t, e.Error)
	}
}

func TestEstimateManyEmpty(t *testing.T) {
	svc := newTestService(t, Config{}, failing(source.NameTrend), failing(source.NameAutocomplete))

	entries := svc.EstimateMany(context.Background(), []string{"", "  "}, volume.CountryUS, volume.MethodCombined)
	assert.Empty(t, entries)
}

func TestEstimateManyParallelPreservesOrder(t *testing.T) {
	svc := newTestService(t, Config{BatchWorkers: 4}, working(source.NameTrend, 2000), working(source.NameAutocomplete, 4000))

	keywords := make([]string, 25)
	for i := range keywords {
		keywords[i] = fmt.Sprintf("keyword %d", i)
	}

	entries := svc.EstimateMany(context.Background(), keywords, volume.CountryUS, volume.MethodCombined)

	require.Len(t, entries, len(keywords))
	for i, e := range entries {
		assert.Equal(t, keywords[i], e.Keyword)
		assert.Equal(t, 3000, e.Volume)
	}
}
