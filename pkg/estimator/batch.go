package estimator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"keyword-volume/pkg/volume"
)

// CleanKeywords trims each keyword and drops the empty ones, keeping order.
func CleanKeywords(keywords []string) []string {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return cleaned
}

// EstimateMany estimates every non-empty keyword. Output order matches
// input order; a keyword that fails gets volume 0 and its error message
// while the rest of the batch continues.
func (s *Service) EstimateMany(ctx context.Context, keywords []string, country volume.Country, method volume.Method) []volume.BatchEntry {
	cleaned := CleanKeywords(keywords)
	entries := make([]volume.BatchEntry, len(cleaned))

	batchID := uuid.NewString()
	log := s.log.WithFields(map[string]interface{}{
		"batch_id": batchID,
		"country":  country,
		"method":   method,
		"keywords": len(cleaned),
	})
	start := time.Now()
	log.Debug("Batch started")

	workers := min(s.config.BatchWorkers, len(cleaned))
	if workers <= 1 {
		for i, kw := range cleaned {
			entries[i] = s.estimateEntry(ctx, kw, country, method)
		}
	} else {
		s.runParallel(ctx, cleaned, entries, workers, country, method)
	}

	failed := 0
	for _, e := range entries {
		if e.Error != "" {
			failed++
		}
	}
	log.WithFields(map[string]interface{}{
		"failed":      failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Batch completed")
	return entries
}

// runParallel fans keywords out to a fixed number of workers; each result
// lands at its input index.
func (s *Service) runParallel(ctx context.Context, keywords []string, entries []volume.BatchEntry, workers int, country volume.Country, method volume.Method) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entries[i] = s.estimateEntry(ctx, keywords[i], country, method)
			}
		}()
	}

	for i := range keywords {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func (s *Service) estimateEntry(ctx context.Context, keyword string, country volume.Country, method volume.Method) (entry volume.BatchEntry) {
	entry = volume.BatchEntry{Keyword: keyword, Country: country}
	defer func() {
		if p := recover(); p != nil {
			s.log.WithField("panic", p).WithField("keyword", keyword).Error("Estimation panicked")
			entry.Volume = 0
			entry.Error = "internal error"
		}
	}()

	v, err := s.Estimate(ctx, keyword, country, method)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.Volume = v
	return entry
}
