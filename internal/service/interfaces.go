package service

import (
	"context"

	"keyword-volume/pkg/storage"
	"keyword-volume/pkg/volume"
)

// VolumeService is what the HTTP and CLI surfaces need from the engine.
// *estimator.Service implements it.
type VolumeService interface {
	Estimate(ctx context.Context, keyword string, country volume.Country, method volume.Method) (int, error)
	EstimateMany(ctx context.Context, keywords []string, country volume.Country, method volume.Method) []volume.BatchEntry
	Clear(ctx context.Context) error
	CacheStats(ctx context.Context) storage.Stats
	Info() volume.MethodInfo
}
