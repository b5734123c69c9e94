package cmd

import (
	"context"
	"fmt"

	"github.com/facescan/facescan/internal/cache"
	"github.com/facescan/facescan/internal/config"
	"github.com/facescan/facescan/internal/detector"
	"github.com/facescan/facescan/internal/engine"
	"github.com/facescan/facescan/internal/library"
	"github.com/facescan/facescan/internal/photoprism"
)

// buildCache selects the persistence target: PostgreSQL when DATABASE_URL is
// set, a cache directory when configured, in-memory otherwise.
func buildCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	if cfg.Database.URL != "" {
		store, err := cache.NewPGStore(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		return cache.NewWithStore(ctx, store, cfg.Cache.Key), nil
	}
	if cfg.Cache.Dir != "" {
		store, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache directory: %w", err)
		}
		return cache.NewWithStore(ctx, store, cfg.Cache.Key), nil
	}
	return cache.New(), nil
}

// buildDetector wires the pigo face finder with the configured threshold
// parameters and the capability-derived accuracy.
func buildDetector(cfg *config.Config) (*detector.Detector, error) {
	if cfg.Detection.CascadePath == "" {
		return nil, fmt.Errorf("FACESCAN_CASCADE_PATH is required")
	}
	accuracy := detector.AccuracyHigh
	if !cfg.EffectiveHighAccuracy() {
		accuracy = detector.AccuracyLow
	}
	finder, err := detector.NewPigoFinderFromFile(cfg.Detection.CascadePath, accuracy)
	if err != nil {
		return nil, err
	}
	return detector.New(finder, cfg.Detection.MinFaceSize, cfg.Detection.LegacyOffset, accuracy), nil
}

// buildEngine assembles the full detection pipeline: PhotoPrism client and
// resolver, fetched sequence (API or direct MariaDB), detector, cache.
// The caller owns the returned engine and must Close it.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, *cache.Cache, error) {
	det, err := buildDetector(cfg)
	if err != nil {
		return nil, nil, err
	}

	detectionCache, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	pp, err := photoprism.New(cfg.PhotoPrism.URL, cfg.PhotoPrism.Username, cfg.PhotoPrism.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PhotoPrism: %w", err)
	}
	resolver := photoprism.NewResolver(pp)

	var sequence library.Sequence
	if cfg.PhotoPrism.DatabaseURL != "" {
		db, err := photoprism.NewMariaDB(cfg.PhotoPrism.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()
		sequence, err = db.FetchSequence(ctx)
		if err != nil {
			return nil, nil, err
		}
		// Thumb hashes still come from the API, the database only orders
		// and sizes the sequence.
		if _, err := resolver.FetchSequence(); err != nil {
			return nil, nil, err
		}
	} else {
		sequence, err = resolver.FetchSequence()
		if err != nil {
			return nil, nil, err
		}
	}

	eng := engine.New(engine.Options{
		BatchSize:       cfg.EffectiveBatchSize(),
		Limited:         cfg.Detection.LimitedAccess,
		ThumbSize:       cfg.Detection.ThumbSize,
		UseLegacyOffset: cfg.Tier() == config.TierLegacy,
	}, resolver, det, detectionCache)
	eng.SetSource(sequence)

	return eng, detectionCache, nil
}
