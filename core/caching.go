package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/dataset"
	"github.com/huangsam/capguard/schema"
)

// currentCacheVersion defines the version of the cached record layout
const currentCacheVersion = 1

// maxCacheAge is how long a cached pipeline result stays valid.
const maxCacheAge = 7 * 24 * time.Hour

// cachedPipeline returns the full pipeline output for the configured input,
// reading it from the result cache when a fresh entry exists.
func cachedPipeline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetResultStore()
	}
	if store == nil {
		// Fallback to direct computation
		return computePipeline(cfg)
	}

	key, err := generateCacheKey(cfg)
	if err != nil {
		return computePipeline(cfg)
	}

	if result := checkCacheHit(store, key); result != nil {
		return result, nil
	}
	return computeAndStore(cfg, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) schema.Dataset {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > maxCacheAge {
		return nil // Stale or version mismatch
	}

	var result schema.Dataset
	if err := json.Unmarshal(data, &result); err != nil || len(result) == 0 {
		return nil
	}
	return result
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(cfg *contract.Config, store contract.CacheStore, key string) (schema.Dataset, error) {
	result, err := computePipeline(cfg)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store pipeline result in cache", err)
		}
	}
	return result, nil
}

// generateCacheKey hashes the input contents together with every setting that changes the pipeline output.
func generateCacheKey(cfg *contract.Config) (string, error) {
	fingerprint, err := dataset.Fingerprint(cfg.InputPath)
	if err != nil {
		return "", err
	}
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return "", err
	}
	sc := requestedScenario(cfg)

	key := fmt.Sprintf("%s:%s:%g:%d:%g:%t:%d",
		fingerprint,
		settings,
		sc.DemandChange,
		sc.ResourceChange,
		cfg.Confidence,
		cfg.NaiveForecast,
		currentCacheVersion,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}
