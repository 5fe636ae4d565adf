package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// OutletConcurrencyConfig defines serialization limits for import batches
type OutletConcurrencyConfig struct {
	MaxConcurrentBatches int           // Max concurrent batches per platform
	QueueTimeout         time.Duration // Max time to wait in queue
}

// DefaultOutletConcurrencyConfig returns production-ready defaults.
// Batches against one outlet run strictly one at a time; a platform as a
// whole may run a few outlets in parallel.
func DefaultOutletConcurrencyConfig() *OutletConcurrencyConfig {
	return &OutletConcurrencyConfig{
		MaxConcurrentBatches: 4,
		QueueTimeout:         30 * time.Second,
	}
}

// OutletSemaphore serializes import batches per (outlet, platform) key so
// concurrent uploads against the same bindings cannot produce torn
// price/stock/fingerprint writes.
type OutletSemaphore struct {
	mu            sync.RWMutex
	outletSems    map[string]chan struct{}
	platformSems  map[string]chan struct{}
	config        *OutletConcurrencyConfig
	activeBatches map[string]int
}

// NewOutletSemaphore creates a new outlet semaphore manager
func NewOutletSemaphore(config *OutletConcurrencyConfig) *OutletSemaphore {
	if config == nil {
		config = DefaultOutletConcurrencyConfig()
	}
	return &OutletSemaphore{
		outletSems:    make(map[string]chan struct{}),
		platformSems:  make(map[string]chan struct{}),
		config:        config,
		activeBatches: make(map[string]int),
	}
}

func (os *OutletSemaphore) getOrCreateOutletSem(key string) chan struct{} {
	os.mu.Lock()
	defer os.mu.Unlock()

	if sem, exists := os.outletSems[key]; exists {
		return sem
	}

	// Capacity one: batches for the same outlet never overlap.
	sem := make(chan struct{}, 1)
	os.outletSems[key] = sem
	return sem
}

func (os *OutletSemaphore) getOrCreatePlatformSem(platform string) chan struct{} {
	os.mu.Lock()
	defer os.mu.Unlock()

	if sem, exists := os.platformSems[platform]; exists {
		return sem
	}

	sem := make(chan struct{}, os.config.MaxConcurrentBatches)
	os.platformSems[platform] = sem
	return sem
}

// Acquire waits for the outlet's exclusive slot plus a platform slot.
// Returns a release function that must be called when the batch finishes.
func (os *OutletSemaphore) Acquire(ctx context.Context, outletKey, platform string) (func(), error) {
	queueCtx, cancel := context.WithTimeout(ctx, os.config.QueueTimeout)
	defer cancel()

	platformSem := os.getOrCreatePlatformSem(platform)
	select {
	case platformSem <- struct{}{}:
	case <-queueCtx.Done():
		return nil, fmt.Errorf("timeout waiting for platform batch slot: platform=%s", platform)
	}

	outletSem := os.getOrCreateOutletSem(outletKey)
	select {
	case outletSem <- struct{}{}:
	case <-queueCtx.Done():
		<-platformSem
		return nil, fmt.Errorf("timeout waiting for outlet batch slot: outlet=%s", outletKey)
	}

	os.mu.Lock()
	os.activeBatches[outletKey]++
	os.mu.Unlock()

	releaseFunc := func() {
		os.mu.Lock()
		os.activeBatches[outletKey]--
		os.mu.Unlock()

		<-outletSem
		<-platformSem
	}

	return releaseFunc, nil
}

// GetActiveBatchCount returns the number of active batches for an outlet key
func (os *OutletSemaphore) GetActiveBatchCount(outletKey string) int {
	os.mu.RLock()
	defer os.mu.RUnlock()
	return os.activeBatches[outletKey]
}

// GetStats returns concurrency statistics
func (os *OutletSemaphore) GetStats() map[string]interface{} {
	os.mu.RLock()
	defer os.mu.RUnlock()

	active := make(map[string]int)
	for k, v := range os.activeBatches {
		if v > 0 {
			active[k] = v
		}
	}

	return map[string]interface{}{
		"config": map[string]interface{}{
			"maxConcurrentBatches": os.config.MaxConcurrentBatches,
			"queueTimeout":         os.config.QueueTimeout.String(),
		},
		"activeBatchesByOutlet": active,
		"totalOutlets":          len(os.outletSems),
	}
}
