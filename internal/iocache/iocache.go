// Package iocache persists pipeline results and run history in SQL backends.
package iocache

import (
	"sync"

	"github.com/huangsam/capguard/internal/contract"
)

// CacheStoreManager holds the result cache and run stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	results      contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetResultStore returns the result CacheStore, or nil when caching is not initialized.
func (mgr *CacheStoreManager) GetResultStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.results
}

// GetRunStore returns the RunStore, or nil when run tracking is not initialized.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
