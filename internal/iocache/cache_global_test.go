package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals gives each test a fresh manager.
func resetGlobals(t *testing.T) {
	t.Helper()
	Manager = &CacheStoreManager{}
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(func() {
		CloseCaching()
		Manager = &CacheStoreManager{}
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
	})
}

func TestInitStoresSQLite(t *testing.T) {
	resetGlobals(t)

	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", schema.SQLiteBackend, ":memory:"))
	assert.NotNil(t, Manager.GetResultStore())
	assert.NotNil(t, Manager.GetRunStore())
}

func TestInitStoresNoneBackend(t *testing.T) {
	resetGlobals(t)

	require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))

	status, err := Manager.GetResultStore().GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)

	runStatus, err := Manager.GetRunStore().GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", runStatus.Backend)
}

func TestInitStoresEmptyBackends(t *testing.T) {
	resetGlobals(t)

	require.NoError(t, InitStores("", "", "", ""))
	assert.Nil(t, Manager.GetResultStore())
	assert.Nil(t, Manager.GetRunStore())
}

func TestInitStoresErrors(t *testing.T) {
	t.Run("bad cache backend", func(t *testing.T) {
		resetGlobals(t)
		assert.Error(t, InitStores("unsupported", "", "", ""))
		assert.Nil(t, Manager.GetResultStore())
	})

	t.Run("bad runs backend closes the cache store", func(t *testing.T) {
		resetGlobals(t)
		assert.Error(t, InitStores(schema.SQLiteBackend, ":memory:", "unsupported", ""))
		assert.Nil(t, Manager.GetResultStore())
		assert.Nil(t, Manager.GetRunStore())
	})
}

func TestInitStoresOnce(t *testing.T) {
	resetGlobals(t)

	require.NoError(t, InitStores(schema.NoneBackend, "", "", ""))
	first := Manager.GetResultStore()

	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
	assert.Same(t, first, Manager.GetResultStore(), "second call is ignored")
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			store := Manager.GetResultStore()
			if store == nil {
				t.Errorf("goroutine %d: GetResultStore returned nil", i)
				return
			}
			if err := store.Set("concurrent_key", []byte("value"), 1, int64(1000+i)); err != nil {
				t.Errorf("goroutine %d: Set failed: %v", i, err)
			}
		})
	}
	wg.Wait()

	status, err := Manager.GetResultStore().GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalEntries)
}

func TestClearCache(t *testing.T) {
	t.Run("SQLite removes the file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(resultTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		_, err = os.Stat(dbPath)
		require.NoError(t, err)

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("SQLite missing file", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "none.db"), ""))
	})

	t.Run("SQLite empty path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("NoneBackend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("unsupported", "", ""))
	})
}

func TestClearRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, ClearRuns(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
}
