package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/iocache"
	"github.com/huangsam/capguard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup opens only the result cache. Cache commands take no dataset, so the
// pipeline settings are never validated here.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	cfg.CacheBackend, cfg.CacheDBConnect = backend, connStr
	return nil
}

// sqliteFilePath returns the SQLite file a store uses: the connection string when set, else the default path.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the pipeline result cache",
	Long: `Every pipeline command stores its full output in a cache keyed on the input
file contents plus each setting that changes the output. Editing the input or a
threshold therefore never serves an old result.

Backends: sqlite (default, ~/.capguard_cache.db), mysql, postgresql, none.

  capguard cache status
  capguard cache clear
  CAPGUARD_CACHE_BACKEND=none capguard run data.csv`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached pipeline result",
	Long: `Drop every cached pipeline result. The SQLite file is removed; on MySQL and
PostgreSQL the cache table is dropped and recreated on the next run.

  capguard cache clear
  CAPGUARD_CACHE_BACKEND=postgresql CAPGUARD_CACHE_DB_CONNECT="postgres://..." capguard cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseCaching()
		path := sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, path, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Cannot clear cache", err)
		}
		fmt.Printf("Cleared %s cache.\n", cfg.CacheBackend)
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cache backend, entry count and age range",
	Long: `Show the cache backend and whether it is reachable, how many pipeline results
it holds, the newest and oldest entry, and the database size when known.`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetResultStore()
		if store == nil {
			contract.LogFatal("Cannot read cache status", fmt.Errorf("cache backend %q is not open", cfg.CacheBackend))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Cannot read cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
