// capguard turns a daily demand series into capacity risk decisions.
package main

import (
	"github.com/huangsam/capguard/cmd"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	iocache.CloseCaching()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("capguard failed", err)
	}
}
