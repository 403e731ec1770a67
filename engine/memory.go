package engine

import (
	"runtime"
	"sync/atomic"
	"time"
)

// memoryCheckInterval matches §5.5's "every ~30 s" memory-pressure
// monitor cadence.
const memoryCheckInterval = 30 * time.Second

// softMemoryThresholdBytes and hardMemoryThresholdBytes bound the
// engine's own estimate of its in-memory footprint (runtime.MemStats'
// HeapAlloc, the standard library's own proxy for live heap size).
// Both are generous defaults sized for a single large repository's
// index living alongside everything else in the host process; a host
// embedding this engine inside a larger application should expect to
// tune these via a future config knob if the shared heap budget is
// tighter than this.
const (
	softMemoryThresholdBytes = 512 * 1024 * 1024
	hardMemoryThresholdBytes = 1024 * 1024 * 1024
)

// startMemoryMonitor launches the periodic heap-pressure check (§5.5).
// Calling it twice without an intervening stopMemoryMonitor is a
// no-op; WarmIndex only calls it once per Engine in practice.
func (e *Engine) startMemoryMonitor() {
	if e.memStop != nil {
		return
	}
	stop := make(chan struct{})
	e.memStop = stop

	go func() {
		ticker := time.NewTicker(memoryCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.checkMemoryPressure()
			}
		}
	}()
}

func (e *Engine) stopMemoryMonitor() {
	if e.memStop == nil {
		return
	}
	close(e.memStop)
	e.memStop = nil
}

// halted reports whether the hard memory threshold has tripped for
// this engine, pausing incremental indexing until the next rebuild
// clears it (mirrors the self-disable breaker's "until the next
// rebuild" stickiness, §5.5).
func (e *Engine) halted() bool {
	return atomic.LoadInt32(&e.haltedFlag) == 1
}

// checkMemoryPressure estimates the process's live heap and reacts
// per §5.5: above the soft threshold it shrinks caches (drops the
// query result cache, which is cheap to repopulate); above the hard
// threshold it additionally halts incremental indexing, clears every
// cache, and notifies the host.
func (e *Engine) checkMemoryPressure() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	switch {
	case stats.HeapAlloc >= hardMemoryThresholdBytes:
		atomic.StoreInt32(&e.haltedFlag, 1)
		if e.caches != nil {
			e.caches.ClearAll()
		}
		e.tokenizer.Clear()
		e.notify("engine: memory pressure critical, indexing halted and caches cleared")
	case stats.HeapAlloc >= softMemoryThresholdBytes:
		if e.caches != nil {
			e.caches.ClearResults()
		}
		e.notify("engine: memory pressure elevated, result cache cleared")
	}
}
