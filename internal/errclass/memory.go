package errclass

import (
	"runtime"
	"runtime/debug"
)

// Memory pressure thresholds for heap-in-use bytes.
const (
	memoryWarningBytes  = 500 * 1024 * 1024
	memoryCriticalBytes = 1024 * 1024 * 1024
)

// MemoryLevel is the result of a memory pressure check.
type MemoryLevel int

const (
	MemoryOK MemoryLevel = iota
	MemoryWarning
	MemoryCritical
)

// String returns the human-readable name of the level.
func (l MemoryLevel) String() string {
	switch l {
	case MemoryWarning:
		return "warning"
	case MemoryCritical:
		return "critical"
	default:
		return "ok"
	}
}

// CheckMemory samples current heap usage and classifies it against the
// fixed thresholds. At the critical level the returned Record carries
// PauseProcessing, telling the batch loop to stop dispatching new file
// work until ReclaimHint has run and usage has been re-checked.
func CheckMemory() (MemoryLevel, uint64, *Record) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	used := ms.HeapInuse

	switch {
	case used > memoryCriticalBytes:
		r := MemoryPressure(used)
		return MemoryCritical, used, &r
	case used > memoryWarningBytes:
		return MemoryWarning, used, nil
	default:
		return MemoryOK, used, nil
	}
}

// ReclaimHint asks the runtime to collect garbage and return freed
// memory to the OS. Callers invoke it after a critical check before
// re-checking usage.
func ReclaimHint() {
	runtime.GC()
	debug.FreeOSMemory()
}
