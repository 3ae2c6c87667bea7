package synthesis

import "sync"

// logf is the package-level debug hook; no-op unless SetLogf installs one.
var (
	logMu sync.RWMutex
	logf  func(format string, args ...interface{})
)

// SetLogf installs a debug logging function for synthesis internals.
func SetLogf(fn func(format string, args ...interface{})) {
	logMu.Lock()
	defer logMu.Unlock()
	logf = fn
}

func debugf(format string, args ...interface{}) {
	logMu.RLock()
	fn := logf
	logMu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}
