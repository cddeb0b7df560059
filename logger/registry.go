package logger

import (
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Logger)
)

// Register stores a named logger. Pipes and jobs look their loggers up by
// component name, so registering "pipeline" redirects every pipe's output.
func Register(name string, l *Logger) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = l
}

// Unregister removes a named logger.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Get retrieves a named logger. If the name is not registered it returns the
// global logger tagged with the requested component name.
func Get(name string) *Logger {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
