package logger

import "sync"

// Named loggers let an application hand a specific component a
// preconfigured logger while every other component falls back to a
// tagged view of the global one. The ad controllers, the placement
// registry, and the monitor server all resolve their default logger
// through Get.

var (
	namedMu sync.RWMutex
	named   = map[string]*Logger{}
)

// Register stores l under name, replacing any previous registration.
func Register(name string, l *Logger) {
	namedMu.Lock()
	named[name] = l
	namedMu.Unlock()
}

// Get returns the logger registered under name. Unregistered names
// resolve to the global logger tagged with the component name, so Get
// never returns nil.
func Get(name string) *Logger {
	namedMu.RLock()
	l := named[name]
	namedMu.RUnlock()
	if l != nil {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults seeds the registry with component-tagged views of
// the global logger. Call it after Init so the views carry the
// configured level and format.
func RegisterDefaults(names ...string) {
	for _, name := range names {
		Register(name, GetGlobalLogger().WithComponent(name))
	}
}
