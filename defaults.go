package main

import "sync"

var defaultsOnce sync.Once

// registerDefaults populates the tag registries with the built-in content
// set. Safe to call from multiple tests.
func registerDefaults() {
	defaultsOnce.Do(func() {
		registerDefaultEntities()
		registerDefaultItems()
		registerDefaultStructures()
		registerDefaultWorlds()
	})
}
