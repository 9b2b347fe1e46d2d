// Package app wires the storage engine (internal/pkg/text), the file
// I/O pipeline (internal/pkg/fileio), the watcher (internal/pkg/watch),
// and configuration (config) into the handful of operations cmd/niv
// needs: load-or-default a config file and open a document.
package app

import (
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/SkuldNorniern/niv/config"
)

// LoadOrDefaultConfig loads niv's configuration from the first path in
// config.SearchPaths that exists, or returns config.Default() with no
// error if none does. It never writes a config file the user didn't
// create.
func LoadOrDefaultConfig(forceDefault bool) (config.Settings, error) {
	if forceDefault {
		log.Printf("using default config\n")
		return config.Default(), nil
	}

	settings, path, err := config.Load()
	if err != nil {
		return config.Settings{}, errors.Wrapf(err, "load config from %s", path)
	}
	if path == "" {
		log.Printf("no config file found on search path, using defaults\n")
	} else {
		log.Printf("loaded config from %s\n", path)
	}
	return settings, nil
}

// ConfigStore holds the active configuration behind a readers-writer
// lock. Consumers take a cloned snapshot rather than reading through
// the lock, so a slow consumer never blocks a writer.
type ConfigStore struct {
	mu       sync.RWMutex
	settings config.Settings
}

// NewConfigStore wraps an initial Settings value.
func NewConfigStore(s config.Settings) *ConfigStore {
	return &ConfigStore{settings: cloneSettings(s)}
}

// Snapshot returns a deep copy of the current settings.
func (cs *ConfigStore) Snapshot() config.Settings {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cloneSettings(cs.settings)
}

// Update replaces the active settings, e.g. after a config reload.
func (cs *ConfigStore) Update(s config.Settings) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.settings = cloneSettings(s)
}

func cloneSettings(s config.Settings) config.Settings {
	out := s
	out.Keybindings = make(map[string]string, len(s.Keybindings))
	for k, v := range s.Keybindings {
		out.Keybindings[k] = v
	}
	out.Custom = make(config.Document, len(s.Custom))
	for k, v := range s.Custom {
		out.Custom[k] = v
	}
	out.Extensions.Directories = append([]string(nil), s.Extensions.Directories...)
	return out
}
