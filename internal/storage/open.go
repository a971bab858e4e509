package storage

import (
	"fmt"
	"io"
)

// OpenPreferences returns the store selected by preferences.backend. The
// closer releases whatever the backend holds open.
func OpenPreferences(cfg *Config) (PreferenceStore, io.Closer, error) {
	switch backend := cfg.GetPreferencesBackend(); backend {
	case BackendSQLite:
		store, err := OpenSQLiteStore()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite preferences: %w", err)
		}
		return store, store, nil
	case BackendMemory:
		return NewMemoryStore(), nopCloser{}, nil
	default:
		store, err := NewFileStore(cfg.Dir())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open preferences file: %w", err)
		}
		return store, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
