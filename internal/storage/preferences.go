package storage

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	KeyVolume = "volume"
	KeyMuted  = "muted"
)

// PreferenceStore persists user playback preferences across sessions.
// Values are strings; use Volume and Muted for typed reads.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Volume returns the stored volume, 1.0 when absent or unusable.
func Volume(store PreferenceStore) float64 {
	if store == nil {
		return 1
	}
	raw, ok := store.Get(KeyVolume)
	if !ok {
		return 1
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 1
	}
	return min(v, 1)
}

// Muted returns the stored muted flag and whether one was ever written.
func Muted(store PreferenceStore) (bool, bool) {
	if store == nil {
		return false, false
	}
	raw, ok := store.Get(KeyMuted)
	if !ok {
		return false, false
	}
	muted, err := strconv.ParseBool(raw)
	if err != nil {
		log.Debug("Ignoring malformed muted preference", "value", raw)
		return false, false
	}
	return muted, true
}

func SetVolume(store PreferenceStore, v float64) error {
	if err := store.Set(KeyVolume, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		return fmt.Errorf("failed to store volume: %w", err)
	}
	return nil
}

func SetMuted(store PreferenceStore, muted bool) error {
	if err := store.Set(KeyMuted, strconv.FormatBool(muted)); err != nil {
		return fmt.Errorf("failed to store muted: %w", err)
	}
	return nil
}

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ PreferenceStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
