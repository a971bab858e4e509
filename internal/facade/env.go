package facade

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/players"
	"github.com/hayasedb/hayase-player/internal/storage"
)

// Env is shared by every facade built from it: the adapter registry, the
// preference store, the host and the diagnostic logger.
type Env struct {
	registry *players.Registry
	host     *host.Host
	logger   *log.Logger

	mu    sync.RWMutex
	store storage.PreferenceStore
}

type EnvOption func(*Env)

func WithStore(store storage.PreferenceStore) EnvOption {
	return func(e *Env) {
		e.store = store
	}
}

func WithHost(h *host.Host) EnvOption {
	return func(e *Env) {
		e.host = h
	}
}

func WithLogger(logger *log.Logger) EnvOption {
	return func(e *Env) {
		e.logger = logger
	}
}

func NewEnv(opts ...EnvOption) *Env {
	e := &Env{
		registry: players.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.host == nil {
		e.host = host.New()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.store == nil {
		e.store = storage.NewMemoryStore()
	}
	return e
}

// Use registers an adapter kind. The first registration of a platform wins.
func (e *Env) Use(d players.Descriptor) error {
	return e.registry.Register(d)
}

func (e *Env) Registry() *players.Registry { return e.registry }

func (e *Env) Host() *host.Host { return e.host }

func (e *Env) Logger() *log.Logger { return e.logger }

func (e *Env) Store() storage.PreferenceStore {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store
}

// SetStore replaces the preference store for every facade of this Env.
func (e *Env) SetStore(store storage.PreferenceStore) {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	e.mu.Lock()
	e.store = store
	e.mu.Unlock()
}
