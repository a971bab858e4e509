package youtube

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const loadTimeout = 30 * time.Second

// Loader loads the remote embed API at most once per process and hands it
// to every player that asks. Callbacks registered while a load is in flight
// run in registration order once it completes. A failed load is retried by
// the next Ready call.
type Loader struct {
	load func(ctx context.Context) (API, error)

	mu        sync.Mutex
	api       API
	loading   bool
	callbacks []func(API, error)
}

func NewLoader(load func(ctx context.Context) (API, error)) *Loader {
	return &Loader{load: load}
}

// Ready calls fn with the API, immediately if it is already loaded.
func (l *Loader) Ready(fn func(API, error)) {
	l.mu.Lock()
	if l.api != nil {
		api := l.api
		l.mu.Unlock()
		fn(api, nil)
		return
	}

	l.callbacks = append(l.callbacks, fn)
	if l.loading {
		l.mu.Unlock()
		return
	}
	l.loading = true
	l.mu.Unlock()

	go l.run()
}

func (l *Loader) run() {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	log.Debug("Loading embed API")
	api, err := l.load(ctx)

	l.mu.Lock()
	callbacks := l.callbacks
	l.callbacks = nil
	l.loading = false
	if err == nil {
		l.api = api
	}
	l.mu.Unlock()

	if err != nil {
		log.Error("Failed to load embed API", "error", err)
	}

	for _, fn := range callbacks {
		fn(api, err)
	}
}

func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.api != nil
}
