//go:build linux

package mpris

import (
	"github.com/charmbracelet/log"
	"github.com/quarckster/go-mpris-server/pkg/server"
)

// Adapter exposes a Service on the session bus.
type Adapter struct {
	server *server.Server
}

// New registers the service as org.mpris.MediaPlayer2.<name> and starts
// serving in the background.
func New(name string, service Service) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer(name, &rootAdapter{}, &playerAdapter{service: service}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			log.Warn("MPRIS server stopped", "error", err)
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}
