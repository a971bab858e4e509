// Package mpv provides the native media element behind the html5 adapters,
// driven by libmpv.
package mpv

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/go-mpv"

	"github.com/hayasedb/hayase-player/internal/players/html5"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:98.0) Gecko/20100101 Firefox/98.0"

// handle is the part of *mpv.Mpv the element drives.
type handle interface {
	SetOptionString(name, value string) error
	SetOption(name string, format mpv.Format, data interface{}) error
	RequestLogMessages(level string) error
	ObserveProperty(id uint64, name string, format mpv.Format) error
	Initialize() error
	WaitEvent(timeout float64) *mpv.Event
	Command(cmd []string) error
	GetProperty(name string, format mpv.Format) (interface{}, error)
	SetProperty(name string, format mpv.Format, data interface{}) error
	TerminateDestroy()
}

type Element struct {
	m    handle
	kind html5.MediaKind
	log  *log.Logger

	mu          sync.Mutex
	handler     func(html5.MediaEvent)
	src         string
	paused      bool
	buffering   bool
	timePos     float64
	duration    float64
	volume      float64
	muted       bool
	autoplay    bool
	loading     bool
	pendingSeek float64
	hasPending  bool

	// dispatching is set while the event loop runs a handler. A Close from
	// inside a handler cannot wait for the loop it is running on.
	dispatching atomic.Bool
	// lifeMu guards destroyed; the handle is freed by the loop on exit.
	lifeMu    sync.Mutex
	destroyed bool

	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

var _ html5.MediaElement = (*Element)(nil)

// NewElement is an html5.ElementFactory.
func NewElement(kind html5.MediaKind, logger *log.Logger) (html5.MediaElement, error) {
	if logger == nil {
		logger = log.Default()
	}

	m := mpv.New()
	if m == nil {
		return nil, fmt.Errorf("failed to create mpv instance")
	}

	e, err := newElement(m, kind, logger)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func newElement(m handle, kind html5.MediaKind, logger *log.Logger) (*Element, error) {
	e := &Element{
		m:        m,
		kind:     kind,
		log:      logger,
		paused:   true,
		volume:   1,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	e.configure()

	if err := m.Initialize(); err != nil {
		m.TerminateDestroy()
		return nil, fmt.Errorf("failed to initialize mpv: %w", err)
	}

	e.observe()

	go e.eventLoop()

	return e, nil
}

func (e *Element) configure() {
	m := e.m

	if err := m.SetOptionString("user-agent", userAgent); err != nil {
		e.log.Debug("Failed to set user-agent", "error", err)
	}

	if err := m.SetOptionString("idle", "yes"); err != nil {
		e.log.Debug("Failed to enable idle mode", "error", err)
	}

	if err := m.SetOptionString("keep-open", "yes"); err != nil {
		e.log.Debug("Failed to set keep-open", "error", err)
	}

	if err := m.SetOption("pause", mpv.FormatFlag, true); err != nil {
		e.log.Debug("Failed to start paused", "error", err)
	}

	if err := m.SetOptionString("input-default-bindings", "yes"); err != nil {
		e.log.Debug("Failed to set input-default-bindings", "error", err)
	}

	if e.kind == html5.KindAudio {
		if err := m.SetOptionString("vid", "no"); err != nil {
			e.log.Debug("Failed to disable video track", "error", err)
		}
	} else {
		if err := m.SetOptionString("input-vo-keyboard", "yes"); err != nil {
			e.log.Debug("Failed to set input-vo-keyboard", "error", err)
		}

		if err := m.SetOption("osc", mpv.FormatFlag, true); err != nil {
			e.log.Debug("Failed to enable OSC", "error", err)
		}

		if err := m.SetOptionString("hwdec", "auto"); err != nil {
			e.log.Debug("Failed to set hardware decoding", "error", err)
		}

		if err := m.SetOptionString("vo", "gpu"); err != nil {
			e.log.Debug("Failed to set video output", "error", err)
		}
	}

	switch runtime.GOOS {
	case "linux":
		if err := m.SetOptionString("ao", "pulse"); err != nil {
			e.log.Debug("Failed to set audio output to pulse", "error", err)
		}
	case "darwin":
		if err := m.SetOptionString("ao", "coreaudio"); err != nil {
			e.log.Debug("Failed to set audio output to coreaudio", "error", err)
		}
	}

	if err := m.SetOption("cache", mpv.FormatFlag, true); err != nil {
		e.log.Debug("Failed to enable cache", "error", err)
	}

	if err := m.SetOption("network-timeout", mpv.FormatInt64, int64(30)); err != nil {
		e.log.Debug("Failed to set network timeout", "error", err)
	}

	if err := m.SetOption("terminal", mpv.FormatFlag, false); err != nil {
		e.log.Debug("Failed to disable terminal", "error", err)
	}

	if err := m.RequestLogMessages("warn"); err != nil {
		e.log.Debug("Failed to request log messages", "error", err)
	}
}

func (e *Element) observe() {
	properties := []struct {
		name   string
		format mpv.Format
	}{
		{"pause", mpv.FormatFlag},
		{"paused-for-cache", mpv.FormatFlag},
		{"time-pos", mpv.FormatDouble},
		{"duration", mpv.FormatDouble},
		{"volume", mpv.FormatDouble},
		{"mute", mpv.FormatFlag},
		{"eof-reached", mpv.FormatFlag},
	}

	for i, p := range properties {
		if err := e.m.ObserveProperty(uint64(i+1), p.name, p.format); err != nil {
			e.log.Debug("Failed to observe property", "property", p.name, "error", err)
		}
	}
}

func (e *Element) eventLoop() {
	defer close(e.loopDone)
	defer e.destroy()

	for {
		select {
		case <-e.done:
			return
		default:
		}

		event := e.m.WaitEvent(1)
		if event == nil {
			continue
		}

		switch event.EventID {
		case mpv.EventPropertyChange:
			e.handleProperty(event.Property())

		case mpv.EventFileLoaded:
			e.handleFileLoaded()

		case mpv.EventEnd:
			ef := event.EndFile()
			e.log.Debug("Playback ended", "reason", ef.Reason)
			switch ef.Reason {
			case mpv.EndFileEOF:
				e.dispatch(html5.MediaEnded)
			case mpv.EndFileError:
				e.log.Error("Playback error", "error", ef.Error)
				e.dispatch(html5.MediaError)
			}

		case mpv.EventShutdown:
			e.log.Debug("MPV shutdown")
			return

		case mpv.EventLogMsg:
			msg := event.LogMessage()
			e.log.Debug("MPV log", "level", msg.Level, "text", strings.TrimSpace(msg.Text))

		case mpv.EventNone:
			continue
		}

		if event.Error != nil {
			e.log.Debug("Event error", "error", event.Error)
		}
	}
}

func (e *Element) handleProperty(prop mpv.EventProperty) {
	switch prop.Name {
	case "pause":
		paused, ok := asFlag(prop.Data)
		if !ok {
			return
		}
		e.mu.Lock()
		changed := e.paused != paused
		e.paused = paused
		buffering := e.buffering
		e.mu.Unlock()
		if !changed {
			return
		}
		if paused {
			e.dispatch(html5.MediaPause)
		} else if !buffering {
			e.dispatch(html5.MediaPlaying)
		}

	case "paused-for-cache":
		buffering, ok := asFlag(prop.Data)
		if !ok {
			return
		}
		e.mu.Lock()
		e.buffering = buffering
		paused := e.paused
		e.mu.Unlock()
		if buffering {
			e.dispatch(html5.MediaWaiting)
		} else if !paused {
			e.dispatch(html5.MediaPlaying)
		}

	case "time-pos":
		t, ok := asDouble(prop.Data)
		if !ok {
			return
		}
		e.mu.Lock()
		e.timePos = t
		e.mu.Unlock()
		e.dispatch(html5.MediaTimeUpdate)

	case "duration":
		d, ok := asDouble(prop.Data)
		if !ok {
			return
		}
		e.mu.Lock()
		e.duration = d
		e.mu.Unlock()
		e.dispatch(html5.MediaDurationChange)

	case "volume":
		v, ok := asDouble(prop.Data)
		if !ok {
			return
		}
		e.mu.Lock()
		e.volume = v / 100
		e.mu.Unlock()
		e.dispatch(html5.MediaVolumeChange)

	case "mute":
		muted, ok := asFlag(prop.Data)
		if !ok {
			return
		}
		e.mu.Lock()
		e.muted = muted
		e.mu.Unlock()
		e.dispatch(html5.MediaVolumeChange)

	case "eof-reached":
		if eof, ok := asFlag(prop.Data); ok && eof {
			e.dispatch(html5.MediaEnded)
		}
	}
}

func (e *Element) handleFileLoaded() {
	e.mu.Lock()
	e.loading = false
	seek, hasPending := e.pendingSeek, e.hasPending
	e.hasPending = false
	e.mu.Unlock()

	if title, err := e.m.GetProperty("media-title", mpv.FormatString); err == nil {
		e.log.Debug("File loaded", "title", title)
	}

	if hasPending && seek > 0 {
		if err := e.seek(seek); err != nil {
			e.log.Debug("Failed to restore position", "time", seek, "error", err)
		}
	}

	e.dispatch(html5.MediaCanPlay)
}

func (e *Element) dispatch(ev html5.MediaEvent) {
	e.mu.Lock()
	handler := e.handler
	e.mu.Unlock()
	if handler != nil {
		e.dispatching.Store(true)
		defer e.dispatching.Store(false)
		handler(ev)
	}
}

func (e *Element) OnEvent(fn func(html5.MediaEvent)) {
	e.mu.Lock()
	e.handler = fn
	e.mu.Unlock()
}

func (e *Element) Load(src string) error {
	e.mu.Lock()
	e.src = src
	e.loading = src != ""
	e.timePos = 0
	e.mu.Unlock()

	if src == "" {
		if err := e.m.Command([]string{"stop"}); err != nil {
			return fmt.Errorf("failed to unload file: %w", err)
		}
		return nil
	}

	if err := e.m.Command([]string{"loadfile", src, "replace"}); err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	return nil
}

func (e *Element) Play() error {
	if err := e.m.SetProperty("pause", mpv.FormatFlag, false); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	return nil
}

func (e *Element) Pause() error {
	if err := e.m.SetProperty("pause", mpv.FormatFlag, true); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return nil
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timePos
}

// SetCurrentTime seeks, or defers the seek until the pending file is loaded.
func (e *Element) SetCurrentTime(t float64) error {
	e.mu.Lock()
	if e.loading || e.src == "" {
		e.pendingSeek = t
		e.hasPending = true
		e.timePos = t
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	return e.seek(t)
}

func (e *Element) seek(t float64) error {
	if err := e.m.Command([]string{"seek", strconv.FormatFloat(t, 'f', 3, 64), "absolute"}); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Element) SetVolume(v float64) error {
	if err := e.m.SetProperty("volume", mpv.FormatDouble, v*100); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Element) SetMuted(muted bool) error {
	if err := e.m.SetProperty("mute", mpv.FormatFlag, muted); err != nil {
		return fmt.Errorf("failed to set mute: %w", err)
	}
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
	return nil
}

func (e *Element) Autoplay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoplay
}

func (e *Element) SetAutoplay(a bool) {
	e.mu.Lock()
	e.autoplay = a
	e.mu.Unlock()
}

// CanPlayType reports "maybe" for any audio or video type; libmpv only
// knows for certain once it has probed the stream.
func (e *Element) CanPlayType(mime string) string {
	kind, _, _ := strings.Cut(strings.ToLower(mime), "/")
	if kind == "audio" || kind == "video" {
		return "maybe"
	}
	return ""
}

func (e *Element) destroy() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if !e.destroyed {
		e.destroyed = true
		e.m.TerminateDestroy()
	}
}

// Close stops playback and releases libmpv. Called from an event handler it
// returns without waiting; the loop frees the handle once the handler
// returns.
func (e *Element) Close() error {
	e.closeOnce.Do(func() {
		e.OnEvent(nil)
		close(e.done)

		e.lifeMu.Lock()
		if !e.destroyed {
			if err := e.m.Command([]string{"quit"}); err != nil {
				e.log.Debug("Failed to quit MPV gracefully", "error", err)
			}
		}
		e.lifeMu.Unlock()

		if e.dispatching.Load() {
			return
		}
		<-e.loopDone
	})
	return nil
}

func asFlag(data interface{}) (bool, bool) {
	switch v := data.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	default:
		return false, false
	}
}

func asDouble(data interface{}) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
