package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/hayasedb/hayase-player/internal/players/youtube"
)

const (
	requestTimeout = 10 * time.Second
	writeTimeout   = 5 * time.Second
)

var ErrClosed = errors.New("bridge connection closed")

// Client is a youtube.API backed by a remote embed host.
type Client struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	log    *log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	players map[string]*remotePlayer
	pending map[string]chan Message
	closed  bool

	done chan struct{}
}

var _ youtube.API = (*Client)(nil)

func Dial(ctx context.Context, url string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial embed host %s: %w", url, err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:    conn,
		ctx:     cctx,
		cancel:  cancel,
		log:     logger.WithPrefix("bridge"),
		players: make(map[string]*remotePlayer),
		pending: make(map[string]chan Message),
		done:    make(chan struct{}),
	}

	go c.readLoop()

	c.log.Debug("Connected to embed host", "url", url)
	return c, nil
}

func (c *Client) NewPlayer(cfg youtube.EmbedConfig) (youtube.EmbedPlayer, error) {
	p := &remotePlayer{
		id:     uuid.NewString(),
		client: c,
		events: cfg.Events,
		info: playerInfo{
			volume: 100,
			muted:  cfg.Muted,
		},
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.players[p.id] = p
	c.mu.Unlock()

	_, err := c.request(Message{
		Type:   TypeCall,
		Player: p.id,
		Method: MethodCreate,
		Args:   []any{cfg.VideoID, cfg.Autoplay, cfg.Muted},
	})
	if err != nil {
		c.forget(p.id)
		return nil, fmt.Errorf("failed to create embed player: %w", err)
	}

	return p, nil
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.players, id)
	c.mu.Unlock()
}

// request sends msg and waits for the matching reply.
func (c *Client) request(msg Message) (Message, error) {
	msg.ID = uuid.NewString()
	reply := make(chan Message, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	c.pending[msg.ID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	if err := c.send(msg); err != nil {
		return Message{}, err
	}

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	select {
	case r := <-reply:
		if r.Error != "" {
			return r, fmt.Errorf("%s: %s", msg.Method, r.Error)
		}
		return r, nil
	case <-c.done:
		return Message{}, ErrClosed
	case <-ctx.Done():
		if c.ctx.Err() != nil {
			return Message{}, ErrClosed
		}
		return Message{}, fmt.Errorf("%s: %w", msg.Method, ctx.Err())
	}
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := Encode(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", msg.Method, err)
	}
	return nil
}

func (c *Client) call(player, method string, args ...any) error {
	return c.send(Message{Type: TypeCall, Player: player, Method: method, Args: args})
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.shutdown()

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || c.ctx.Err() != nil {
				c.log.Debug("Embed host connection closed")
			} else {
				c.log.Error("Failed to read from embed host", "error", err)
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			c.log.Warn("Dropping malformed frame", "error", err)
			continue
		}

		switch msg.Type {
		case TypeReply:
			c.mu.Lock()
			reply, ok := c.pending[msg.ID]
			if ok {
				// The first reply wins; the buffer holds exactly one.
				delete(c.pending, msg.ID)
				select {
				case reply <- msg:
				default:
				}
			}
			c.mu.Unlock()
			if !ok {
				c.log.Debug("Dropping reply without a pending request", "id", msg.ID)
			}
		case TypeEvent:
			c.mu.Lock()
			p, ok := c.players[msg.Player]
			c.mu.Unlock()
			if !ok {
				c.log.Debug("Event for unknown player", "player", msg.Player, "event", msg.Event)
				continue
			}
			p.dispatch(msg)
		default:
			c.log.Debug("Unhandled frame", "type", msg.Type)
		}
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	// Requesters still waiting are released by done.
	clear(c.pending)
}

func (c *Client) Close() error {
	c.shutdown()
	if err := c.conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		c.log.Debug("Failed to close websocket cleanly", "error", err)
	}
	c.cancel()
	<-c.done
	return nil
}

type playerInfo struct {
	currentTime float64
	duration    float64
	volume      float64
	muted       bool
	quality     string
	levels      []string
}

type remotePlayer struct {
	id     string
	client *Client
	events youtube.EmbedEvents

	mu   sync.Mutex
	info playerInfo
}

var _ youtube.EmbedPlayer = (*remotePlayer)(nil)

func (p *remotePlayer) merge(info *Info) {
	if info == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if info.CurrentTime != nil {
		p.info.currentTime = *info.CurrentTime
	}
	if info.Duration != nil {
		p.info.duration = *info.Duration
	}
	if info.Volume != nil {
		p.info.volume = *info.Volume
	}
	if info.Muted != nil {
		p.info.muted = *info.Muted
	}
	if info.PlaybackQuality != nil {
		p.info.quality = *info.PlaybackQuality
	}
	if info.AvailableQualityLevels != nil {
		p.info.levels = slices.Clone(info.AvailableQualityLevels)
	}
}

func (p *remotePlayer) dispatch(msg Message) {
	p.merge(msg.Info)

	switch msg.Event {
	case EventReady:
		if p.events.OnReady != nil {
			p.events.OnReady()
		}
	case EventStateChange:
		if p.events.OnStateChange != nil {
			p.events.OnStateChange(youtube.PlayerState(msg.State))
		}
	case EventError:
		if p.events.OnError != nil {
			p.events.OnError(msg.Code)
		}
	case EventPlaybackRateChange:
		if p.events.OnPlaybackRateChange != nil {
			p.events.OnPlaybackRateChange(msg.Rate)
		}
	case EventPlaybackQualityChange:
		p.mu.Lock()
		p.info.quality = msg.Quality
		p.mu.Unlock()
		if p.events.OnPlaybackQualityChange != nil {
			p.events.OnPlaybackQualityChange(msg.Quality)
		}
	case EventInfoDelivery:
	default:
		p.client.log.Debug("Unhandled event", "event", msg.Event)
	}
}

func (p *remotePlayer) PlayVideo() error { return p.client.call(p.id, MethodPlayVideo) }

func (p *remotePlayer) PauseVideo() error { return p.client.call(p.id, MethodPauseVideo) }

func (p *remotePlayer) StopVideo() error { return p.client.call(p.id, MethodStopVideo) }

func (p *remotePlayer) SeekTo(seconds float64, allowSeekAhead bool) error {
	p.mu.Lock()
	p.info.currentTime = seconds
	p.mu.Unlock()
	return p.client.call(p.id, MethodSeekTo, seconds, allowSeekAhead)
}

func (p *remotePlayer) LoadVideoByID(id string) error {
	p.mu.Lock()
	p.info.currentTime = 0
	p.info.duration = 0
	p.mu.Unlock()
	return p.client.call(p.id, MethodLoadVideoByID, id)
}

func (p *remotePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.currentTime
}

func (p *remotePlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.duration
}

func (p *remotePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.volume
}

func (p *remotePlayer) SetVolume(v float64) error {
	p.mu.Lock()
	p.info.volume = v
	p.mu.Unlock()
	return p.client.call(p.id, MethodSetVolume, v)
}

func (p *remotePlayer) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.muted
}

func (p *remotePlayer) Mute() error {
	p.mu.Lock()
	p.info.muted = true
	p.mu.Unlock()
	return p.client.call(p.id, MethodMute)
}

func (p *remotePlayer) UnMute() error {
	p.mu.Lock()
	p.info.muted = false
	p.mu.Unlock()
	return p.client.call(p.id, MethodUnMute)
}

func (p *remotePlayer) PlaybackQuality() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.quality
}

func (p *remotePlayer) SetPlaybackQuality(q string) error {
	return p.client.call(p.id, MethodSetPlaybackQuality, q)
}

func (p *remotePlayer) AvailableQualityLevels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.info.levels)
}

func (p *remotePlayer) Destroy() error {
	p.client.forget(p.id)
	if err := p.client.call(p.id, MethodDestroy); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
