package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentdeck/agentdeck/pkg/api"
	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/metrics"
)

// State is the connection lifecycle state of the stream client.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"

	// StateAuthFailed means the handshake was rejected with 401/403. The
	// reconnect loop stops; the client needs a fresh token and a new
	// Connect call.
	StateAuthFailed State = "auth_failed"
)

const (
	// DefaultDialTimeout bounds the WebSocket handshake.
	DefaultDialTimeout = 10 * time.Second

	// DefaultReconnectDelay is the fixed wait between reconnect attempts
	// after an unexpected close. No backoff growth: the backend going away
	// is normal during deploys and a steady cadence recovers fastest.
	DefaultReconnectDelay = 5 * time.Second
)

// ErrAlreadyConnected is returned by Connect while a session is running.
var ErrAlreadyConnected = errors.New("stream client already connected")

// ErrAuthFailed is reported through OnState when the handshake is rejected.
var ErrAuthFailed = errors.New("stream authentication failed")

// Options configures the stream client.
type Options struct {
	// DialTimeout bounds the handshake. Zero means DefaultDialTimeout.
	DialTimeout time.Duration

	// ReconnectDelay is the fixed wait before redialing after an
	// unexpected close. Zero means DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// OnState is called after every state transition. Optional.
	OnState func(State)
}

// subscription is one registered (topic, filter, handler) triple.
type subscription struct {
	id      int64
	topic   Topic
	filter  Filter
	handler Handler
}

// Client maintains the single shared WebSocket session to the backend's
// event stream: one connection, many subscribers. It reconnects on its own
// after unexpected closes and dispatches decoded frames to matching
// subscribers in arrival order.
type Client struct {
	url     string
	tokenFn api.TokenFunc
	dialer  *websocket.Dialer
	opts    Options

	mu        sync.RWMutex
	state     State
	subs      map[int64]*subscription
	nextSubID int64
	conn      *websocket.Conn

	cancel  context.CancelFunc
	done    chan struct{}
	tracker *Tracker
	logger  zerolog.Logger
}

// NewClient creates a stream client for the given WebSocket URL. tokenFn
// supplies the bearer token attached to the handshake; it is consulted on
// every (re)dial so a refreshed token is picked up automatically.
func NewClient(rawURL string, tokenFn api.TokenFunc, opts Options) *Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}

	return &Client{
		url:     rawURL,
		tokenFn: tokenFn,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.DialTimeout},
		opts:    opts,
		state:   StateDisconnected,
		subs:    make(map[int64]*subscription),
		tracker: NewTracker(),
		logger:  log.WithComponent("stream"),
	}
}

// State returns the current connection state
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Progress returns the workflow progress tracker fed by this stream
func (c *Client) Progress() *Tracker {
	return c.tracker
}

// Connect starts the session: dial, read, reconnect on unexpected close.
// It returns once the loop is running; observe OnState (or State) for the
// actual connection progress. ctx cancels the session like Disconnect does.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.run(ctx, done)
	return nil
}

// Disconnect tears the session down and suppresses reconnection. The
// subscriber list survives: a later Connect resumes delivery to existing
// subscribers.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	conn := c.conn
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		// Unblocks a pending read.
		_ = conn.Close()
	}
	<-done
	c.setState(StateDisconnected)
}

// Subscribe registers a handler for one topic, optionally narrowed by a
// filter. Returns a function to unsubscribe. Unsubscribing never touches the
// connection; the transport is torn down only by Disconnect.
func (c *Client) Subscribe(topic Topic, filter Filter, handler Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscription{
		id:      c.nextSubID,
		topic:   topic,
		filter:  filter,
		handler: handler,
	}
	c.nextSubID++
	c.subs[sub.id] = sub
	metrics.StreamSubscribers.Inc()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[sub.id]; ok {
			delete(c.subs, sub.id)
			metrics.StreamSubscribers.Dec()
		}
	}
}

// run is the session loop: dial, read until failure, wait, redial. Every
// exit path releases the session slot so a later Connect starts fresh.
func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.releaseSession(done)
		close(done)
	}()

	first := true
	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			metrics.StreamReconnectsTotal.Inc()
		}
		first = false

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			if errors.Is(err, ErrAuthFailed) {
				c.logger.Warn().Msg("stream handshake rejected, not reconnecting")
				// Free the slot before publishing the state, so anyone
				// reacting to AuthFailed can Connect again immediately.
				c.releaseSession(done)
				c.setState(StateAuthFailed)
				return
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Msg("stream dial failed")
			c.setState(StateDisconnected)
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		metrics.StreamConnectsTotal.Inc()
		c.setConn(conn)
		c.setState(StateConnected)

		err = c.readLoop(conn)
		c.setConn(nil)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}

		c.logger.Warn().Err(err).Msg("stream connection lost")
		c.setState(StateDisconnected)
		if !c.sleep(ctx) {
			return
		}
	}
}

// dial performs one handshake attempt with the current auth token
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, err
	}
	if c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
		}
	}

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	return conn, nil
}

// readLoop reads and dispatches frames until the connection fails
func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleFrame(data)
	}
}

// handleFrame decodes one frame and dispatches it. Decode failures and
// unknown topics are logged and dropped; they never end the session.
func (c *Client) handleFrame(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.StreamDroppedTotal.WithLabelValues("malformed").Inc()
		c.logger.Warn().Err(err).Msg("dropping malformed stream message")
		return
	}
	if !knownTopics[msg.Topic] {
		metrics.StreamDroppedTotal.WithLabelValues("unknown_type").Inc()
		c.logger.Debug().Str("type", string(msg.Topic)).Msg("ignoring unknown stream message type")
		return
	}
	msg.ReceivedAt = time.Now()
	metrics.StreamMessagesTotal.WithLabelValues(string(msg.Topic)).Inc()

	if msg.Topic == TopicWorkflowProgress {
		c.tracker.Apply(msg)
	}

	c.dispatch(msg)
}

// dispatch delivers msg to every matching subscriber, in registration order
// of the snapshot. Handlers run synchronously to preserve arrival order.
func (c *Client) dispatch(msg Message) {
	c.mu.RLock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		if sub.topic == msg.Topic && (sub.filter == nil || sub.filter(msg)) {
			subs = append(subs, sub)
		}
	}
	c.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(msg)
	}
}

// releaseSession frees the session slot held by the run owning done. The
// guard keeps it from clobbering a newer session after Disconnect already
// detached this one.
func (c *Client) releaseSession(done chan struct{}) {
	c.mu.Lock()
	if c.done == done {
		c.cancel = nil
		c.done = nil
	}
	c.mu.Unlock()
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// sleep waits the reconnect delay, returning false when ctx ends first
func (c *Client) sleep(ctx context.Context) bool {
	select {
	case <-time.After(c.opts.ReconnectDelay):
		return true
	case <-ctx.Done():
		return false
	}
}
