package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aydocorp/opscomposer/internal/signal"
	"github.com/aydocorp/opscomposer/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

const (
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
)

// Watcher relays mission notifications from the service onto a local bus so
// that list views drop deleted missions and refresh saved ones.
type Watcher struct {
	mu     sync.Mutex
	conn   *ws.Conn
	done   chan struct{}
	closed bool

	wsURL   string
	bus     *signal.Bus
	logger  *slog.Logger
	backoff time.Duration
	stopped chan struct{}
}

// WatchURL converts the service base URL into its notification socket URL.
func WatchURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid service URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Watch dials the notification socket and republishes every notice onto bus
// with Remote set. The connection is re-dialed with backoff when it drops.
func (c *Client) Watch(ctx context.Context, bus *signal.Bus, logger *slog.Logger) (*Watcher, error) {
	wsURL, err := WatchURL(c.baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		wsURL:   wsURL,
		bus:     bus,
		logger:  logger,
		backoff: time.Second,
	}

	conn, err := w.dial(ctx)
	if err != nil {
		return nil, err
	}
	w.conn = conn

	go w.run(conn)
	return w, nil
}

func (w *Watcher) dial(ctx context.Context) (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (w *Watcher) run(conn *ws.Conn) {
	defer close(w.stopped)
	for conn != nil {
		w.readLoop(conn)
		conn = w.reconnect()
	}
}

// readLoop returns when the connection fails or the watcher is closed.
func (w *Watcher) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
			default:
				w.logger.Warn("Notification socket read error", "error", err)
			}
			return
		}
		w.dispatch(message)
	}
}

func (w *Watcher) dispatch(message []byte) {
	var env streaming.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		w.logger.Debug("Non-envelope message received", "raw", string(message))
		return
	}

	ctx := context.Background()
	switch env.Type {
	case streaming.TypeMissionDeleted:
		var p streaming.MissionDeletedPayload
		if err := env.Decode(&p); err != nil {
			w.logger.Warn("Bad notification payload", "error", err)
			return
		}
		w.bus.MissionDeleted.Publish(ctx, signal.MissionDeleted{MissionID: p.MissionID, Remote: true})
	case streaming.TypeMissionSaved:
		var p streaming.MissionSavedPayload
		if err := env.Decode(&p); err != nil {
			w.logger.Warn("Bad notification payload", "error", err)
			return
		}
		w.bus.MissionSaved.Publish(ctx, signal.MissionSaved{Mission: p.Mission, Created: p.Created, Remote: true})
	case streaming.TypePing:
	default:
		w.logger.Debug("Unknown notification type", "type", env.Type)
	}
}

// reconnect re-dials with exponential backoff. It returns nil once the watcher
// is closed or the attempts are exhausted.
func (w *Watcher) reconnect() *ws.Conn {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.mu.Unlock()

	backoff := w.backoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-w.done:
			return nil
		case <-time.After(backoff):
		}

		w.logger.Info("Reconnecting notification socket", "attempt", attempt)
		conn, err := w.dial(context.Background())
		if err != nil {
			w.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		w.conn = conn
		w.mu.Unlock()
		return conn
	}

	w.logger.Error("Notification socket reconnect failed after max attempts", "maxAttempts", maxReconnect)
	return nil
}

// Close sends a close frame and waits for the read loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()

	var err error
	if conn != nil {
		_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
		err = conn.Close()
	}
	<-w.stopped
	return err
}
