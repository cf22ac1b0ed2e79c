package remote

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kingrea/deckhand/internal/presenter"
)

const (
	frameState  = "state"
	frameResult = "result"
	frameNext   = "next"
	framePrev   = "previous"
	frameReset  = "reset"
	frameJump   = "jump"
)

// frame is the websocket envelope in both directions. Clients send
// {"type":"next"}, {"type":"previous"}, {"type":"reset"} or
// {"type":"jump","id":"02-tools"}; the server pushes {"type":"state"} after
// every presenter change and a {"type":"result"} reply per command.
type frame struct {
	Type   string              `json:"type"`
	ID     string              `json:"id,omitempty"`
	Result string              `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
	State  *presenter.Snapshot `json:"state,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Remotes are phones on the presenter's network; the listener is
	// loopback unless the host is configured otherwise.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	send chan frame
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn, buffer int) *wsClient {
	return &wsClient{conn: conn, send: make(chan frame, buffer), done: make(chan struct{})}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue never blocks; a slow client misses intermediate frames.
func (c *wsClient) enqueue(f frame) bool {
	select {
	case <-c.done:
		return false
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *wsClient) writeLoop(settings Settings) {
	ticker := time.NewTicker(settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(settings.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

type hub struct {
	settings Settings
	logger   Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub(settings Settings, logger Logger) *hub {
	return &hub{settings: settings, logger: logger, clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(snap presenter.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(frame{Type: frameState, State: &snap}) {
			h.logger.Warn("remote: dropped state frame for slow client")
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("remote: websocket upgrade failed: %v", err)
		return
	}
	c := newWSClient(conn, s.settings.SendBuffer)
	s.hub.add(c)
	defer s.hub.remove(c)
	s.logger.Info("Remote client connected from %s", r.RemoteAddr)

	snap := s.deck.Snapshot()
	c.enqueue(frame{Type: frameState, State: &snap})
	go c.writeLoop(s.settings)

	readWait := 2 * s.settings.PingInterval
	conn.SetReadLimit(s.settings.MaxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		var in frame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("remote: websocket read: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		c.enqueue(s.dispatch(in))
	}
}

func (s *Server) dispatch(in frame) frame {
	out := frame{Type: frameResult}
	switch in.Type {
	case frameNext:
		result, err := s.deck.Next()
		out.Result = result.String()
		if err != nil {
			out.Error = err.Error()
		}
	case framePrev:
		result, err := s.deck.Previous()
		out.Result = result.String()
		if err != nil {
			out.Error = err.Error()
		}
	case frameReset:
		s.deck.ResetSession()
		out.Result = "reset"
	case frameJump:
		if _, err := s.deck.Jump(in.ID); err != nil {
			out.Result = "error"
			out.Error = err.Error()
		} else {
			out.Result = "jumped"
		}
	default:
		out.Result = "error"
		out.Error = "unknown frame type " + in.Type
	}
	return out
}
