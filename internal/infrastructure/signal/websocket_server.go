// Package signal pushes session-state changes to connected views over websockets.
package signal

import (
	"net/http"
	"sync"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MessageSession = "session"
	MessageError   = "error"

	// RequestSnapshot asks the server to resend the current session.
	RequestSnapshot = "snapshot"

	sendBuffer = 8
)

// SessionView is the public projection of a snapshot. It never carries the credential.
type SessionView struct {
	State       string     `json:"state"`
	IdentityID  string     `json:"identity_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Email       string     `json:"email,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func NewSessionView(snap domain.SessionSnapshot) *SessionView {
	view := &SessionView{State: snap.State.String()}
	if snap.Authenticated() {
		s := snap.Session
		view.IdentityID = s.IdentityID
		view.DisplayName = s.DisplayName
		view.AvatarURL = s.AvatarURL
		view.Email = s.Email
		if !s.ExpiresAt.IsZero() {
			exp := s.ExpiresAt
			view.ExpiresAt = &exp
		}
	}
	return view
}

type FeedMessage struct {
	Type    string       `json:"type"`
	Session *SessionView `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type clientMessage struct {
	Type string `json:"type"`
}

type client struct {
	conn      *websocket.Conn
	send      chan FeedMessage
	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketServer serves /events. Every connection receives the current
// session on connect and again after each transition.
type WebSocketServer struct {
	store    ports.SessionStore
	upgrader websocket.Upgrader

	clients map[*client]struct{}
	mu      sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	unsubscribe func()
	logger      *zap.SugaredLogger
}

func NewWebSocketServer(store ports.SessionStore, logger *zap.SugaredLogger) *WebSocketServer {
	s := &WebSocketServer{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:      make(map[*client]struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
	s.unsubscribe = store.Subscribe(func(_, next domain.SessionSnapshot) {
		s.Broadcast(next)
	})
	return s
}

func (s *WebSocketServer) SetPingInterval(interval time.Duration) {
	if interval > 0 {
		s.pingInterval = interval
	}
}

func (s *WebSocketServer) SetPongTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.pongTimeout = timeout
	}
}

// SetCheckOrigin restricts which origins may open the feed. The gorilla default
// only allows same-host origins.
func (s *WebSocketServer) SetCheckOrigin(fn func(r *http.Request) bool) {
	s.upgrader.CheckOrigin = fn
}

func (s *WebSocketServer) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast queues snap for every client. A client whose buffer is full is disconnected.
func (s *WebSocketServer) Broadcast(snap domain.SessionSnapshot) {
	msg := FeedMessage{Type: MessageSession, Session: NewSessionView(snap)}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warnw("dropping slow session feed client")
			c.close()
		}
	}
}

// Close stops listening to the store and disconnects everyone.
func (s *WebSocketServer) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{
		conn: conn,
		send: make(chan FeedMessage, sendBuffer),
		done: make(chan struct{}),
	}
	// Registering and queueing the first snapshot under the lock keeps a
	// concurrent broadcast from being overtaken by an older snapshot.
	s.mu.Lock()
	s.clients[c] = struct{}{}
	c.send <- FeedMessage{Type: MessageSession, Session: NewSessionView(s.store.Snapshot())}
	s.mu.Unlock()
	s.logger.Debugw("session feed client connected", "remote_addr", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.close()
		s.logger.Debugw("session feed client disconnected", "remote_addr", r.RemoteAddr)
	}()

	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	})

	requests := make(chan clientMessage, 4)
	go func() {
		defer c.close()
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debugw("session feed read failed", "error", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
			select {
			case requests <- msg:
			case <-c.done:
				return
			}
		}
	}()

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := s.write(conn, msg); err != nil {
				return
			}

		case req := <-requests:
			reply := FeedMessage{Type: MessageSession, Session: NewSessionView(s.store.Snapshot())}
			if req.Type != RequestSnapshot {
				reply = FeedMessage{Type: MessageError, Error: "unknown message type: " + req.Type}
			}
			if err := s.write(conn, reply); err != nil {
				return
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *WebSocketServer) write(conn *websocket.Conn, msg FeedMessage) error {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debugw("session feed write failed", "error", err)
		return err
	}
	return nil
}
