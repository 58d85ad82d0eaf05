package control

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	helloTimeout = 5 * time.Second
	maxFrameSize = 4096
)

// SessionEvents receives hub callbacks. Implementations must not block
// and must be safe for concurrent use: SessionNavigated is also invoked
// from beacon handler goroutines, not just the hub loop.
type SessionEvents interface {
	SessionOpened(id string, pid int)
	SessionNavigated(id, url string)
	SessionClosed(id string)
}

// Hub owns the connected window sessions: register/unregister channels,
// a per-connection write pump, and a broadcast fan-out.
type Hub struct {
	issuer  *TokenIssuer
	events  SessionEvents
	welcome func() Frame
	log     zerolog.Logger

	upgrader    websocket.Upgrader
	register    chan *session
	unregister  chan *session
	broadcast   chan Frame
	done        chan struct{}
	onNewWindow func()

	// sessions is touched only by the run loop.
	sessions map[string]*session
}

type session struct {
	id   string
	pid  int
	conn *websocket.Conn
	send chan []byte
}

// NewHub builds a hub. welcome, when non-nil, produces the snapshot frame
// sent to every session right after registration.
func NewHub(issuer *TokenIssuer, events SessionEvents, welcome func() Frame, log zerolog.Logger) *Hub {
	return &Hub{
		issuer:  issuer,
		events:  events,
		welcome: welcome,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *session),
		unregister: make(chan *session),
		broadcast:  make(chan Frame, 8),
		done:       make(chan struct{}),
		sessions:   make(map[string]*session),
	}
}

func (h *Hub) run() {
	for {
		select {
		case sess := <-h.register:
			h.sessions[sess.id] = sess
			h.log.Info().Str("session", sess.id).Int("pid", sess.pid).Msg("Window session connected")
			h.events.SessionOpened(sess.id, sess.pid)
			if h.welcome != nil {
				if data, err := h.welcome().Encode(); err == nil {
					sess.send <- data
				}
			}
		case sess := <-h.unregister:
			if _, ok := h.sessions[sess.id]; ok {
				delete(h.sessions, sess.id)
				close(sess.send)
				h.log.Info().Str("session", sess.id).Msg("Window session disconnected")
				h.events.SessionClosed(sess.id)
			}
		case frame := <-h.broadcast:
			data, err := frame.Encode()
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to encode broadcast frame")
				continue
			}
			for id, sess := range h.sessions {
				select {
				case sess.send <- data:
				default:
					delete(h.sessions, id)
					close(sess.send)
					h.events.SessionClosed(id)
				}
			}
		case <-h.done:
			for id, sess := range h.sessions {
				delete(h.sessions, id)
				close(sess.send)
			}
			return
		}
	}
}

// HandleWebSocket authenticates and upgrades one window connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authorize(r)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected control connection")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Control upgrade failed")
		return
	}

	// The first frame must be a hello; it carries the window's pid.
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	frame, err := DecodeFrame(data)
	if err != nil || frame.Type != FrameHello {
		h.log.Warn().Str("session", claims.SessionID).Msg("Control connection did not say hello")
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	sess := &session{
		id:   claims.SessionID,
		pid:  frame.PID,
		conn: conn,
		send: make(chan []byte, 8),
	}
	select {
	case h.register <- sess:
	case <-h.done:
		conn.Close()
		return
	}
	go sess.writePump()
	go sess.readPump(h)
}

func (h *Hub) authorize(r *http.Request) (*Claims, error) {
	token := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	return h.issuer.Validate(token)
}

func (sess *session) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- sess:
		case <-h.done:
		}
		sess.conn.Close()
	}()
	sess.conn.SetReadLimit(maxFrameSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := DecodeFrame(data)
		if err != nil {
			h.log.Warn().Err(err).Str("session", sess.id).Msg("Dropping bad control frame")
			continue
		}
		switch frame.Type {
		case FrameNavigated:
			h.events.SessionNavigated(sess.id, frame.URL)
		case FrameNewWindow:
			if h.onNewWindow != nil {
				h.onNewWindow()
			}
		}
	}
}

func (sess *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()
	for {
		select {
		case data, ok := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Server runs the hub behind a loopback HTTP listener on an ephemeral
// port. The primary process starts one; attached windows dial its /ws
// endpoint, and the injected page hooks hit /open and /navigated with
// fire-and-forget requests, which is all a cross-origin page can send.
type Server struct {
	hub      *Hub
	http     *http.Server
	listener net.Listener
	log      zerolog.Logger
	stopOnce sync.Once

	// Opener, when set, receives URLs the pages ask to open externally.
	// Set before Start.
	Opener func(url string) error
	// OnNewWindow, when set, handles new-window requests from attached
	// windows. Set before Start.
	OnNewWindow func()
}

// NewServer builds the control server. See NewHub for the parameters.
func NewServer(issuer *TokenIssuer, events SessionEvents, welcome func() Frame, log zerolog.Logger) *Server {
	return &Server{
		hub: NewHub(issuer, events, welcome, log),
		log: log,
	}
}

// Start listens on a loopback ephemeral port and serves the hub.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	s.listener = listener
	s.hub.onNewWindow = s.OnNewWindow

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	mux.HandleFunc("/open", s.handleOpen)
	mux.HandleFunc("/navigated", s.handleNavigated)
	s.http = &http.Server{Handler: mux}

	go s.hub.run()
	go func() {
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("Control server error")
		}
	}()

	s.log.Info().Str("addr", s.Addr()).Msg("Control channel listening")
	return nil
}

// Addr returns the listener address attached windows should dial.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// beaconClaims authenticates a page beacon. Beacons are sent with no-cors
// fetches that cannot carry headers, so only the query token counts.
func (s *Server) beaconClaims(w http.ResponseWriter, r *http.Request) *Claims {
	claims, err := s.hub.issuer.Validate(r.URL.Query().Get("token"))
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected page beacon")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}
	return claims
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	claims := s.beaconClaims(w, r)
	if claims == nil {
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" || s.Opener == nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.log.Info().Str("session", claims.SessionID).Str("url", url).Msg("Opening external link")
	if err := s.Opener(url); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("Failed to open external link")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNavigated(w http.ResponseWriter, r *http.Request) {
	claims := s.beaconClaims(w, r)
	if claims == nil {
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.hub.events.SessionNavigated(claims.SessionID, url)
	w.WriteHeader(http.StatusNoContent)
}

// Broadcast queues a frame for every connected session.
func (s *Server) Broadcast(frame Frame) {
	select {
	case s.hub.broadcast <- frame:
	case <-s.hub.done:
	}
}

// Stop closes the hub and the listener. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.hub.done)
		if s.http != nil {
			err = s.http.Shutdown(ctx)
		}
	})
	return err
}
