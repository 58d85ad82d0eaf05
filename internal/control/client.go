package control

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ClientOptions configures the attached-window side of the channel.
type ClientOptions struct {
	// Addr is the hub address from KOLIBRI_CONTROL_ADDR.
	Addr string
	// Token is the session token from KOLIBRI_CONTROL_TOKEN.
	Token string
	// SessionID identifies this window.
	SessionID string
	// PID of this process, reported in the hello frame.
	PID int
	// OnWelcome receives the view-state snapshot after registration.
	OnWelcome func(Frame)
	// OnShutdown fires when the hub broadcasts shutdown or the
	// connection to the primary process is lost.
	OnShutdown func()
	Log        zerolog.Logger
}

// Client is an attached window's connection to the primary process.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	opts      ClientOptions

	writeMu sync.Mutex
}

// Dial connects to the hub, authenticates, and sends the hello frame.
func Dial(opts ClientOptions) (*Client, error) {
	endpoint := url.URL{Scheme: "ws", Host: opts.Addr, Path: "/ws"}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+opts.Token)

	conn, resp, err := websocket.DefaultDialer.Dial(endpoint.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("control dial %s: %w (status %d)", opts.Addr, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("control dial %s: %w", opts.Addr, err)
	}

	c := &Client{conn: conn, sessionID: opts.SessionID, opts: opts}
	if err := c.write(Frame{Type: FrameHello, SessionID: opts.SessionID, PID: opts.PID}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("control hello: %w", err)
	}
	go c.readLoop()
	return c, nil
}

// Navigated reports this window's new URL to the primary process.
func (c *Client) Navigated(pageURL string) error {
	return c.write(Frame{Type: FrameNavigated, SessionID: c.sessionID, URL: pageURL})
}

// NewWindow asks the primary process to open another window.
func (c *Client) NewWindow() error {
	return c.write(Frame{Type: FrameNewWindow, SessionID: c.sessionID})
}

// Close tears the connection down. The hub treats it as the window closing.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

func (c *Client) write(frame Frame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop handles hub frames. Losing the connection means the primary
// process is gone, so the window must close with it.
func (c *Client) readLoop() {
	defer c.conn.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.opts.Log.Info().Err(err).Msg("Control connection closed")
			if c.opts.OnShutdown != nil {
				c.opts.OnShutdown()
			}
			return
		}
		frame, err := DecodeFrame(data)
		if err != nil {
			c.opts.Log.Warn().Err(err).Msg("Dropping bad control frame")
			continue
		}
		switch frame.Type {
		case FrameWelcome:
			if c.opts.OnWelcome != nil {
				c.opts.OnWelcome(frame)
			}
		case FrameShutdown:
			c.opts.Log.Info().Msg("Primary window requested shutdown")
			if c.opts.OnShutdown != nil {
				c.opts.OnShutdown()
			}
			return
		}
	}
}
