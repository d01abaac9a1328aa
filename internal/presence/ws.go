package presence

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Subprotocol is the websocket subprotocol negotiated with game clients.
const Subprotocol = "xmpp"

// WSOptions configures the websocket endpoint.
type WSOptions struct {
	// MaxFrameBytes caps a single inbound text frame.
	MaxFrameBytes int64
	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// WSHandler upgrades HTTP requests to websocket streams and hands each
// connection to the hub for the rest of its life.
func WSHandler(hub *Hub, opts WSOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	upgrader := websocket.Upgrader{
		Subprotocols: []string{Subprotocol},
		// Game clients are native, not browsers; Origin carries no signal.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logger.InfoContext(r.Context(), "websocket upgrade failed", "error", err)
			return
		}
		if opts.MaxFrameBytes > 0 {
			c.SetReadLimit(opts.MaxFrameBytes)
		}
		hub.ServeConn(r.Context(), &wsConn{c: c, writeTimeout: opts.WriteTimeout})
	})
}

// wsConn adapts a gorilla websocket connection to the Conn interface.
type wsConn struct {
	c            *websocket.Conn
	writeTimeout time.Duration
}

func (w *wsConn) ReadFrame() (string, error) {
	for {
		msgType, data, err := w.c.ReadMessage()
		if err != nil {
			return "", err
		}
		switch msgType {
		case websocket.TextMessage:
			return string(data), nil
		case websocket.BinaryMessage:
			return "", errors.New("binary frames are not part of the protocol")
		default:
			// Control frames are handled by the library; skip anything else.
			continue
		}
	}
}

func (w *wsConn) WriteFrame(frame string) error {
	if w.writeTimeout > 0 {
		if err := w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return err
		}
	}
	return w.c.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (w *wsConn) Close() error {
	return w.c.Close()
}
