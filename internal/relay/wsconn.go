package relay

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/telephony"
)

// WSConn adapts a websocket connection to the Telephony interface. Reads
// skip frames that fail to parse; writes are serialized.
type WSConn struct {
	ws  *websocket.Conn
	log *logging.Logger

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps an upgraded media stream socket.
func NewWSConn(ws *websocket.Conn, log *logging.Logger) *WSConn {
	return &WSConn{ws: ws, log: log}
}

// ReadFrame returns the next parseable frame, dropping malformed ones.
func (c *WSConn) ReadFrame() (telephony.Frame, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return telephony.Frame{}, err
		}
		frame, err := telephony.ParseFrame(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed media frame")
			continue
		}
		return frame, nil
	}
}

// WriteFrame sends one frame to the caller.
func (c *WSConn) WriteFrame(f telephony.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the socket down. Safe to call more than once.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
