package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/donnabot/donna/internal/logging"
)

// State tracks the connection lifecycle.
type State int

const (
	StateConnecting State = iota
	StateConfigured
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ErrClosed is returned when the connection has been torn down.
var ErrClosed = errors.New("speech: connection closed")

// Config carries everything needed to dial and configure a backend session.
type Config struct {
	URL                string
	APIKey             string
	Voice              string
	Instructions       string
	Temperature        float64
	TranscriptionModel string
}

// Conn is one realtime session with the speech backend. Writes are
// serialized; reads happen from a single goroutine (the outbound pump).
type Conn struct {
	ws  *websocket.Conn
	log *logging.Logger

	writeMu sync.Mutex

	stateMu sync.Mutex
	state   State
}

// Dial connects to the backend and performs the configuration handshake.
// A handshake failure is fatal: no session is returned and the socket is
// closed.
func Dial(ctx context.Context, cfg Config, log *logging.Logger) (*Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("speech: dial %s: %w (status %d)", cfg.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("speech: dial %s: %w", cfg.URL, err)
	}

	c := &Conn{ws: ws, log: log.Sub("speech"), state: StateConnecting}
	if err := c.configure(cfg); err != nil {
		ws.Close()
		c.setState(StateClosed)
		return nil, err
	}
	c.setState(StateConfigured)
	c.log.Debug().Str("voice", cfg.Voice).Msg("session configured")
	return c, nil
}

// configure sends the session.update handshake that shapes the whole
// session: server-side turn detection, telephony-rate audio in both
// directions, and speech transcription of caller audio.
func (c *Conn) configure(cfg Config) error {
	update := map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"turn_detection":      map[string]any{"type": "server_vad"},
			"input_audio_format":  "g711_ulaw",
			"output_audio_format": "g711_ulaw",
			"voice":               cfg.Voice,
			"instructions":        cfg.Instructions,
			"modalities":          []string{"text", "audio"},
			"temperature":         cfg.Temperature,
			"input_audio_transcription": map[string]any{
				"model": cfg.TranscriptionModel,
			},
		},
	}
	if err := c.writeJSON(update); err != nil {
		return fmt.Errorf("speech: session.update: %w", err)
	}
	return nil
}

// AppendAudio forwards one base64 audio payload into the backend's input
// buffer. The payload goes through verbatim; turn boundaries are the
// backend's job.
func (c *Conn) AppendAudio(payload string) error {
	return c.writeJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	})
}

// ReadEvent blocks for the next classified backend event. Malformed frames
// are logged and skipped rather than surfaced; only a transport failure
// returns an error, after which the connection is closed.
func (c *Conn) ReadEvent() (Event, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.setState(StateClosed)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return Event{}, ErrClosed
			}
			return Event{}, fmt.Errorf("speech: read: %w", err)
		}

		ev, err := ParseEvent(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed backend event")
			continue
		}

		c.stateMu.Lock()
		if c.state == StateConfigured {
			c.state = StateActive
		}
		c.stateMu.Unlock()

		if ev.Kind == KindIgnored {
			c.log.Debug().Str("type", ev.Type).Msg("ignoring backend event")
			continue
		}
		return ev, nil
	}
}

func (c *Conn) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// State reports the current lifecycle state.
func (c *Conn) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Close tears down the socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return nil
	}
	c.state = StateClosed
	c.stateMu.Unlock()

	c.writeMu.Lock()
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.State() == StateClosed {
		return ErrClosed
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
