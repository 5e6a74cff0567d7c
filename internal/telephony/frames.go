// Package telephony speaks the provider side of a call: TwiML documents for
// webhook replies and the JSON frame protocol of the media stream socket.
package telephony

import (
	"encoding/json"
	"fmt"
)

// Media stream frame events.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
	EventMark      = "mark"
)

// Frame is one message on the media stream socket, inbound or outbound.
// Only the fields for the frame's event are populated.
type Frame struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *StartMeta    `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Mark      *MarkMeta     `json:"mark,omitempty"`
}

// StartMeta arrives on the first frame of a stream and names it.
type StartMeta struct {
	StreamSID string `json:"streamSid"`
	CallSID   string `json:"callSid"`
}

// MediaPayload carries base64 mu-law audio.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// MarkMeta labels a mark frame.
type MarkMeta struct {
	Name string `json:"name"`
}

// ParseFrame decodes one inbound frame.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("telephony: parse frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("telephony: frame missing event field")
	}
	return f, nil
}

// MediaFrame builds an outbound media frame carrying agent audio back to the
// caller. The stream SID must be the one announced by the start frame.
func MediaFrame(streamSID, payload string) Frame {
	return Frame{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     &MediaPayload{Payload: payload},
	}
}

// Encode serializes a frame for the wire.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
