// Package speech owns the connection to the realtime speech backend: the
// configuration handshake, the event stream, and the classification of
// backend events into the few kinds that mutate session state.
package speech

import "encoding/json"

// EventKind classifies a backend event.
type EventKind int

const (
	// KindIgnored covers every event type that does not mutate state.
	KindIgnored EventKind = iota

	// KindSessionAck is the backend acknowledging session create/update.
	KindSessionAck

	// KindUserTranscript is a completed transcription of caller speech.
	KindUserTranscript

	// KindAgentDone is a completed agent response turn.
	KindAgentDone

	// KindAudioDelta is a chunk of synthesized agent audio.
	KindAudioDelta
)

// Event is one classified message from the speech backend.
type Event struct {
	Kind EventKind
	Type string // raw backend type tag

	// Transcript holds the user or agent text for transcript-bearing kinds.
	Transcript string

	// Audio holds the base64 audio payload for KindAudioDelta.
	Audio string
}

// agentFallback is appended when a completed response carries no transcript.
const agentFallback = "Agent message not found"

type serverEvent struct {
	Type       string        `json:"type"`
	Transcript string        `json:"transcript"`
	Delta      string        `json:"delta"`
	Response   *responseBody `json:"response"`
}

type responseBody struct {
	Status string       `json:"status"`
	Output []outputItem `json:"output"`
}

type outputItem struct {
	Content []map[string]any `json:"content"`
}

// ParseEvent classifies a raw backend message. Unknown types come back as
// KindIgnored with the raw type tag preserved for logging; a JSON error is
// the only failure.
func ParseEvent(data []byte) (Event, error) {
	var ev serverEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}

	switch ev.Type {
	case "session.created", "session.updated":
		return Event{Kind: KindSessionAck, Type: ev.Type}, nil

	case "conversation.item.input_audio_transcription.completed":
		return Event{Kind: KindUserTranscript, Type: ev.Type, Transcript: ev.Transcript}, nil

	case "response.done":
		if ev.Response == nil || ev.Response.Status != "completed" {
			return Event{Kind: KindIgnored, Type: ev.Type}, nil
		}
		return Event{Kind: KindAgentDone, Type: ev.Type, Transcript: agentTranscript(ev.Response)}, nil

	case "response.audio.delta":
		if ev.Delta == "" {
			return Event{Kind: KindIgnored, Type: ev.Type}, nil
		}
		return Event{Kind: KindAudioDelta, Type: ev.Type, Audio: ev.Delta}, nil

	default:
		return Event{Kind: KindIgnored, Type: ev.Type}, nil
	}
}

// agentTranscript returns the first content item of the first output that
// carries a transcript field. First match wins; the fallback placeholder is
// returned if none is found.
func agentTranscript(resp *responseBody) string {
	if len(resp.Output) == 0 {
		return agentFallback
	}
	for _, item := range resp.Output[0].Content {
		if v, ok := item["transcript"]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return agentFallback
}
