// Package domain holds the shared conversation types and the contracts for
// the external collaborators (retrieval, completion, extraction, notification)
// that the core invokes but does not implement.
package domain

import (
	"strings"
	"time"
)

// ChannelKind identifies which transport a session runs over.
type ChannelKind string

const (
	ChannelVoice ChannelKind = "voice"
	ChannelText  ChannelKind = "text"
)

// Speaker tags one side of a conversation.
type Speaker string

const (
	SpeakerUser  Speaker = "User"
	SpeakerAgent Speaker = "Agent"
)

// Turn is one complete utterance by either party within a session.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Line renders the turn in the canonical transcript form, e.g. "User: hello".
func (t Turn) Line() string {
	return string(t.Speaker) + ": " + t.Text
}

// Transcript is the ordered sequence of turns in a session.
type Transcript []Turn

// String joins the transcript lines with newlines.
func (tr Transcript) String() string {
	lines := make([]string, len(tr))
	for i, t := range tr {
		lines[i] = t.Line()
	}
	return strings.Join(lines, "\n")
}

// Empty reports whether the transcript has no turns.
func (tr Transcript) Empty() bool { return len(tr) == 0 }

// Session is one end-to-end conversational interaction, voice call or chat
// thread. Mutation is owned by the session lifecycle manager; nothing else
// writes to it.
type Session struct {
	ID           string      `json:"id"`
	Kind         ChannelKind `json:"kind"`
	StartedAt    time.Time   `json:"startedAt"`
	Active       bool        `json:"active"`
	Turns        int         `json:"turns"` // inbound user turns only
	Transcript   Transcript  `json:"transcript,omitempty"`
	LastResponse string      `json:"lastResponse,omitempty"`
	StreamSID    string      `json:"streamSid,omitempty"` // voice only
}

// Summary describes an ended session.
type Summary struct {
	Duration time.Duration `json:"duration"`
	Turns    int           `json:"turns"`
}
