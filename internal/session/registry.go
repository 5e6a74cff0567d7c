package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
)

// ErrNotFound is returned when a registry operation names an unknown session.
var ErrNotFound = errors.New("session: not found")

// Registry tracks concurrent voice call sessions, one per live call, keyed
// by a generated identifier.
type Registry struct {
	log      *logging.Logger
	notifier domain.Notifier
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// NewRegistry creates an empty voice session registry.
func NewRegistry(notifier domain.Notifier, log *logging.Logger) *Registry {
	return &Registry{
		log:      log.Sub("session"),
		notifier: notifier,
		now:      time.Now,
		sessions: make(map[string]*domain.Session),
	}
}

// Create registers a new voice session and returns its identifier.
func (r *Registry) Create() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &domain.Session{
		ID:        id,
		Kind:      domain.ChannelVoice,
		StartedAt: r.now(),
		Active:    true,
	}
	r.mu.Unlock()
	r.log.Info().Str("session_id", id).Msg("call session created")
	return id
}

// RecordTurn appends one utterance to a session's transcript.
func (r *Registry) RecordTurn(id string, speaker domain.Speaker, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Transcript = append(sess.Transcript, domain.Turn{Speaker: speaker, Text: text, At: r.now()})
	if speaker == domain.SpeakerUser {
		sess.Turns++
	}
	return nil
}

// SetStreamSID records the media stream identifier on a session.
func (r *Registry) SetStreamSID(id, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.StreamSID = sid
	return nil
}

// Snapshot returns a copy of a live session.
func (r *Registry) Snapshot(id string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	out := *sess
	out.Transcript = append(domain.Transcript(nil), sess.Transcript...)
	return out, true
}

// Len reports the number of live call sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// End removes the session and flushes a non-empty transcript to the
// notifier. At most one flush happens per session: a second End for the
// same id returns ErrNotFound and sends nothing.
func (r *Registry) End(ctx context.Context, id string) (domain.Summary, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return domain.Summary{}, ErrNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	summary := domain.Summary{Duration: r.now().Sub(sess.StartedAt), Turns: sess.Turns}
	r.log.Info().Str("session_id", id).Dur("duration", summary.Duration).
		Int("turns", summary.Turns).Msg("call session ended")

	if r.notifier != nil && !sess.Transcript.Empty() {
		if err := r.notifier.Notify(ctx, sess.Transcript.String()); err != nil {
			r.log.Error().Err(err).Str("session_id", id).Msg("transcript handoff failed")
		}
	}
	return summary, nil
}
