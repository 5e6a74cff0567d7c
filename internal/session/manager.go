// Package session owns conversational session lifecycle: the single-slot
// text session with its inactivity timeout, and the registry of concurrent
// voice call sessions. Both flush their transcript to the appointment
// notifier exactly once, when the session ends.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
)

// Manager is the single-slot session store for the text channel. One shared
// inbound number services one logical conversation at a time, so at most one
// session is active. All methods are safe for concurrent use.
type Manager struct {
	log      *logging.Logger
	notifier domain.Notifier
	now      func() time.Time
	onEnd    func(startedAt time.Time, summary domain.Summary, transcript domain.Transcript)

	mu           sync.Mutex
	active       bool
	startedAt    time.Time
	turns        int
	transcript   domain.Transcript
	lastResponse string

	timer    *time.Timer
	timerGen uint64 // bumped on every cancel, checked when a timer fires
}

// NewManager creates an empty manager. notifier may be nil when no
// appointment handoff is configured.
func NewManager(notifier domain.Notifier, log *logging.Logger) *Manager {
	return &Manager{
		log:      log.Sub("session"),
		notifier: notifier,
		now:      time.Now,
	}
}

// OnEnd registers a hook that observes every ended session (explicit end or
// timeout, never Cleanup) before the notifier runs. Used for archiving.
// Must be set before the manager is shared.
func (m *Manager) OnEnd(fn func(startedAt time.Time, summary domain.Summary, transcript domain.Transcript)) {
	m.onEnd = fn
}

// CreateOrRenew ensures an active session exists. It returns true when a new
// session was created and false when an existing one was renewed. Either way
// any pending timeout is cancelled before the caller gets control back, so a
// stale timer can never end the renewed session.
func (m *Manager) CreateOrRenew() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelTimerLocked()

	if m.active {
		m.log.Debug().Msg("session renewed")
		return false
	}
	m.active = true
	m.startedAt = m.now()
	m.turns = 0
	m.transcript = nil
	m.log.Info().Msg("session created")
	return true
}

// RecordTurn appends one utterance to the transcript. User turns count
// toward the exchanged-message total.
func (m *Manager) RecordTurn(speaker domain.Speaker, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.transcript = append(m.transcript, domain.Turn{Speaker: speaker, Text: text, At: m.now()})
	if speaker == domain.SpeakerUser {
		m.turns++
	}
}

// SetLastResponse caches the most recent outbound payload.
func (m *Manager) SetLastResponse(text string) {
	m.mu.Lock()
	m.lastResponse = text
	m.mu.Unlock()
}

// LastResponse returns the cached outbound payload, empty if none.
func (m *Manager) LastResponse() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastResponse
}

// Active reports whether a session is live.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Info returns a point-in-time view of the active session. ok is false when
// none is active.
func (m *Manager) Info() (domain.Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return domain.Summary{}, false
	}
	return domain.Summary{Duration: m.now().Sub(m.startedAt), Turns: m.turns}, true
}

// ArmTimeout schedules the session to end after idle with no renewal. When
// the timer fires it ends the session and passes the summary to onTimeout.
// Arming replaces any previously armed timeout.
func (m *Manager) ArmTimeout(idle time.Duration, onTimeout func(domain.Summary)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}

	m.cancelTimerLocked()
	gen := m.timerGen
	m.timer = time.AfterFunc(idle, func() {
		m.fireTimeout(gen, onTimeout)
	})
}

func (m *Manager) fireTimeout(gen uint64, onTimeout func(domain.Summary)) {
	m.mu.Lock()
	if gen != m.timerGen || !m.active {
		// Cancelled between firing and acquiring the lock.
		m.mu.Unlock()
		return
	}
	startedAt := m.startedAt
	summary, transcript := m.endLocked()
	m.mu.Unlock()

	m.log.Info().Dur("duration", summary.Duration).Int("turns", summary.Turns).
		Msg("session timed out")
	if m.onEnd != nil {
		m.onEnd(startedAt, summary, transcript)
	}
	m.notify(transcript)
	if onTimeout != nil {
		onTimeout(summary)
	}
}

// EndSession ends the active session: cancels its timeout, computes the
// summary, and hands a non-empty transcript to the notifier. The second of
// two consecutive calls is a no-op returning ok=false.
func (m *Manager) EndSession() (domain.Summary, bool) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return domain.Summary{}, false
	}
	startedAt := m.startedAt
	summary, transcript := m.endLocked()
	m.mu.Unlock()

	m.log.Info().Dur("duration", summary.Duration).Int("turns", summary.Turns).
		Msg("session ended")
	if m.onEnd != nil {
		m.onEnd(startedAt, summary, transcript)
	}
	m.notify(transcript)
	return summary, true
}

// endLocked tears down session state and returns the summary plus the
// transcript to flush. Caller holds the lock.
func (m *Manager) endLocked() (domain.Summary, domain.Transcript) {
	m.cancelTimerLocked()
	summary := domain.Summary{Duration: m.now().Sub(m.startedAt), Turns: m.turns}
	transcript := m.transcript
	m.active = false
	m.turns = 0
	m.transcript = nil
	m.lastResponse = ""
	return summary, transcript
}

// Cleanup is the shutdown teardown: cancel any timer and drop state without
// notifying. Transcripts at shutdown are either already flushed or moot.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.active = false
	m.turns = 0
	m.transcript = nil
	m.lastResponse = ""
	m.log.Info().Msg("session state cleared")
}

func (m *Manager) cancelTimerLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// notify flushes a non-empty transcript to the notifier. Failures are
// logged, never retried.
func (m *Manager) notify(transcript domain.Transcript) {
	if m.notifier == nil || transcript.Empty() {
		return
	}
	if err := m.notifier.Notify(context.Background(), transcript.String()); err != nil {
		m.log.Error().Err(err).Msg("transcript handoff failed")
	}
}
