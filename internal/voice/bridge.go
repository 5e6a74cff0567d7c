// Package voice bridges one phone call to the speech backend: it owns the
// per-call session, the backend connection, and the relay pair between them.
package voice

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/relay"
	"github.com/donnabot/donna/internal/session"
	"github.com/donnabot/donna/internal/speech"
	"github.com/donnabot/donna/internal/store"
)

// dialTimeout bounds how long call setup may wait on the speech backend.
const dialTimeout = 15 * time.Second

// Bridge handles incoming media stream connections. Each call gets its own
// session, backend connection and relay pair; calls run concurrently.
type Bridge struct {
	registry  *session.Registry
	archive   *store.TranscriptStore
	speechCfg speech.Config
	log       *logging.Logger
}

// NewBridge creates a bridge. archive may be nil to skip transcript
// archiving.
func NewBridge(registry *session.Registry, archive *store.TranscriptStore, speechCfg speech.Config, log *logging.Logger) *Bridge {
	return &Bridge{
		registry:  registry,
		archive:   archive,
		speechCfg: speechCfg,
		log:       log.Sub("voice"),
	}
}

// Handle runs one call to completion: register a session, dial the backend,
// relay until either side hangs up, then end the session (which flushes the
// transcript to the appointment notifier). The websocket is always closed
// on return.
func (b *Bridge) Handle(ctx context.Context, ws *websocket.Conn) error {
	id := b.registry.Create()
	log := b.log.Sub("call")
	tel := relay.NewWSConn(ws, log)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	backend, err := speech.Dial(dialCtx, b.speechCfg, log)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("speech backend unavailable")
		tel.Close()
		b.teardown(ctx, id)
		return err
	}

	link := relay.NewLink(func(speaker domain.Speaker, text string) {
		if err := b.registry.RecordTurn(id, speaker, text); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("dropping turn for ended session")
		}
	})

	runErr := relay.Run(ctx, tel, backend, link, log)
	if sid := link.StreamSID(); sid != "" {
		b.registry.SetStreamSID(id, sid)
	}
	b.teardown(ctx, id)
	return runErr
}

// teardown archives the call transcript and ends the session. Ending the
// session hands the transcript to the notifier; archive failures must not
// get in the way of that.
func (b *Bridge) teardown(ctx context.Context, id string) {
	if b.archive != nil {
		if sess, ok := b.registry.Snapshot(id); ok && !sess.Transcript.Empty() {
			_, err := b.archive.Save(store.TranscriptRecord{
				ID:         sess.ID,
				Kind:       domain.ChannelVoice,
				StartedAt:  sess.StartedAt,
				EndedAt:    time.Now(),
				Turns:      sess.Turns,
				Transcript: sess.Transcript.String(),
			})
			if err != nil {
				b.log.Error().Err(err).Str("session_id", id).Msg("transcript archive failed")
			}
		}
	}
	if _, err := b.registry.End(ctx, id); err != nil {
		b.log.Warn().Err(err).Str("session_id", id).Msg("session already ended")
	}
}
