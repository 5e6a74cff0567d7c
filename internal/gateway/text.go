package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/store"
	"github.com/donnabot/donna/internal/telephony"
)

// genericError is all a text-channel caller ever sees of a fault; detail
// stays in the logs.
const genericError = "An error occurred"

// handleWhatsApp is the inbound text webhook: renew or create the session,
// answer with retrieval-augmented chat, re-arm the inactivity timeout, and
// reply with TwiML.
func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	if s.manager == nil || s.responder == nil {
		http.Error(w, genericError, http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.log.Error().Err(err).Msg("parsing whatsapp webhook form")
		http.Error(w, genericError, http.StatusInternalServerError)
		return
	}
	body := strings.TrimSpace(r.FormValue("Body"))
	from := r.FormValue("From")

	isNew := s.manager.CreateOrRenew()
	s.manager.RecordTurn(domain.SpeakerUser, body)

	answer, err := s.responder.Chat(r.Context(), body)
	if err != nil {
		s.log.Error().Err(err).Msg("generating whatsapp reply")
		http.Error(w, genericError, http.StatusInternalServerError)
		return
	}
	s.manager.RecordTurn(domain.SpeakerAgent, answer)

	idleSeconds := s.cfg.Session.IdleSeconds
	var full strings.Builder
	if isNew {
		full.WriteString("🆕 New session started!\n")
	}
	full.WriteString(answer)
	fmt.Fprintf(&full, "\n\n⏳ Session will timeout after %d seconds of inactivity", idleSeconds)
	reply := full.String()
	s.manager.SetLastResponse(reply)

	s.manager.ArmTimeout(time.Duration(idleSeconds)*time.Second, func(summary domain.Summary) {
		s.sendTimeoutNotice(from, summary)
	})

	twiml, err := telephony.MessagingResponse(reply)
	if err != nil {
		s.log.Error().Err(err).Msg("rendering messaging response")
		http.Error(w, genericError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(twiml))
}

// sendTimeoutNotice tells the user their session expired. The notice also
// joins the responder history so a follow-up message has context.
func (s *Server) sendTimeoutNotice(to string, summary domain.Summary) {
	msg := fmt.Sprintf("⏰ Session timed out due to inactivity.\n%s\n\nSend a new message to start a fresh session!",
		summaryText(summary))

	if s.responder != nil {
		s.responder.RecordOutbound(msg)
	}
	if s.sender == nil || to == "" {
		s.log.Info().Str("message", msg).Msg("timeout notice (no outbound sender)")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.sender.Send(ctx, to, msg); err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("sending timeout notice")
	}
}

// summaryText renders a session summary for the user.
func summaryText(summary domain.Summary) string {
	return fmt.Sprintf("🔚 Session ended\nDuration: %d seconds\nMessages exchanged: %d",
		int(summary.Duration.Seconds()), summary.Turns)
}

// handleBroadcast pushes one message to a comma-separated list of numbers.
// Only allowlisted numbers receive it; the rest are skipped.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		http.Error(w, "An error occurred during broadcasting", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.log.Error().Err(err).Msg("parsing broadcast form")
		http.Error(w, "An error occurred during broadcasting", http.StatusInternalServerError)
		return
	}
	body := strings.TrimSpace(r.FormValue("Body"))
	numbers := strings.Split(r.FormValue("Numbers"), ",")

	sent, err := s.sender.Broadcast(r.Context(), numbers, body)
	if err != nil {
		s.log.Error().Err(err).Msg("broadcast failed")
		http.Error(w, "An error occurred during broadcasting", http.StatusInternalServerError)
		return
	}

	if s.responder != nil {
		for i := 0; i < sent; i++ {
			s.responder.RecordOutbound(body)
		}
	}
	s.log.Info().Int("sent", sent).Msg("broadcast complete")
	w.Write([]byte("Broadcast messages sent successfully"))
}

// archiveTextSession persists an ended text session. Hooked into the
// session manager; runs before the appointment notifier.
func (s *Server) archiveTextSession(startedAt time.Time, summary domain.Summary, transcript domain.Transcript) {
	if transcript.Empty() {
		return
	}
	_, err := s.archive.Save(store.TranscriptRecord{
		ID:         uuid.NewString(),
		Kind:       domain.ChannelText,
		StartedAt:  startedAt,
		EndedAt:    startedAt.Add(summary.Duration),
		Turns:      summary.Turns,
		Transcript: transcript.String(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("archiving text session failed")
	}
}
