package gateway

import (
	"net/http"

	"github.com/donnabot/donna/internal/telephony"
)

// handleIncomingCall answers the telephony provider's call webhook with the
// TwiML that greets the caller and connects the media stream.
func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	twiml, err := telephony.VoiceResponse(s.publicHost(r))
	if err != nil {
		s.log.Error().Err(err).Msg("rendering voice response failed")
		http.Error(w, "An error occurred", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(twiml))
}

// handleMediaStream upgrades the provider's stream connection and hands the
// call to the voice bridge. The handler blocks for the life of the call.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		http.Error(w, "voice channel not configured", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("media stream upgrade failed")
		return
	}

	s.log.Info().Str("remote", r.RemoteAddr).Msg("media stream connected")
	if err := s.bridge.Handle(r.Context(), ws); err != nil {
		s.log.Error().Err(err).Msg("call bridge failed")
	}
	s.log.Info().Str("remote", r.RemoteAddr).Msg("media stream disconnected")
}
