package gateway

import "net/http"

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	// Voice channel: telephony webhook + media stream socket.
	mux.HandleFunc("GET /call/incoming-call", s.handleIncomingCall)
	mux.HandleFunc("POST /call/incoming-call", s.handleIncomingCall)
	mux.HandleFunc("GET /call/media-stream", s.handleMediaStream)

	// Text channel: WhatsApp webhook + operator broadcast.
	mux.HandleFunc("POST /text/whatsapp", s.handleWhatsApp)
	mux.HandleFunc("POST /text/broadcast", s.handleBroadcast)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
