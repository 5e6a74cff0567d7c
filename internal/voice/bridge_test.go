package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/session"
	"github.com/donnabot/donna/internal/speech"
	"github.com/donnabot/donna/internal/store"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *captureNotifier) Notify(_ context.Context, transcript string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, transcript)
	return nil
}

func (n *captureNotifier) transcripts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// fakeSpeechServer acks the handshake, emits a short conversation, then
// hangs up.
func fakeSpeechServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		var update map[string]any
		require.NoError(t, json.Unmarshal(data, &update))
		require.Equal(t, "session.update", update["type"])

		// Wait for caller audio so the start frame has been processed
		// before any agent audio flows back.
		_, data, err = ws.ReadMessage()
		require.NoError(t, err)
		var appended map[string]any
		require.NoError(t, json.Unmarshal(data, &appended))
		require.Equal(t, "input_audio_buffer.append", appended["type"])

		frames := []string{
			`{"type":"session.updated"}`,
			`{"type":"conversation.item.input_audio_transcription.completed","transcript":"Monday at 2pm"}`,
			`{"type":"response.audio.delta","delta":"AAEC"}`,
			`{"type":"response.done","response":{"status":"completed","output":[{"content":[{"transcript":"See you then!"}]}]}}`,
		}
		for _, f := range frames {
			require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(f)))
		}
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(100 * time.Millisecond)
	}))
}

func TestBridgeHandlesCall(t *testing.T) {
	backendSrv := fakeSpeechServer(t)
	defer backendSrv.Close()

	notifier := &captureNotifier{}
	registry := session.NewRegistry(notifier, logging.Silent())

	db, err := store.Open(":memory:", logging.Silent())
	require.NoError(t, err)
	defer db.Close()
	archive := store.NewTranscriptStore(db)

	bridge := NewBridge(registry, archive, speech.Config{
		URL:                "ws" + strings.TrimPrefix(backendSrv.URL, "http"),
		APIKey:             "test-key",
		Voice:              "alloy",
		Temperature:        0.8,
		TranscriptionModel: "whisper-1",
	}, logging.Silent())

	// Expose the bridge the way the gateway does: upgrade and hand off.
	upgrader := websocket.Upgrader{}
	done := make(chan error, 1)
	mediaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		done <- bridge.Handle(r.Context(), ws)
	}))
	defer mediaSrv.Close()

	caller, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(mediaSrv.URL, "http"), nil)
	require.NoError(t, err)
	defer caller.Close()

	start := `{"event":"start","start":{"streamSid":"MZ77","callSid":"CA1"}}`
	require.NoError(t, caller.WriteMessage(websocket.TextMessage, []byte(start)))
	media := `{"event":"media","media":{"payload":"AAEC"}}`
	require.NoError(t, caller.WriteMessage(websocket.TextMessage, []byte(media)))

	// Agent audio comes back tagged with our stream SID.
	_, data, err := caller.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "media", frame["event"])
	assert.Equal(t, "MZ77", frame["streamSid"])

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not finish")
	}

	// Session ended, transcript flushed once, archived once.
	assert.Equal(t, 0, registry.Len())
	require.Len(t, notifier.transcripts(), 1)
	assert.Equal(t, "User: Monday at 2pm\nAgent: See you then!", notifier.transcripts()[0])

	recs, err := archive.Recent(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Transcript, "See you then!")
	assert.Equal(t, 1, recs[0].Turns)
}

func TestBridgeBackendUnavailable(t *testing.T) {
	notifier := &captureNotifier{}
	registry := session.NewRegistry(notifier, logging.Silent())
	bridge := NewBridge(registry, nil, speech.Config{
		URL: "ws://127.0.0.1:1/realtime", APIKey: "k",
	}, logging.Silent())

	upgrader := websocket.Upgrader{}
	done := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		done <- bridge.Handle(r.Context(), ws)
	}))
	defer srv.Close()

	caller, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer caller.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not finish")
	}
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, notifier.transcripts())
}
