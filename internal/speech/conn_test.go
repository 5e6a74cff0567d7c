package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donnabot/donna/internal/logging"
)

// fakeBackend upgrades the connection, records the handshake, then replays
// the given frames before closing.
func fakeBackend(t *testing.T, frames []string, gotUpdate chan<- map[string]any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "realtime=v1", r.Header.Get("OpenAI-Beta"))

		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		var update map[string]any
		require.NoError(t, json.Unmarshal(data, &update))
		gotUpdate <- update

		for _, f := range frames {
			require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(f)))
		}
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(url string) Config {
	return Config{
		URL:                url,
		APIKey:             "test-key",
		Voice:              "alloy",
		Instructions:       "You are a receptionist.",
		Temperature:        0.8,
		TranscriptionModel: "whisper-1",
	}
}

func TestDialSendsSessionUpdate(t *testing.T) {
	gotUpdate := make(chan map[string]any, 1)
	srv := fakeBackend(t, nil, gotUpdate)
	defer srv.Close()

	conn, err := Dial(context.Background(), testConfig(wsURL(srv)), logging.Silent())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, StateConfigured, conn.State())

	update := <-gotUpdate
	assert.Equal(t, "session.update", update["type"])

	session, ok := update["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "g711_ulaw", session["input_audio_format"])
	assert.Equal(t, "g711_ulaw", session["output_audio_format"])
	assert.Equal(t, "alloy", session["voice"])
	assert.Equal(t, "You are a receptionist.", session["instructions"])
	assert.InDelta(t, 0.8, session["temperature"], 1e-9)

	td, ok := session["turn_detection"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "server_vad", td["type"])

	tr, ok := session["input_audio_transcription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "whisper-1", tr["model"])
}

func TestReadEventSkipsNoiseAndActivates(t *testing.T) {
	frames := []string{
		`{"type":"session.updated"}`,
		`{not json`,
		`{"type":"rate_limits.updated"}`,
		`{"type":"response.audio.delta","delta":"AAEC"}`,
	}
	gotUpdate := make(chan map[string]any, 1)
	srv := fakeBackend(t, frames, gotUpdate)
	defer srv.Close()

	conn, err := Dial(context.Background(), testConfig(wsURL(srv)), logging.Silent())
	require.NoError(t, err)
	defer conn.Close()
	<-gotUpdate

	ev, err := conn.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, KindSessionAck, ev.Kind)
	assert.Equal(t, StateActive, conn.State())

	// The malformed frame and the unknown type are swallowed.
	ev, err = conn.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, KindAudioDelta, ev.Kind)
	assert.Equal(t, "AAEC", ev.Audio)

	_, err = conn.ReadEvent()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, StateClosed, conn.State())
}

func TestAppendAudioAfterCloseFails(t *testing.T) {
	gotUpdate := make(chan map[string]any, 1)
	srv := fakeBackend(t, nil, gotUpdate)
	defer srv.Close()

	conn, err := Dial(context.Background(), testConfig(wsURL(srv)), logging.Silent())
	require.NoError(t, err)
	<-gotUpdate

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close()) // idempotent
	assert.ErrorIs(t, conn.AppendAudio("AAEC"), ErrClosed)
}

func TestDialRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), testConfig(wsURL(srv)), logging.Silent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
