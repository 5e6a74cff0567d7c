package appointment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/llm"
	"github.com/donnabot/donna/internal/logging"
)

func TestExtract(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (string, error) {
			assert.True(t, req.JSONObject)
			require.NotNil(t, req.Temperature)
			assert.Zero(t, *req.Temperature)
			require.Len(t, req.Messages, 1)
			assert.Contains(t, req.Messages[0].Content, "User: Monday at 2pm")
			assert.Contains(t, req.Messages[0].Content, "Today's date is 2026-08-31 and day is Monday")

			return `{"customerName":"Hrithik","customerAvailability_date":"2026-09-07","customerAvailability_time":"2pm","conversationSummary":"Oil change","conversationTranscript":"User: Monday at 2pm"}`, nil
		},
	}

	ex := NewExtractor(client, logging.Silent())
	today := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	details, err := ex.Extract(context.Background(), "User: Monday at 2pm", today)
	require.NoError(t, err)
	assert.Equal(t, "Hrithik", details.CustomerName)
	assert.Equal(t, "2026-09-07", details.CustomerAvailabilityDate)
	assert.Equal(t, "2pm", details.CustomerAvailabilityTime)
}

func TestExtractFillsUnavailable(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (string, error) {
			return `{"customerName":"Hrithik"}`, nil
		},
	}

	ex := NewExtractor(client, logging.Silent())
	details, err := ex.Extract(context.Background(), "User: hello", time.Now())
	require.NoError(t, err)
	assert.Equal(t, Unavailable, details.CustomerAvailabilityDate)
	assert.Equal(t, Unavailable, details.CustomerAvailabilityTime)
	assert.Equal(t, "User: hello", details.ConversationTranscript)
}

func TestExtractBadJSON(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (string, error) {
			return "not json at all", nil
		},
	}

	ex := NewExtractor(client, logging.Silent())
	_, err := ex.Extract(context.Background(), "User: hello", time.Now())
	assert.Error(t, err)
}

func TestWebhookDeliver(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, logging.Silent())
	err := wh.Deliver(context.Background(), domain.AppointmentDetails{
		CustomerName:             "Hrithik",
		CustomerAvailabilityDate: "2026-09-07",
		CustomerAvailabilityTime: "2pm",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hrithik", got["customerName"])
	assert.Equal(t, "2026-09-07", got["customerAvailability_date"])
	assert.Equal(t, "2pm", got["customerAvailability_time"])
}

func TestWebhookDeliverNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("accepted"))
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, logging.Silent())
	assert.NoError(t, wh.Deliver(context.Background(), domain.AppointmentDetails{}))
}

func TestWebhookDeliverServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, logging.Silent())
	err := wh.Deliver(context.Background(), domain.AppointmentDetails{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookUnconfiguredSkips(t *testing.T) {
	wh := NewWebhook("", logging.Silent())
	assert.NoError(t, wh.Deliver(context.Background(), domain.AppointmentDetails{}))
}

func TestWorkflowNotify(t *testing.T) {
	var delivered map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &delivered)
	}))
	defer srv.Close()

	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (string, error) {
			return `{"customerName":"Hrithik","customerAvailability_date":"Unavailable","customerAvailability_time":"Unavailable","conversationSummary":"Chat","conversationTranscript":"User: hi"}`, nil
		},
	}
	wf := NewWorkflow(NewExtractor(client, logging.Silent()), NewWebhook(srv.URL, logging.Silent()), logging.Silent())

	require.NoError(t, wf.Notify(context.Background(), "User: hi"))
	assert.Equal(t, "Hrithik", delivered["customerName"])
}
