package domain

import (
	"context"
	"time"
)

// Passage is one ranked piece of knowledge returned by a Retriever.
type Passage struct {
	Content string  `json:"content"`
	Rank    float64 `json:"rank,omitempty"`
}

// Retriever answers a query with ranked knowledge-base passages.
type Retriever interface {
	Query(ctx context.Context, text string, history []Turn) ([]Passage, error)
}

// Completer generates a conversational answer from the user input, the
// rolling history, and retrieved context.
type Completer interface {
	Respond(ctx context.Context, input string, history []Turn, passages []Passage) (string, error)
}

// AppointmentDetails is the structured output of transcript extraction.
// Field names mirror the downstream webhook contract.
type AppointmentDetails struct {
	CustomerName             string `json:"customerName"`
	CustomerAvailabilityDate string `json:"customerAvailability_date"`
	CustomerAvailabilityTime string `json:"customerAvailability_time"`
	ConversationSummary      string `json:"conversationSummary"`
	ConversationTranscript   string `json:"conversationTranscript"`
}

// Extractor pulls appointment details out of a finished transcript. The
// reference date anchors relative availability ("Monday at 2pm").
type Extractor interface {
	Extract(ctx context.Context, transcript string, today time.Time) (AppointmentDetails, error)
}

// Notifier delivers a finished transcript to the appointment pipeline.
// Called at most once per ended session, only for non-empty transcripts.
// Failures are logged by callers and never retried.
type Notifier interface {
	Notify(ctx context.Context, transcript string) error
}
