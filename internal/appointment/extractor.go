// Package appointment turns a finished conversation transcript into a
// structured booking request and delivers it to the scheduling webhook.
package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/llm"
	"github.com/donnabot/donna/internal/logging"
)

// Unavailable is the placeholder for a date or time the customer never gave.
const Unavailable = "Unavailable"

const extractionSystem = `Extract customer details from the provided conversation transcript:
- name
- availability date
- availability time
- any reason/requirement/description for the appointment, summarized in the conversation summary
- the entire conversation transcript

Also based on today's date and day of the week provided, figure out the exact date and time for availability that the customer has mentioned in the transcript.
Note: today's date is only for reference to figure out the customer availability date. If the customer has not provided a date in the transcript then customerAvailability_date must be "Unavailable". Similarly, if the customer has not provided a time then customerAvailability_time must be "Unavailable".

Respond with a JSON object with exactly these keys:
{"customerName": string, "customerAvailability_date": string, "customerAvailability_time": string, "conversationSummary": string, "conversationTranscript": string}`

// Extractor pulls booking details out of a transcript with an LLM call in
// JSON mode. Implements domain.Extractor.
type Extractor struct {
	client llm.Client
	log    *logging.Logger
}

// NewExtractor creates an extractor on the given completion client.
func NewExtractor(client llm.Client, log *logging.Logger) *Extractor {
	return &Extractor{client: client, log: log.Sub("appointment")}
}

// Extract resolves the customer's name, availability and a conversation
// summary from the transcript. Relative dates ("Monday") are resolved
// against today.
func (e *Extractor) Extract(ctx context.Context, transcript string, today time.Time) (domain.AppointmentDetails, error) {
	temp := 0.0
	req := llm.CompletionRequest{
		System: extractionSystem,
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("This is the call transcript:\n%s\nToday's date is %s and day is %s",
				transcript, today.Format("2006-01-02"), today.Weekday().String()),
		}},
		Temperature: &temp,
		JSONObject:  true,
	}

	out, err := e.client.Complete(ctx, req)
	if err != nil {
		return domain.AppointmentDetails{}, fmt.Errorf("appointment: extract: %w", err)
	}

	var details domain.AppointmentDetails
	if err := json.Unmarshal([]byte(out), &details); err != nil {
		return domain.AppointmentDetails{}, fmt.Errorf("appointment: parse extraction: %w", err)
	}

	if details.CustomerAvailabilityDate == "" {
		details.CustomerAvailabilityDate = Unavailable
	}
	if details.CustomerAvailabilityTime == "" {
		details.CustomerAvailabilityTime = Unavailable
	}
	if details.ConversationTranscript == "" {
		details.ConversationTranscript = transcript
	}

	e.log.Debug().Str("name", details.CustomerName).
		Str("date", details.CustomerAvailabilityDate).
		Str("time", details.CustomerAvailabilityTime).
		Msg("extracted booking details")
	return details, nil
}
