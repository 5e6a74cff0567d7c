// Package respond generates the text channel's answers: retrieval-augmented
// chat grounded in the company profile and knowledge passages.
package respond

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/knowledge"
	"github.com/donnabot/donna/internal/llm"
	"github.com/donnabot/donna/internal/logging"
)

// historyWindow is how many recent turns are carried between messages.
const historyWindow = 6

const systemTemplate = `You are Donna, an AI receptionist for the company: %s which provides services %s.
Here is the short description of the company: %s.
Your job is to help users understand and interact with the company's services and products. Your primary role is to answer questions based on the information extracted from the knowledge base, which includes policies, product details, and customer support procedures.

If the user wants to schedule a meeting, just ask for the user's name, availability date, availability time and any reason/requirement/description for the appointment. Ask one question at a time. Once they have provided all details, kindly reply that their meeting has been scheduled. If they miss any of the details, follow up with the missing details.

For the context of the conversation, you can use this:
%s

If no question is asked, offer a brief overview of the company's services and suggest possible questions. If you don't know the answer, ask the user to be more specific. If the question is not related to the company's services, request a relevant question.

When asked for specific policies or procedures, provide exact information as it appears in the knowledge base; do not generate or summarize details on your own.

Behavior guidelines:
- Be helpful, friendly, and concise.
- Focus solely on the information available in the knowledge base context.
- Use simple language, avoiding technical jargon unless necessary.
- Keep the answers as concise as possible.`

// Responder answers user messages with retrieval-augmented completion.
// It keeps its own rolling history so consecutive webhook calls share
// context. Implements domain.Completer.
type Responder struct {
	retriever domain.Retriever
	profiles  *knowledge.ProfileStore
	client    llm.Client
	log       *logging.Logger

	mu      sync.Mutex
	history []domain.Turn
}

// NewResponder creates a responder.
func NewResponder(retriever domain.Retriever, profiles *knowledge.ProfileStore, client llm.Client, log *logging.Logger) *Responder {
	return &Responder{
		retriever: retriever,
		profiles:  profiles,
		client:    client,
		log:       log.Sub("respond"),
	}
}

// Respond answers one user message against the given history and passages.
func (r *Responder) Respond(ctx context.Context, input string, history []domain.Turn, passages []domain.Passage) (string, error) {
	profile, err := r.profiles.Load()
	if errors.Is(err, knowledge.ErrNoProfile) {
		r.log.Warn().Msg("no company profile stored, answering without it")
		profile = domain.CompanyProfile{}
	} else if err != nil {
		return "", err
	}

	system := fmt.Sprintf(systemTemplate,
		profile.CompanyName, profile.Services, profile.ShortDescription,
		passageContext(passages))

	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Speaker == domain.SpeakerAgent {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})

	answer, err := r.client.Complete(ctx, llm.CompletionRequest{
		System:   system,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("respond: complete: %w", err)
	}
	return answer, nil
}

// Chat is the full text-channel step: retrieve passages for the input,
// answer against the rolling history, and fold both sides of the exchange
// back into it.
func (r *Responder) Chat(ctx context.Context, input string) (string, error) {
	history := r.History()

	passages, err := r.retriever.Query(ctx, input, history)
	if err != nil {
		return "", fmt.Errorf("respond: retrieve: %w", err)
	}

	answer, err := r.Respond(ctx, input, history, passages)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.history = append(r.history,
		domain.Turn{Speaker: domain.SpeakerUser, Text: input},
		domain.Turn{Speaker: domain.SpeakerAgent, Text: answer})
	r.trimLocked()
	r.mu.Unlock()

	return answer, nil
}

// RecordOutbound folds a message the system sent on its own (a broadcast,
// a timeout notice) into the rolling history.
func (r *Responder) RecordOutbound(text string) {
	r.mu.Lock()
	r.history = append(r.history, domain.Turn{Speaker: domain.SpeakerAgent, Text: text})
	r.trimLocked()
	r.mu.Unlock()
}

// History returns a copy of the rolling history.
func (r *Responder) History() []domain.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Turn(nil), r.history...)
}

// Reset clears the rolling history.
func (r *Responder) Reset() {
	r.mu.Lock()
	r.history = nil
	r.mu.Unlock()
}

func (r *Responder) trimLocked() {
	if len(r.history) > historyWindow {
		r.history = r.history[len(r.history)-historyWindow:]
	}
}

func passageContext(passages []domain.Passage) string {
	if len(passages) == 0 {
		return "(no matching knowledge base passages)"
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
