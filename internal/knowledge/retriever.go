package knowledge

import (
	"context"
	"strings"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/store"
)

// Retriever answers retrieval queries from the passage base. Implements
// domain.Retriever.
type Retriever struct {
	passages *store.PassageStore
	topK     int
	log      *logging.Logger
}

// NewRetriever creates a retriever over the given passage store. topK of 0
// defaults to 10.
func NewRetriever(passages *store.PassageStore, topK int, log *logging.Logger) *Retriever {
	if topK <= 0 {
		topK = 10
	}
	return &Retriever{passages: passages, topK: topK, log: log.Sub("knowledge")}
}

// Query searches the passage base for text relevant to the user's input.
// Recent user turns are folded into the search so follow-up questions
// ("how much does that cost?") still hit the right passages.
func (r *Retriever) Query(ctx context.Context, text string, history []domain.Turn) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := text
	if recent := recentUserText(history, 2); recent != "" {
		query = recent + " " + text
	}

	chunks, err := r.passages.Search(query, r.topK)
	if err != nil {
		return nil, err
	}

	passages := make([]domain.Passage, 0, len(chunks))
	for _, c := range chunks {
		passages = append(passages, domain.Passage{Content: c.Content, Rank: c.Rank})
	}
	r.log.Debug().Int("hits", len(passages)).Msg("retrieved passages")
	return passages, nil
}

// recentUserText joins the text of the last n user turns.
func recentUserText(history []domain.Turn, n int) string {
	var parts []string
	for i := len(history) - 1; i >= 0 && len(parts) < n; i-- {
		if history[i].Speaker == domain.SpeakerUser {
			parts = append(parts, history[i].Text)
		}
	}
	return strings.Join(parts, " ")
}
