package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/llm"
	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/store"
)

const profileSystem = `You are an expert at analyzing text data. You will be provided with text, typically Q&A pairs representing conversations between users and a customer service agent. Extract:
- company name
- a short description of 2 sentences about what the company does
- services offered
- a summary of the text covering the company name, services offered and any other relevant information. Make the summary as detailed and descriptive as possible.

This information will be used by a receptionist chatbot that answers questions and helps users schedule appointments.

Respond with a JSON object with exactly these keys:
{"company_name": string, "short_description": string, "services": string, "summary": string}`

// Ingestor builds the knowledge base: it extracts the company profile from
// raw text and splits the text into searchable passages.
type Ingestor struct {
	passages  *store.PassageStore
	profiles  *ProfileStore
	client    llm.Client
	chunkSize int
	log       *logging.Logger
}

// NewIngestor creates an ingestor. chunkSize of 0 defaults to 400
// characters per passage.
func NewIngestor(passages *store.PassageStore, profiles *ProfileStore, client llm.Client, chunkSize int, log *logging.Logger) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = 400
	}
	return &Ingestor{
		passages:  passages,
		profiles:  profiles,
		client:    client,
		chunkSize: chunkSize,
		log:       log.Sub("knowledge"),
	}
}

// Ingest reads a knowledge text file, refreshes the company profile from
// it, and replaces the file's passages in the search index. Returns the
// number of passages stored.
func (i *Ingestor) Ingest(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("knowledge: read %s: %w", path, err)
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("knowledge: %s is empty", path)
	}

	profile, err := i.ExtractProfile(ctx, text)
	if err != nil {
		return 0, err
	}
	if err := i.profiles.Save(profile); err != nil {
		return 0, err
	}
	i.log.Info().Str("company", profile.CompanyName).Msg("company profile stored")

	source := filepath.Base(path)
	if err := i.passages.DeleteBySource(source); err != nil {
		return 0, fmt.Errorf("knowledge: clear previous passages: %w", err)
	}

	chunks := SplitChunks(text, i.chunkSize)
	for seq, chunk := range chunks {
		if _, err := i.passages.Store(store.Chunk{Source: source, Seq: seq, Content: chunk}); err != nil {
			return seq, fmt.Errorf("knowledge: store passage %d: %w", seq, err)
		}
	}
	i.log.Info().Str("source", source).Int("passages", len(chunks)).Msg("knowledge ingested")
	return len(chunks), nil
}

// ExtractProfile asks the LLM for the structured company profile.
func (i *Ingestor) ExtractProfile(ctx context.Context, text string) (domain.CompanyProfile, error) {
	temp := 0.0
	out, err := i.client.Complete(ctx, llm.CompletionRequest{
		System:      profileSystem,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "The text is as follows:\n" + text}},
		Temperature: &temp,
		JSONObject:  true,
	})
	if err != nil {
		return domain.CompanyProfile{}, fmt.Errorf("knowledge: extract profile: %w", err)
	}

	var profile domain.CompanyProfile
	if err := json.Unmarshal([]byte(out), &profile); err != nil {
		return domain.CompanyProfile{}, fmt.Errorf("knowledge: parse profile extraction: %w", err)
	}
	return profile, nil
}

// SplitChunks splits text into passages of at most max characters,
// preferring paragraph boundaries and falling back to sentence boundaries
// inside oversized paragraphs.
func SplitChunks(text string, max int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, piece := range splitLong(para, max) {
			if current.Len() > 0 && current.Len()+len(piece)+1 > max {
				flush()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(piece)
		}
		flush()
	}
	flush()
	return chunks
}

// splitLong breaks an oversized paragraph at sentence ends, and as a last
// resort at word boundaries.
func splitLong(para string, max int) []string {
	if len(para) <= max {
		return []string{para}
	}

	var pieces []string
	var current strings.Builder
	for _, word := range strings.Fields(para) {
		if current.Len() > 0 && current.Len()+len(word)+1 > max {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
		if strings.HasSuffix(word, ".") && current.Len() >= max/2 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
