package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/llm"
	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/store"
)

func testPassages(t *testing.T) *store.PassageStore {
	t.Helper()
	db, err := store.Open(":memory:", logging.Silent())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewPassageStore(db)
}

func TestProfileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company_details.json")
	ps := NewProfileStore(path)

	_, err := ps.Load()
	assert.ErrorIs(t, err, ErrNoProfile)

	want := domain.CompanyProfile{
		CompanyName:      "BasePower",
		ShortDescription: "Electricity and battery provider.",
		Services:         "Electricity plans, battery installation",
		Summary:          "BasePower provides electricity and batteries.",
	}
	require.NoError(t, ps.Save(want))

	got, err := ps.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Last writer wins.
	want.Services = "Battery installation only"
	require.NoError(t, ps.Save(want))
	got, err = ps.Load()
	require.NoError(t, err)
	assert.Equal(t, "Battery installation only", got.Services)

	// Stored in the original flat key format.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"company_name"`)
	assert.Contains(t, string(raw), `"short_description"`)
}

func TestRetrieverQuery(t *testing.T) {
	passages := testPassages(t)
	_, err := passages.Store(store.Chunk{Content: "We install home batteries on weekends."})
	require.NoError(t, err)
	_, err = passages.Store(store.Chunk{Content: "Electricity plans start at forty dollars."})
	require.NoError(t, err)

	r := NewRetriever(passages, 5, logging.Silent())
	hits, err := r.Query(context.Background(), "do you install batteries?", nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Content, "batteries")
}

func TestRetrieverQueryUsesHistory(t *testing.T) {
	passages := testPassages(t)
	_, err := passages.Store(store.Chunk{Content: "A battery installation costs five hundred dollars."})
	require.NoError(t, err)

	r := NewRetriever(passages, 5, logging.Silent())
	history := []domain.Turn{
		{Speaker: domain.SpeakerUser, Text: "tell me about battery installation"},
		{Speaker: domain.SpeakerAgent, Text: "We install home batteries."},
	}
	hits, err := r.Query(context.Background(), "how much does that cost?", history)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestSplitChunks(t *testing.T) {
	text := "First paragraph about services.\n\nSecond paragraph about hours.\n\n" +
		strings.Repeat("A long sentence about battery installation pricing. ", 20)

	chunks := SplitChunks(text, 200)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "First paragraph about services.", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 260) // word boundaries may overshoot slightly
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
	assert.Greater(t, len(chunks), 3)
}

func TestSplitChunksEmpty(t *testing.T) {
	assert.Empty(t, SplitChunks("   \n\n  ", 100))
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	kbPath := filepath.Join(dir, "example_knowledge_base.txt")
	kb := "Q: What does BasePower do?\nA: BasePower provides electricity plans and battery installation.\n\n" +
		"Q: When are you open?\nA: Monday to Friday, nine to five."
	require.NoError(t, os.WriteFile(kbPath, []byte(kb), 0o600))

	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (string, error) {
			assert.True(t, req.JSONObject)
			assert.Contains(t, req.Messages[0].Content, "BasePower")
			return `{"company_name":"BasePower","short_description":"Electricity and battery provider.","services":"Electricity, batteries","summary":"BasePower sells electricity plans and installs batteries."}`, nil
		},
	}

	passages := testPassages(t)
	profiles := NewProfileStore(filepath.Join(dir, "company_details.json"))
	ing := NewIngestor(passages, profiles, client, 400, logging.Silent())

	n, err := ing.Ingest(context.Background(), kbPath)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	profile, err := profiles.Load()
	require.NoError(t, err)
	assert.Equal(t, "BasePower", profile.CompanyName)

	hits, err := passages.Search("battery installation", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	// Re-ingest replaces, not duplicates.
	n2, err := ing.Ingest(context.Background(), kbPath)
	require.NoError(t, err)
	count, err := passages.Count()
	require.NoError(t, err)
	assert.Equal(t, n2, count)
}

func TestIngestMissingFile(t *testing.T) {
	ing := NewIngestor(testPassages(t), NewProfileStore(filepath.Join(t.TempDir(), "p.json")),
		&llm.MockClient{}, 400, logging.Silent())
	_, err := ing.Ingest(context.Background(), "/does/not/exist.txt")
	assert.Error(t, err)
}
