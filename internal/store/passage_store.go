package store

import (
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Chunk is one passage of company knowledge.
type Chunk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Seq       int       `json:"seq"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Rank      float64   `json:"rank,omitempty"` // FTS5 rank score (search results only)
}

// PassageStore manages knowledge chunks with full-text search via SQLite FTS5.
type PassageStore struct {
	db *DB
}

// NewPassageStore creates a passage store using the given database.
func NewPassageStore(db *DB) *PassageStore {
	return &PassageStore{db: db}
}

// Store inserts or updates a chunk.
func (p *PassageStore) Store(chunk Chunk) (*Chunk, error) {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	now := time.Now()
	chunk.CreatedAt = now

	_, err := p.db.sql.Exec(
		`INSERT INTO knowledge_chunks (id, source, seq, content, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   source = excluded.source,
		   seq = excluded.seq,
		   content = excluded.content`,
		chunk.ID, chunk.Source, chunk.Seq, chunk.Content,
		now.Format(time.DateTime),
	)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// Search finds chunks matching the query text, ranked by relevance.
// Free-form text is reduced to its word tokens before matching, so
// punctuation never reaches the FTS engine. Limit of 0 defaults to 10.
func (p *PassageStore) Search(query string, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = 10
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := p.db.sql.Query(
		`SELECT kc.id, kc.source, kc.seq, kc.content, kc.created_at, rank
		 FROM knowledge_fts
		 JOIN knowledge_chunks kc ON kc.rowid = knowledge_fts.rowid
		 WHERE knowledge_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// List returns all chunks in ingestion order.
func (p *PassageStore) List(limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.sql.Query(
		`SELECT id, source, seq, content, created_at, 0
		 FROM knowledge_chunks
		 ORDER BY source, seq LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Count reports how many chunks are stored.
func (p *PassageStore) Count() (int, error) {
	var n int
	err := p.db.sql.QueryRow(`SELECT COUNT(*) FROM knowledge_chunks`).Scan(&n)
	return n, err
}

// DeleteBySource removes every chunk ingested from the named source, so a
// re-ingest replaces rather than duplicates.
func (p *PassageStore) DeleteBySource(source string) error {
	_, err := p.db.sql.Exec(`DELETE FROM knowledge_chunks WHERE source = ?`, source)
	return err
}

// ftsQuery reduces free text to an OR of quoted word tokens.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		var createdAt string

		if err := rows.Scan(
			&chunk.ID, &chunk.Source, &chunk.Seq, &chunk.Content,
			&createdAt, &chunk.Rank,
		); err != nil {
			continue
		}

		chunk.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
