package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/donnabot/donna/internal/domain"
)

// TranscriptRecord is one archived conversation.
type TranscriptRecord struct {
	ID         string             `json:"id"`
	Kind       domain.ChannelKind `json:"kind"`
	StartedAt  time.Time          `json:"startedAt"`
	EndedAt    time.Time          `json:"endedAt"`
	Turns      int                `json:"turns"`
	Transcript string             `json:"transcript"`
}

// TranscriptStore archives ended sessions.
type TranscriptStore struct {
	db *DB
}

// NewTranscriptStore creates a transcript archive using the given database.
func NewTranscriptStore(db *DB) *TranscriptStore {
	return &TranscriptStore{db: db}
}

// Save archives one ended session.
func (t *TranscriptStore) Save(rec TranscriptRecord) (*TranscriptRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}

	_, err := t.db.sql.Exec(
		`INSERT INTO transcripts (id, kind, started_at, ended_at, turns, transcript)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind),
		rec.StartedAt.Format(time.DateTime), rec.EndedAt.Format(time.DateTime),
		rec.Turns, rec.Transcript,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent returns the most recently ended sessions, newest first.
// Limit of 0 defaults to 20.
func (t *TranscriptStore) Recent(limit int) ([]TranscriptRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := t.db.sql.Query(
		`SELECT id, kind, started_at, ended_at, turns, transcript
		 FROM transcripts
		 ORDER BY ended_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []TranscriptRecord
	for rows.Next() {
		var rec TranscriptRecord
		var kind, startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &kind, &startedAt, &endedAt, &rec.Turns, &rec.Transcript); err != nil {
			continue
		}
		rec.Kind = domain.ChannelKind(kind)
		rec.StartedAt, _ = time.Parse(time.DateTime, startedAt)
		rec.EndedAt, _ = time.Parse(time.DateTime, endedAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count reports how many transcripts are archived.
func (t *TranscriptStore) Count() (int, error) {
	var n int
	err := t.db.sql.QueryRow(`SELECT COUNT(*) FROM transcripts`).Scan(&n)
	return n, err
}
