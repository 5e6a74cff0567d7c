package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create knowledge chunks with FTS5",
		SQL: `
			CREATE TABLE knowledge_chunks (
				id          TEXT PRIMARY KEY,
				source      TEXT NOT NULL DEFAULT '',
				seq         INTEGER NOT NULL DEFAULT 0,
				content     TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_knowledge_source ON knowledge_chunks (source, seq);

			CREATE VIRTUAL TABLE knowledge_fts USING fts5(
				content,
				content='knowledge_chunks',
				content_rowid='rowid'
			);

			CREATE TRIGGER knowledge_ai AFTER INSERT ON knowledge_chunks BEGIN
				INSERT INTO knowledge_fts(rowid, content)
				VALUES (new.rowid, new.content);
			END;

			CREATE TRIGGER knowledge_ad AFTER DELETE ON knowledge_chunks BEGIN
				INSERT INTO knowledge_fts(knowledge_fts, rowid, content)
				VALUES ('delete', old.rowid, old.content);
			END;

			CREATE TRIGGER knowledge_au AFTER UPDATE ON knowledge_chunks BEGIN
				INSERT INTO knowledge_fts(knowledge_fts, rowid, content)
				VALUES ('delete', old.rowid, old.content);
				INSERT INTO knowledge_fts(rowid, content)
				VALUES (new.rowid, new.content);
			END;
		`,
	},
	{
		Version: 2,
		Name:    "create transcript archive",
		SQL: `
			CREATE TABLE transcripts (
				id          TEXT PRIMARY KEY,
				kind        TEXT NOT NULL,
				started_at  TEXT NOT NULL,
				ended_at    TEXT NOT NULL,
				turns       INTEGER NOT NULL DEFAULT 0,
				transcript  TEXT NOT NULL
			);

			CREATE INDEX idx_transcripts_ended ON transcripts (ended_at);
		`,
	},
}
