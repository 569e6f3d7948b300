package store

import "database/sql"

// Schema is the complete knowbase schema.
const Schema = `
-- Units of knowledge-base content submitted for ingestion
CREATE TABLE IF NOT EXISTS documents (
    id            TEXT PRIMARY KEY,
    account_id    TEXT NOT NULL,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    doc_type      TEXT NOT NULL,
    content       TEXT NOT NULL DEFAULT '',
    file_path     TEXT NOT NULL DEFAULT '',
    website_url   TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'pending',
    error_message TEXT NOT NULL DEFAULT '',
    progress      INTEGER NOT NULL DEFAULT 0,
    revision      INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status, created_at);
CREATE INDEX IF NOT EXISTS idx_documents_account ON documents(account_id, created_at DESC);

-- Labels groupable with documents
CREATE TABLE IF NOT EXISTS categories (
    id         TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    name       TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_account_name ON categories(account_id, name);

CREATE TABLE IF NOT EXISTS document_categories (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    PRIMARY KEY (document_id, category_id)
);

-- One row per processing attempt (observability)
CREATE TABLE IF NOT EXISTS ingest_log (
    id            TEXT PRIMARY KEY,
    document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    status        TEXT NOT NULL,
    error_message TEXT NOT NULL DEFAULT '',
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    processed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingest_log_doc ON ingest_log(document_id, processed_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
