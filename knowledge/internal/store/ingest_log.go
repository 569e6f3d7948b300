package store

import (
	"context"
	"fmt"
	"time"
)

// InsertIngestLog records one processing attempt.
func (s *Store) InsertIngestLog(ctx context.Context, e *IngestLogEntry) error {
	if e.ProcessedAt == 0 {
		e.ProcessedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO ingest_log (id, document_id, status, error_message, duration_ms, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.DocumentID, e.Status, e.ErrorMessage, e.DurationMs, e.ProcessedAt)
	return err
}

// RecentIngestLog returns the latest processing attempts for a document.
func (s *Store) RecentIngestLog(ctx context.Context, documentID string, limit int) ([]*IngestLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, document_id, status, error_message, duration_ms, processed_at
		FROM ingest_log WHERE document_id = ?
		ORDER BY processed_at DESC LIMIT ?`, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*IngestLogEntry
	for rows.Next() {
		var e IngestLogEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Status, &e.ErrorMessage,
			&e.DurationMs, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan ingest log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
