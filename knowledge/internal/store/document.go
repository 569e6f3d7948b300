// CLAUDE:SUMMARY Document CRUD plus the status machine: conditional claim, revision-fenced finish/fail, reset.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const documentCols = `id, account_id, name, description, doc_type, content,
	file_path, website_url, status, error_message, progress, revision,
	created_at, updated_at`

// InsertDocument adds a new document in pending status.
func (s *Store) InsertDocument(ctx context.Context, d *Document) error {
	now := time.Now().UnixMilli()
	if d.CreatedAt == 0 {
		d.CreatedAt = now
	}
	if d.UpdatedAt == 0 {
		d.UpdatedAt = now
	}
	if d.Status == "" {
		d.Status = StatusPending
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO documents (id, account_id, name, description, doc_type, content,
		file_path, website_url, status, error_message, progress, revision,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AccountID, d.Name, d.Description, d.DocType, d.Content,
		d.FilePath, d.WebsiteURL, d.Status, d.ErrorMessage, d.Progress, d.Revision,
		d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// GetDocument retrieves a document by ID. Returns (nil, nil) if absent.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+documentCols+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// ListDocuments returns an account's documents, newest first. A non-empty
// status narrows the result.
func (s *Store) ListDocuments(ctx context.Context, accountID, status string, limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + documentCols + ` FROM documents WHERE account_id = ?`
	args := []any{accountID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// PendingDocuments returns documents awaiting processing across all
// accounts, oldest first, capped at limit.
func (s *Store) PendingDocuments(ctx context.Context, limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+documentCols+` FROM documents
		WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// ClaimDocument atomically transitions a document from pending to
// processing. Returns false if another worker already claimed it (or the
// document left pending in the meantime) — the caller must skip it.
func (s *Store) ClaimDocument(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		StatusProcessing, time.Now().UnixMilli(), id, StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FinishDocument writes the extraction result and a terminal status. The
// revision acts as a fencing token: if an administrator edited or reset the
// document while it was processing, the revision no longer matches and the
// stale result is discarded (returns false).
func (s *Store) FinishDocument(ctx context.Context, id string, revision int64, status, content string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET status = ?, content = ?, error_message = '',
		progress = 100, updated_at = ?
		WHERE id = ? AND revision = ? AND status = ?`,
		status, content, time.Now().UnixMilli(), id, revision, StatusProcessing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FailDocument records a processing failure. Same fencing rule as
// FinishDocument.
func (s *Store) FailDocument(ctx context.Context, id string, revision int64, message string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND revision = ? AND status = ?`,
		StatusError, message, time.Now().UnixMilli(), id, revision, StatusProcessing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetProgress updates the numeric progress indicator (0-100). Only a
// document still in processing takes the write: a reset or edit landing
// after the claim must not end up with stale progress on its pending row.
func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET progress = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		progress, time.Now().UnixMilli(), id, StatusProcessing)
	return err
}

// ResetDocument returns a document to pending from any status, clearing
// the error message and progress and bumping the revision so any in-flight
// processing result is fenced out.
func (s *Store) ResetDocument(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET status = ?, error_message = '', progress = 0,
		revision = revision + 1, updated_at = ?
		WHERE id = ?`,
		StatusPending, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateDocument applies an administrative edit (name, description, source
// payload). The edit force-resets status to pending and bumps the revision:
// content changed under any in-flight processor, so its result must not
// land.
func (s *Store) UpdateDocument(ctx context.Context, d *Document) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET name = ?, description = ?, content = ?,
		file_path = ?, website_url = ?, status = ?, error_message = '',
		progress = 0, revision = revision + 1, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Description, d.Content, d.FilePath, d.WebsiteURL,
		StatusPending, time.Now().UnixMilli(), d.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkIndexed advances a completed document to indexed. The downstream
// indexer calls this once the content has been embedded into the knowledge
// base.
func (s *Store) MarkIndexed(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		StatusIndexed, time.Now().UnixMilli(), id, StatusCompleted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteDocument removes a document; join rows and log entries cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DocumentStats counts documents per status for one account, or across all
// accounts when accountID is empty.
func (s *Store) DocumentStats(ctx context.Context, accountID string) (*Stats, error) {
	query := `SELECT status, COUNT(*) FROM documents`
	var args []any
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` GROUP BY status`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusCompleted:
			stats.Completed = count
		case StatusIndexed:
			stats.Indexed = count
		case StatusError:
			stats.Error = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.AccountID, &d.Name, &d.Description, &d.DocType,
		&d.Content, &d.FilePath, &d.WebsiteURL, &d.Status, &d.ErrorMessage,
		&d.Progress, &d.Revision, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
