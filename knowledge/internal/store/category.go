package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// InsertCategory adds a new category. Names are unique per account.
func (s *Store) InsertCategory(ctx context.Context, c *Category) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO categories (id, account_id, name, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.AccountID, c.Name, c.CreatedAt)
	return err
}

// ListCategories returns an account's categories by name.
func (s *Store) ListCategories(ctx context.Context, accountID string) ([]*Category, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, account_id, name, created_at FROM categories
		WHERE account_id = ? ORDER BY name`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, &c)
	}
	return cats, rows.Err()
}

// DeleteCategory removes a category; join rows cascade.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
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

// AssignCategory links a document to a category. Re-assigning is a no-op.
func (s *Store) AssignCategory(ctx context.Context, documentID, categoryID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO document_categories (document_id, category_id) VALUES (?, ?)`,
		documentID, categoryID)
	return err
}

// UnassignCategory removes the link between a document and a category.
func (s *Store) UnassignCategory(ctx context.Context, documentID, categoryID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM document_categories WHERE document_id = ? AND category_id = ?`,
		documentID, categoryID)
	return err
}

// DocumentCategories returns the categories assigned to a document.
func (s *Store) DocumentCategories(ctx context.Context, documentID string) ([]*Category, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT c.id, c.account_id, c.name, c.created_at
		FROM categories c
		JOIN document_categories dc ON dc.category_id = c.id
		WHERE dc.document_id = ? ORDER BY c.name`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, &c)
	}
	return cats, rows.Err()
}

// IsDuplicateName reports whether err is the UNIQUE violation raised by a
// category name collision.
func IsDuplicateName(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
