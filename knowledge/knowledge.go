// CLAUDE:SUMMARY Main Service orchestrator: document lifecycle, category management, and extraction dispatch.
// Package knowledge manages the document ingestion lifecycle for the
// knowbase chat-support product: documents are submitted as inline text,
// uploaded files, or website URLs, extracted into normalized text, and
// advanced through a persisted status machine until the downstream indexer
// picks them up.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/knowbase/extract"
	"github.com/hazyhaar/knowbase/horosafe"
	"github.com/hazyhaar/knowbase/idgen"
	"github.com/hazyhaar/knowbase/knowledge/internal/monitor"
	"github.com/hazyhaar/knowbase/knowledge/internal/store"
)

// Service is the main knowledge orchestrator.
type Service struct {
	store   *store.Store
	pipe    *extract.Pipeline
	monitor *monitor.Monitor
	logger  *slog.Logger
	config  *Config

	newDocID idgen.Generator
	newCatID idgen.Generator
	newLogID idgen.Generator
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithPipeline overrides the extraction pipeline, e.g. to inject one whose
// URL validator accepts loopback addresses.
func WithPipeline(p *extract.Pipeline) ServiceOption {
	return func(svc *Service) { svc.pipe = p }
}

// WithIDGenerator overrides the document ID generator.
func WithIDGenerator(gen idgen.Generator) ServiceOption {
	return func(svc *Service) { svc.newDocID = gen }
}

// New creates a knowledge Service on an already-opened database. The
// schema is applied idempotently.
func New(db *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	if err := store.ApplySchema(db); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	svc := &Service{
		store:    store.NewStore(db),
		logger:   logger,
		config:   cfg,
		newDocID: idgen.Prefixed("doc_", idgen.UUIDv7()),
		newCatID: idgen.Prefixed("cat_", idgen.UUIDv7()),
		newLogID: idgen.UUIDv7(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.pipe == nil {
		ecfg := cfg.Extract
		ecfg.Logger = logger
		svc.pipe = extract.New(ecfg)
	}

	svc.monitor = monitor.New(svc.sweepBatch, svc.processOne, monitor.Config{
		SweepInterval: cfg.Monitor.SweepInterval,
		BatchSize:     cfg.Monitor.BatchSize,
	}, logger)

	return svc, nil
}

// Start launches the background monitor. Non-blocking.
func (svc *Service) Start(ctx context.Context) {
	go svc.monitor.Run(ctx)
	svc.logger.Info("knowledge: started",
		"sweep_interval", svc.config.Monitor.SweepInterval.String())
}

// Pipeline returns the extraction pipeline (for MCP registration).
func (svc *Service) Pipeline() *extract.Pipeline {
	return svc.pipe
}

// --- Documents ---

// AddDocument validates and persists a new document in pending status.
// Exactly one source payload must be populated, matching the declared
// type; the monitor picks the document up on its next sweep.
func (svc *Service) AddDocument(ctx context.Context, accountID string, d *Document) error {
	if err := horosafe.ValidateIdentifier(accountID); err != nil {
		return fmt.Errorf("%w: account: %v", ErrInvalidInput, err)
	}
	if err := validateDocument(d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = svc.newDocID()
	}
	d.AccountID = accountID
	d.Status = StatusPending
	if d.Name == "" {
		d.Name = defaultName(d)
	}
	if err := svc.store.InsertDocument(ctx, d); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	svc.logger.Info("knowledge: document added",
		"document_id", d.ID, "account_id", accountID, "doc_type", d.DocType)
	return nil
}

// GetDocument retrieves a document by ID.
func (svc *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	d, err := svc.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// ListDocuments returns an account's documents, newest first. A non-empty
// status narrows the result.
func (svc *Service) ListDocuments(ctx context.Context, accountID, status string, limit int) ([]*Document, error) {
	return svc.store.ListDocuments(ctx, accountID, status, limit)
}

// UpdateDocument applies an administrative edit. The document type is
// immutable; the edit force-resets the document to pending and bumps its
// revision, superseding any in-flight processing of the old payload.
func (svc *Service) UpdateDocument(ctx context.Context, d *Document) error {
	existing, err := svc.store.GetDocument(ctx, d.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if d.DocType != "" && d.DocType != existing.DocType {
		return fmt.Errorf("%w: document type cannot change (is %q)", ErrInvalidInput, existing.DocType)
	}
	d.DocType = existing.DocType
	if err := validateDocument(d); err != nil {
		return err
	}
	if err := svc.store.UpdateDocument(ctx, d); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	svc.logger.Info("knowledge: document updated", "document_id", d.ID)
	return nil
}

// DeleteDocument removes a document and its category links.
func (svc *Service) DeleteDocument(ctx context.Context, id string) error {
	if err := svc.store.DeleteDocument(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	svc.logger.Info("knowledge: document deleted", "document_id", id)
	return nil
}

// ResetDocument returns a document to pending, clearing any error, so the
// monitor reprocesses it. Works from any status including completed and
// indexed (an administrator may reset after fixing source data).
func (svc *Service) ResetDocument(ctx context.Context, id string) error {
	if err := svc.store.ResetDocument(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	svc.logger.Info("knowledge: document reset", "document_id", id)
	return nil
}

// MarkIndexed advances a completed document to indexed. Called by the
// downstream knowledge-base indexer once embeddings exist.
func (svc *Service) MarkIndexed(ctx context.Context, id string) error {
	ok, err := svc.store.MarkIndexed(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: document %s is not completed", ErrInvalidInput, id)
	}
	return nil
}

// Stats counts documents per status for one account, or globally when
// accountID is empty.
func (svc *Service) Stats(ctx context.Context, accountID string) (*Stats, error) {
	return svc.store.DocumentStats(ctx, accountID)
}

// IngestHistory returns the latest processing attempts for a document.
func (svc *Service) IngestHistory(ctx context.Context, documentID string, limit int) ([]*IngestLogEntry, error) {
	return svc.store.RecentIngestLog(ctx, documentID, limit)
}

// --- Categories ---

// AddCategory creates a category for an account.
func (svc *Service) AddCategory(ctx context.Context, accountID, name string) (*Category, error) {
	if err := horosafe.ValidateIdentifier(accountID); err != nil {
		return nil, fmt.Errorf("%w: account: %v", ErrInvalidInput, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", ErrInvalidInput)
	}
	c := &Category{ID: svc.newCatID(), AccountID: accountID, Name: name}
	if err := svc.store.InsertCategory(ctx, c); err != nil {
		if store.IsDuplicateName(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return c, nil
}

// ListCategories returns an account's categories.
func (svc *Service) ListCategories(ctx context.Context, accountID string) ([]*Category, error) {
	return svc.store.ListCategories(ctx, accountID)
}

// DeleteCategory removes a category and its document links.
func (svc *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := svc.store.DeleteCategory(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// AssignCategory links a document to a category.
func (svc *Service) AssignCategory(ctx context.Context, documentID, categoryID string) error {
	return svc.store.AssignCategory(ctx, documentID, categoryID)
}

// UnassignCategory removes a document-category link.
func (svc *Service) UnassignCategory(ctx context.Context, documentID, categoryID string) error {
	return svc.store.UnassignCategory(ctx, documentID, categoryID)
}

// DocumentCategories returns the categories assigned to a document.
func (svc *Service) DocumentCategories(ctx context.Context, documentID string) ([]*Category, error) {
	return svc.store.DocumentCategories(ctx, documentID)
}

// --- validation ---

// validateDocument enforces the one-locator invariant: the payload field
// matching the declared type is populated and the others are empty. The
// content column is exempt for non-text types because it later receives
// extraction output.
func validateDocument(d *Document) error {
	switch d.DocType {
	case TypeText:
		if strings.TrimSpace(d.Content) == "" {
			return fmt.Errorf("%w: text document requires content", ErrInvalidInput)
		}
		if d.FilePath != "" || d.WebsiteURL != "" {
			return fmt.Errorf("%w: text document must not carry a file path or URL", ErrInvalidInput)
		}
	case TypeFile, TypeImage:
		if d.FilePath == "" {
			return fmt.Errorf("%w: %s document requires a file path", ErrInvalidInput, d.DocType)
		}
		if d.WebsiteURL != "" {
			return fmt.Errorf("%w: %s document must not carry a URL", ErrInvalidInput, d.DocType)
		}
	case TypeWebsite:
		if d.WebsiteURL == "" {
			return fmt.Errorf("%w: website document requires a URL", ErrInvalidInput)
		}
		if d.FilePath != "" {
			return fmt.Errorf("%w: website document must not carry a file path", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, d.DocType)
	}
	return nil
}

// defaultName derives a display name from the source payload.
func defaultName(d *Document) string {
	switch d.DocType {
	case TypeWebsite:
		return d.WebsiteURL
	case TypeFile, TypeImage:
		return d.FilePath
	default:
		if r := []rune(strings.TrimSpace(d.Content)); len(r) > 60 {
			return string(r[:60])
		}
		return strings.TrimSpace(d.Content)
	}
}
