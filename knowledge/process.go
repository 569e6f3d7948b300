package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/hazyhaar/knowbase/extract"
)

// ProcessDocument claims a pending document and runs extraction on it
// synchronously. Returns ErrAlreadyClaimed if the document is not pending,
// which also covers the case of another worker having claimed it first.
func (svc *Service) ProcessDocument(ctx context.Context, id string) error {
	claimed, err := svc.store.ClaimDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("claim document: %w", err)
	}
	if !claimed {
		return ErrAlreadyClaimed
	}
	return svc.runExtraction(ctx, id)
}

// sweepBatch is the monitor's list callback: IDs of pending documents,
// oldest first.
func (svc *Service) sweepBatch(ctx context.Context, limit int) ([]string, error) {
	docs, err := svc.store.PendingDocuments(ctx, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// processOne is the monitor's process callback. A claim that fails is not
// an error: the document was picked up by another worker or edited between
// the sweep listing and now.
func (svc *Service) processOne(ctx context.Context, id string) error {
	claimed, err := svc.store.ClaimDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("claim document: %w", err)
	}
	if !claimed {
		svc.logger.Debug("knowledge: document no longer pending, skipping", "document_id", id)
		return nil
	}
	return svc.runExtraction(ctx, id)
}

// runExtraction drives one claimed document through extraction and records
// the outcome. The revision read at claim time acts as a fencing token: if
// an administrator edits or resets the document while extraction runs, the
// revision moves on and the stale result is discarded instead of
// overwriting the newer payload.
func (svc *Service) runExtraction(ctx context.Context, id string) error {
	d, err := svc.store.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("load claimed document: %w", err)
	}
	if d == nil {
		return ErrNotFound
	}

	start := time.Now()
	logger := svc.logger.With("document_id", d.ID, "doc_type", d.DocType)
	logger.Info("knowledge: processing document")

	if err := svc.store.SetProgress(ctx, d.ID, 10); err != nil {
		logger.Warn("knowledge: progress update failed", "error", err)
	}

	// Each document gets its own deadline so one hung fetch or oversized
	// file cannot stall the whole sweep.
	extCtx, cancel := context.WithTimeout(ctx, svc.config.Monitor.DocumentTimeout)
	defer cancel()

	content, extractErr := svc.extractDocument(extCtx, d)
	elapsed := time.Since(start)

	if extractErr != nil {
		applied, ferr := svc.store.FailDocument(ctx, d.ID, d.Revision, extractErr.Error())
		if ferr != nil {
			return fmt.Errorf("record failure: %w", ferr)
		}
		svc.logAttempt(ctx, d, "error", extractErr.Error(), elapsed, applied)
		if !applied {
			logger.Warn("knowledge: stale extraction failure discarded", "revision", d.Revision)
			return nil
		}
		logger.Warn("knowledge: extraction failed",
			"error", extractErr, "kind", string(extract.KindOf(extractErr)), "duration", elapsed.String())
		return nil
	}

	applied, err := svc.store.FinishDocument(ctx, d.ID, d.Revision, StatusCompleted, content)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	svc.logAttempt(ctx, d, "ok", "", elapsed, applied)
	if !applied {
		logger.Warn("knowledge: stale extraction result discarded", "revision", d.Revision)
		return nil
	}
	logger.Info("knowledge: document completed",
		"chars", len(content), "duration", elapsed.String())
	return nil
}

// extractDocument builds the extraction source matching the document type
// and runs the pipeline.
func (svc *Service) extractDocument(ctx context.Context, d *Document) (string, error) {
	var src extract.Source
	switch d.DocType {
	case TypeText:
		src = extract.TextSource{Content: d.Content}
	case TypeFile:
		src = extract.FileSource{Path: d.FilePath}
	case TypeWebsite:
		src = extract.WebsiteSource{URL: d.WebsiteURL}
	case TypeImage:
		src = extract.ImageSource{Path: d.FilePath}
	default:
		return "", fmt.Errorf("unknown document type %q", d.DocType)
	}
	return svc.pipe.Extract(ctx, src)
}

// logAttempt records one processing attempt in the ingest log. Log write
// failures are reported but never fail the attempt itself.
func (svc *Service) logAttempt(ctx context.Context, d *Document, status, message string, elapsed time.Duration, applied bool) {
	if !applied {
		status = "stale"
	}
	entry := &IngestLogEntry{
		ID:           svc.newLogID(),
		DocumentID:   d.ID,
		Status:       status,
		ErrorMessage: message,
		DurationMs:   elapsed.Milliseconds(),
	}
	if err := svc.store.InsertIngestLog(ctx, entry); err != nil {
		svc.logger.Warn("knowledge: ingest log write failed", "document_id", d.ID, "error", err)
	}
}
