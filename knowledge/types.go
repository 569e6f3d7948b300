package knowledge

import (
	"github.com/hazyhaar/knowbase/knowledge/internal/store"
)

// Re-export store types for the public API.
type (
	Document       = store.Document
	Category       = store.Category
	IngestLogEntry = store.IngestLogEntry
	Stats          = store.Stats
)

// Document lifecycle statuses. A document is created pending, claimed into
// processing by the monitor, and terminates in completed, indexed, or
// error; an administrative reset returns it to pending from any status.
const (
	StatusPending    = store.StatusPending
	StatusProcessing = store.StatusProcessing
	StatusCompleted  = store.StatusCompleted
	StatusIndexed    = store.StatusIndexed
	StatusError      = store.StatusError
)

// Declared document types.
const (
	TypeText    = store.TypeText
	TypeFile    = store.TypeFile
	TypeWebsite = store.TypeWebsite
	TypeImage   = store.TypeImage
)
