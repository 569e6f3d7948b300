package store

// Document lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusIndexed    = "indexed"
	StatusError      = "error"
)

// Declared document types.
const (
	TypeText    = "text"
	TypeFile    = "file"
	TypeWebsite = "website"
	TypeImage   = "image"
)

// Document is a unit of knowledge-base content submitted for ingestion.
// Exactly one of Content, FilePath, WebsiteURL is populated at creation,
// matching DocType; after processing, Content additionally holds the
// normalized extraction result.
type Document struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DocType      string `json:"doc_type"`
	Content      string `json:"content"`
	FilePath     string `json:"file_path"`
	WebsiteURL   string `json:"website_url"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Progress     int    `json:"progress"`
	Revision     int64  `json:"revision"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Category is a label groupable with zero or more documents.
type Category struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// IngestLogEntry records one processing attempt for a document.
type IngestLogEntry struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	DurationMs   int64  `json:"duration_ms"`
	ProcessedAt  int64  `json:"processed_at"`
}

// Stats holds aggregate document counters per status.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Indexed    int `json:"indexed"`
	Error      int `json:"error"`
	Total      int `json:"total"`
}
