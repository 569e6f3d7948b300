package knowledge

import "errors"

// ErrNotFound is returned when a document or category does not exist.
var ErrNotFound = errors.New("knowledge: not found")

// ErrInvalidInput is returned when a document or category fails validation.
var ErrInvalidInput = errors.New("knowledge: invalid input")

// ErrDuplicateCategory is returned when a category name already exists for
// the account.
var ErrDuplicateCategory = errors.New("knowledge: category with this name already exists")

// ErrAlreadyClaimed is returned when a document is not in pending status at
// claim time (another worker holds it, or it was edited away).
var ErrAlreadyClaimed = errors.New("knowledge: document is not pending")
