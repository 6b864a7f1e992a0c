package models

import "errors"

// Error kinds reported to callers. None of them is fatal to the process.
var (
	ErrDataSourceMissing = errors.New("data source missing")
	ErrEmptyStore        = errors.New("record store is empty")
	ErrNotFound          = errors.New("not found")
	ErrNoSession         = errors.New("no saved search for caller")
	ErrInsufficientData  = errors.New("insufficient data for comparison")
	ErrInvalidQuery      = errors.New("invalid query")
)

// ErrorKind maps err to the stable kind string used on the wire.
// Returns "internal" for errors outside the known kinds.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataSourceMissing):
		return "data_source_missing"
	case errors.Is(err, ErrEmptyStore):
		return "empty_store"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInvalidQuery):
		return "invalid_query"
	default:
		return "internal"
	}
}
