package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound        = errors.New("db: key not found")
	ErrIndexNotFound      = errors.New("db: index not found")
	ErrIndexExists        = errors.New("db: index already exists")
	ErrVectorNotSupported = errors.New("db: vector search not supported")
)

// Op constants name the backend operation for error context. Redis
// operations use the command name.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpJSONSet     = "JSON.SET"
	OpJSONGet     = "JSON.GET"
	OpDel         = "DEL"
	OpExists      = "EXISTS"
	OpGet         = "GET"
	OpSet         = "SET"
	OpOpen        = "OPEN"
	OpIndexDoc    = "INDEX"
	OpDeleteDoc   = "DELETE"
	OpGetInternal = "GET_INTERNAL"
	OpSetInternal = "SET_INTERNAL"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
