package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrCollectionNotFound = errors.New("db: collection not found")
	ErrDimensionMismatch  = errors.New("db: vector dimension mismatch")
	ErrInvalidQuery       = errors.New("db: invalid query")
)

// Op names used for error context.
const (
	OpPing             = "PING"
	OpCreateCollection = "CREATE_COLLECTION"
	OpCollectionInfo   = "COLLECTION_INFO"
	OpUpsert           = "UPSERT"
	OpSearch           = "SEARCH"
	OpMigrate          = "MIGRATE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ValidateQuery checks the parts of a KNN query every driver relies on.
func ValidateQuery(q *KNNQuery) error {
	switch {
	case q == nil:
		return errors.Join(ErrInvalidQuery, errors.New("query is required"))
	case q.Collection == "":
		return errors.Join(ErrInvalidQuery, errors.New("collection is required"))
	case len(q.Vector) == 0:
		return errors.Join(ErrInvalidQuery, errors.New("vector is required"))
	case q.K <= 0:
		return errors.Join(ErrInvalidQuery, errors.New("k must be positive"))
	}
	return nil
}
