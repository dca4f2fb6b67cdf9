package store

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/tx"
	"io"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// EngineFactory is a function type that creates the engine used by the store.
// This is used to abstract the creation of the engine from the store implementation.
type EngineFactory func() (db.Engine, error)

// IStore manages named datasets and hands out their transactions.
// Dataset names must match ^[a-zA-Z_][a-zA-Z0-9_]*(/[a-zA-Z_][a-zA-Z0-9_]*)*$.
// Lifecycle failures are returned as *Error, failures inside a transaction keep the
// error kinds of package model.
type IStore interface {
	// CreateDataset creates an empty dataset. The entity counter starts at 0, so the
	// first entity of the dataset is 1.
	CreateDataset(name string) (err error)
	// DeleteDataset deletes a dataset with all its statements. It waits for an active
	// write transaction on the dataset to end.
	DeleteDataset(ctx context.Context, name string) (err error)
	// DatasetExists reports whether the dataset exists.
	DatasetExists(name string) (ok bool, err error)
	// AllDatasets returns the names of all datasets in ascending order.
	AllDatasets() (names []string, err error)
	// MatchDatasetsPrefix returns all datasets whose name starts with prefix.
	MatchDatasetsPrefix(prefix string) (names []string, err error)
	// MatchDatasetsRange returns all datasets with from <= name < to.
	MatchDatasetsRange(from, to string) (names []string, err error)

	// Query runs fn with a query transaction on the dataset.
	Query(name string, fn func(q *tx.QueryTx) error) (err error)
	// Write runs fn with the write transaction of the dataset. At most one write
	// transaction per dataset is active at a time, Write blocks until it is this
	// caller's turn or ctx is done. The transaction is committed if fn returns nil and
	// cancelled otherwise; fn may also end it itself.
	Write(ctx context.Context, name string, fn func(w *tx.WriteTx) error) (err error)

	// Export writes a snapshot of the dataset to w.
	Export(name string, w io.Writer) (err error)
	// Import creates the dataset from a snapshot written by Export.
	Import(ctx context.Context, name string, r io.Reader) (err error)

	// GetDBInfo returns metadata about the namespace of a dataset.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo(name string) (info db.DatabaseInfo, err error)

	// Close closes the underlying engine.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Sentinels for errors.Is checks.
var (
	ErrDatasetNotFound = &Error{Code: RetCDatasetNotFound}
	ErrDatasetExists   = &Error{Code: RetCDatasetExists}
	ErrInvalidName     = &Error{Code: RetCInvalidOperation}
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation (e.g. malformed dataset name).
	RetCDatasetNotFound                     // 4: The dataset does not exist.
	RetCDatasetExists                       // 5: The dataset already exists.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCDatasetNotFound:
		return "DatasetNotFound"
	case RetCDatasetExists:
		return "DatasetExists"
	default:
		return "Unknown"
	}
}
