package memo

import (
	"fmt"

	"github.com/agentuity/go-memo/location"
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidLocation is matched when the storage location exists but is
	// of the wrong kind, e.g. a directory where a snapshot file belongs.
	ErrInvalidLocation = location.ErrInvalid
	// ErrStoreLoad is matched when a snapshot cannot be read or decoded.
	ErrStoreLoad = errors.New("memo: cannot load store")
	// ErrStoreSave is matched when a snapshot cannot be written.
	ErrStoreSave = errors.New("memo: cannot save store")
	// ErrKeyConstruction is matched when call arguments cannot form a key.
	ErrKeyConstruction = errors.New("memo: cannot build key")
)

// KeyError reports an argument that cannot take part in a cache key.
type KeyError struct {
	// Arg is "#<index>" for a positional argument, or the argument name.
	Arg    string
	Type   string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("memo: argument %s (%s) is not keyable: %s", e.Arg, e.Type, e.Reason)
}

func (e *KeyError) Unwrap() error {
	return ErrKeyConstruction
}

// StoreError reports a failure moving the store to or from its location.
type StoreError struct {
	// Op is one of "open", "load", "decode" or "save".
	Op       string
	Location string
	Err      error

	kind error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("memo: %s %s failed", e.Op, e.Location)
	}
	return fmt.Sprintf("memo: %s %s: %v", e.Op, e.Location, e.Err)
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.Err}
}
