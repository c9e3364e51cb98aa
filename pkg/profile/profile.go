// Package profile implements the on-disk execution profile store.
//
// Design: a JSON document mapping function names to their recorded control
// flow hash and raw counter values. The compiler core never touches the
// format; it sees only FunctionCounts and the error taxonomy below.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Errors reported by counter lookup. The compiler reacts per class:
// unknown functions are silently skipped, mismatches and malformed records
// are dropped with a warning. None of them ever aborts compilation.
var (
	ErrUnknownFunction = errors.New("profile: no data for function")
	ErrHashMismatch    = errors.New("profile: control-flow hash mismatch")
	ErrMalformed       = errors.New("profile: malformed record")
)

// Source supplies raw execution counts by function identity. Implemented
// by Reader; the compiler depends only on this interface, so tests and
// alternative stores can stand in. Implementations must be safe for
// concurrent readers.
type Source interface {
	// FunctionCounts returns the counter values recorded for the function
	// with the given name, provided the recorded control-flow hash equals
	// hash. Errors are ErrUnknownFunction, ErrHashMismatch or
	// ErrMalformed.
	FunctionCounts(name string, hash uint64) ([]uint64, error)
}

// Data is the document stored on disk.
type Data struct {
	Version   int               `json:"version"`
	Functions map[string]Record `json:"functions"`
}

// Record is one function's recorded profile.
type Record struct {
	Hash   uint64   `json:"hash"`
	Counts []uint64 `json:"counts"`
}

// FormatVersion is the current on-disk document version.
const FormatVersion = 1

// Reader serves counter lookups from a loaded profile. It is immutable
// after Open and safe to share across concurrently compiled functions.
type Reader struct {
	data Data
}

// Open loads a profile document from path.
func Open(path string) (*Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: reading %s: %w", path, err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("profile: parsing %s: %w", path, err)
	}
	if data.Version != FormatVersion {
		return nil, fmt.Errorf("profile: %s: unsupported format version %d", path, data.Version)
	}

	return &Reader{data: data}, nil
}

// FunctionCounts implements Source.
func (r *Reader) FunctionCounts(name string, hash uint64) ([]uint64, error) {
	rec, ok := r.data.Functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if rec.Hash != hash {
		return nil, fmt.Errorf("%w: %s", ErrHashMismatch, name)
	}
	if len(rec.Counts) == 0 {
		return nil, fmt.Errorf("%w: %s: empty counter array", ErrMalformed, name)
	}
	return rec.Counts, nil
}

// NumFunctions reports how many functions the profile covers.
func (r *Reader) NumFunctions() int {
	return len(r.data.Functions)
}

// Records yields the loaded records, for inspection tooling.
func (r *Reader) Records() map[string]Record {
	out := make(map[string]Record, len(r.data.Functions))
	for name, rec := range r.data.Functions {
		out[name] = rec
	}
	return out
}
