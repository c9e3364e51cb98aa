// Profile writing and merging, used by the instrumented runtime's dump
// path and by `veldc profile merge`.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Builder accumulates function records for writing. Not safe for
// concurrent use; the runtime serializes its dump.
type Builder struct {
	data Data
}

// NewBuilder returns an empty profile builder.
func NewBuilder() *Builder {
	return &Builder{data: Data{
		Version:   FormatVersion,
		Functions: make(map[string]Record),
	}}
}

// Add records one function's counters, replacing any previous record for
// the same name.
func (b *Builder) Add(name string, hash uint64, counts []uint64) {
	b.data.Functions[name] = Record{Hash: hash, Counts: append([]uint64(nil), counts...)}
}

// Merge folds other into the builder. Counters of records with matching
// name and hash are summed element-wise; a record whose hash disagrees
// with an already merged one replaces nothing and is reported.
func (b *Builder) Merge(other map[string]Record) []string {
	var skipped []string
	for name, rec := range other {
		prev, ok := b.data.Functions[name]
		if !ok {
			b.Add(name, rec.Hash, rec.Counts)
			continue
		}
		if prev.Hash != rec.Hash || len(prev.Counts) != len(rec.Counts) {
			skipped = append(skipped, name)
			continue
		}
		sum := make([]uint64, len(prev.Counts))
		for i := range sum {
			sum[i] = prev.Counts[i] + rec.Counts[i]
		}
		b.data.Functions[name] = Record{Hash: prev.Hash, Counts: sum}
	}
	return skipped
}

// WriteFile writes the accumulated profile document to path.
func (b *Builder) WriteFile(path string) error {
	raw, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: encoding: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("profile: writing %s: %w", path, err)
	}
	return nil
}

// Reader returns a read view over the accumulated records, mainly for
// tests that feed a built profile straight back into compilation.
func (b *Builder) Reader() *Reader {
	return &Reader{data: b.data}
}
