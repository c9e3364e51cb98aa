package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veld.profdata")

	b := NewBuilder()
	b.Add("main", 0xdeadbeef, []uint64{100, 40, 7})
	b.Add("helper", 42, []uint64{5})
	require.NoError(t, b.WriteFile(path))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.NumFunctions())

	counts, err := r.FunctionCounts("main", 0xdeadbeef)
	require.NoError(t, err)
	assert.Equal(t, []uint64{100, 40, 7}, counts)
}

func TestFunctionCountsErrorTaxonomy(t *testing.T) {
	b := NewBuilder()
	b.Add("f", 7, []uint64{1, 2})
	b.Add("empty", 9, nil)
	r := b.Reader()

	_, err := r.FunctionCounts("missing", 7)
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = r.FunctionCounts("f", 8)
	assert.ErrorIs(t, err, ErrHashMismatch)

	_, err = r.FunctionCounts("empty", 9)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestOpenRejectsBadDocuments(t *testing.T) {
	dir := t.TempDir()

	garbled := filepath.Join(dir, "garbled.profdata")
	require.NoError(t, os.WriteFile(garbled, []byte("{not json"), 0644))
	_, err := Open(garbled)
	assert.Error(t, err)

	wrongVersion := filepath.Join(dir, "version.profdata")
	require.NoError(t, os.WriteFile(wrongVersion, []byte(`{"version":99,"functions":{}}`), 0644))
	_, err = Open(wrongVersion)
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "does-not-exist"))
	assert.Error(t, err)
}

func TestMergeSumsMatchingRecords(t *testing.T) {
	a := NewBuilder()
	a.Add("f", 7, []uint64{10, 1})
	a.Add("g", 3, []uint64{2})

	b := NewBuilder()
	b.Add("f", 7, []uint64{5, 4})
	b.Add("h", 11, []uint64{6})

	skipped := a.Merge(b.Reader().Records())
	assert.Empty(t, skipped)

	counts, err := a.Reader().FunctionCounts("f", 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{15, 5}, counts)

	counts, err = a.Reader().FunctionCounts("h", 11)
	require.NoError(t, err)
	assert.Equal(t, []uint64{6}, counts)
}

func TestMergeSkipsMismatchedHashes(t *testing.T) {
	a := NewBuilder()
	a.Add("f", 7, []uint64{10})

	b := NewBuilder()
	b.Add("f", 8, []uint64{5})

	skipped := a.Merge(b.Reader().Records())
	assert.Equal(t, []string{"f"}, skipped)

	// The original record survives untouched.
	counts, err := a.Reader().FunctionCounts("f", 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10}, counts)
}
