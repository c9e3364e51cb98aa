package pgo

import (
	"crypto/md5"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeHashSmallFunctionIsRawAccumulator(t *testing.T) {
	// Up to kindsPerWord kinds the fingerprint is the packed accumulator
	// itself, recoverable by inspection.
	h := newShapeHash()
	h.combine(hashIf)
	h.combine(hashWhile)

	want := uint64(hashIf)<<kindBits | uint64(hashWhile)
	assert.Equal(t, want, h.finalize())
}

func TestShapeHashWordCapacityBoundary(t *testing.T) {
	// Exactly kindsPerWord kinds still takes the raw path.
	h := newShapeHash()
	var want uint64
	for i := 0; i < kindsPerWord; i++ {
		h.combine(hashIf)
		want = want<<kindBits | uint64(hashIf)
	}
	assert.Equal(t, want, h.finalize())
}

func TestShapeHashDigestPath(t *testing.T) {
	// One past capacity switches to the MD5 path. The digest consumes
	// little-endian accumulator words, so the expected value can be
	// reproduced byte for byte.
	const n = kindsPerWord + 2

	h := newShapeHash()
	for i := 0; i < n; i++ {
		h.combine(hashIf)
	}
	got := h.finalize()

	var word1, word2 uint64
	for i := 0; i < kindsPerWord; i++ {
		word1 = word1<<kindBits | uint64(hashIf)
	}
	for i := kindsPerWord; i < n; i++ {
		word2 = word2<<kindBits | uint64(hashIf)
	}

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], word1)
	binary.LittleEndian.PutUint64(buf[8:], word2)
	sum := md5.Sum(buf[:])
	want := binary.LittleEndian.Uint64(sum[:8])

	assert.Equal(t, want, got)

	// And the digest path must not collide with the raw path for the
	// capacity-sized prefix.
	raw := newShapeHash()
	for i := 0; i < kindsPerWord; i++ {
		raw.combine(hashIf)
	}
	assert.NotEqual(t, raw.finalize(), got)
}

func TestShapeHashDeterminism(t *testing.T) {
	seq := []hashKind{hashWhile, hashIf, hashSwitch, hashCase, hashCaseGoto, hashTryCatch, hashCatch,
		hashAndAnd, hashOrOr, hashCondExpr, hashFor, hashForeachRange, hashDo, hashLabel}

	a, b := newShapeHash(), newShapeHash()
	for _, k := range seq {
		a.combine(k)
		b.combine(k)
	}
	assert.Equal(t, a.finalize(), b.finalize())
}

func TestShapeHashRejectsReservedKind(t *testing.T) {
	h := newShapeHash()
	require.Panics(t, func() { h.combine(hashNone) })
}
