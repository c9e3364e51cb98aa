// Package pgo implements instrumentation-based profile-guided optimization
// for the Veld compiler: region counter assignment, a stable control-flow
// fingerprint, and propagation of recorded counts back onto the AST.
//
// Design: two explicit depth-first walks over the frontend AST, dispatched
// by type switch. All state is per-function; nothing here is shared across
// functions, so concurrent compilation needs no synchronization.
package pgo

import (
	"crypto/md5"
	"encoding/binary"
	"hash"
)

// hashKind identifies a control-flow construct in the fingerprint stream.
//
// These values are persisted (through the fingerprint) in profile data.
// They must stay stable: new kinds go at the end, existing values are never
// reassigned or removed. Changing any value invalidates every profile ever
// recorded.
type hashKind uint8

const (
	hashNone hashKind = iota
	hashLabel
	hashWhile
	hashDo
	hashFor
	hashForeach
	hashForeachRange
	hashSwitch
	hashCase
	hashDefault
	hashCaseGoto
	hashIf
	hashTryCatch
	hashCatch
	hashTryFinally
	hashCondExpr
	hashAndAnd
	hashOrOr

	numHashKinds
)

const (
	// Each kind is packed into kindBits bits of the accumulator word.
	kindBits     = 6
	kindsPerWord = 64 / kindBits
	kindLimit    = 1 << kindBits
)

// Compile-time check that the kind space fits the configured bit width.
var _ [kindLimit - int(numHashKinds)]struct{}

// shapeHash accumulates the ordered control-flow kinds of one function into
// a 64-bit fingerprint. Small functions (at most kindsPerWord kinds) hash
// for free in a single word; larger ones fall through to an MD5 digest.
//
// The accumulator is byte-swapped to little-endian at every digest
// boundary, so the finalized value is identical across host endianness.
type shapeHash struct {
	working uint64
	count   uint
	digest  hash.Hash
}

func newShapeHash() *shapeHash {
	return &shapeHash{digest: md5.New()}
}

// combine folds one control-flow kind into the fingerprint. The zero kind
// is reserved and must never be combined.
func (h *shapeHash) combine(k hashKind) {
	if k == hashNone {
		panic("pgo: hash kind 0 is reserved")
	}
	if k >= kindLimit {
		panic("pgo: hash kind exceeds packed bit width")
	}

	// Flush a full accumulator word into the digest before packing more.
	if h.count > 0 && h.count%kindsPerWord == 0 {
		h.digest.Write(h.workingBytes())
		h.working = 0
	}

	h.count++
	h.working = h.working<<kindBits | uint64(k)
}

// finalize returns the fingerprint. If the digest was never needed, the
// raw accumulator is the hash; none of the packing math is
// endian-dependent, so it compares equal across platforms as-is.
func (h *shapeHash) finalize() uint64 {
	if h.count <= kindsPerWord {
		return h.working
	}

	if h.working != 0 {
		h.digest.Write(h.workingBytes())
	}

	sum := h.digest.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

func (h *shapeHash) workingBytes() []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h.working)
	return buf[:]
}
