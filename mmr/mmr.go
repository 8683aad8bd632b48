// Package mmr implements the generic append-only leaf accumulator described
// in spec §3.3/§4.7: an ordered sequence of leaves of one kind, a running
// "sum" accumulator, and an optional lookup index used for deduplication.
//
// The MMR is generic over the leaf kind to avoid virtual-call overhead on
// the hot append/restore path (spec §9's "avoid virtual-call overhead"
// design note), following the general comfort with parametric generics
// already present in the example corpus's own MMR packages (e.g.
// forestrie-go-merklelog/mmr), adapted here to carry a leaf-associated sum
// type rather than that package's pure index arithmetic.
package mmr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// AdditionReason enumerates why a leaf's contribution is being added to the
// running sum (spec §3.2/§4.6).
type AdditionReason int

const (
	Appended AdditionReason = iota
	Restored
)

func (r AdditionReason) String() string {
	switch r {
	case Appended:
		return "appended"
	case Restored:
		return "restored"
	default:
		return "unknown"
	}
}

// SubtractionReason enumerates why a leaf's contribution is being removed
// from the running sum.
type SubtractionReason int

const (
	Pruned SubtractionReason = iota
	Rewinded
	Discarded
)

func (r SubtractionReason) String() string {
	switch r {
	case Pruned:
		return "pruned"
	case Rewinded:
		return "rewinded"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Leaf is the capability every MMR leaf kind provides (spec §3.2). S is the
// leaf kind's associated accumulator type (e.g. commitment.Commitment for
// Kernel/Output, struct{} for Header/Rangeproof).
type Leaf[S any] interface {
	// Save writes the on-disk form of the leaf, which may differ from its
	// wire form.
	Save(w io.Writer) error

	// LookupValue returns the dedup key for this leaf, or ok=false if this
	// leaf kind has none.
	LookupValue() (value []byte, ok bool)

	// AllowDuplicateLookupValues reports whether this leaf kind's MMR
	// permits repeated lookup values.
	AllowDuplicateLookupValues() bool

	// AddToSum returns sum with this leaf's contribution added, for the
	// given reason. Leaf kinds without arithmetic (Header, Rangeproof)
	// return sum unchanged.
	AddToSum(sum S, reason AdditionReason) S

	// SubtractFromSum returns sum with this leaf's contribution removed,
	// for the given reason.
	SubtractFromSum(sum S, reason SubtractionReason) S
}

// ErrorCode enumerates the error kinds this package surfaces (spec §7).
type ErrorCode string

const (
	ErrDuplicateLeaf      ErrorCode = "DuplicateLeaf"
	ErrIndexOutOfRange    ErrorCode = "IndexOutOfRange"
	ErrCorruptPersistence ErrorCode = "CorruptPersistence"
)

// Error is the struct-error type this package returns, following the shape
// of the teacher's consensus/errors.go (ErrorCode + message, no hierarchy).
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newErr(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Codec knows how to persist and restore an MMR's sum accumulator. The
// encoded length is leaf-kind-specific: 33 bytes for Kernel/Output sums,
// zero bytes for the trivial Header/Rangeproof sum (spec §6).
type Codec[S any] interface {
	Zero() S
	Encode(S) []byte
	Decode([]byte) (S, error)
}

// MMR is the generic accumulator described in spec §3.3. L is the concrete
// leaf type, S its associated sum type.
type MMR[L Leaf[S], S any] struct {
	leaves  []L
	pruned  []bool
	sum     S
	index   map[string]uint64
	codec   Codec[S]
	restore func(io.Reader) (L, error)
}

// New creates an empty MMR. restoreLeaf is used only by Restore to read a
// single leaf back from its on-disk form.
func New[L Leaf[S], S any](codec Codec[S], restoreLeaf func(io.Reader) (L, error)) *MMR[L, S] {
	return &MMR[L, S]{
		sum:     codec.Zero(),
		index:   make(map[string]uint64),
		codec:   codec,
		restore: restoreLeaf,
	}
}

// Count returns the number of leaf slots currently held, including pruned
// ones (append-only indexing, spec §3.3); RewindTo and DiscardAll reduce it.
func (m *MMR[L, S]) Count() uint64 {
	return uint64(len(m.leaves))
}

// Sum returns the current running accumulator.
func (m *MMR[L, S]) Sum() S {
	return m.sum
}

// Get returns the leaf at index i and whether it is still live (not
// pruned). The leaf data is returned regardless of liveness: pruning
// removes a leaf from the lookup index and the sum, not from the log.
func (m *MMR[L, S]) Get(i uint64) (leaf L, live bool, err error) {
	if i >= uint64(len(m.leaves)) {
		return leaf, false, newErr(ErrIndexOutOfRange, fmt.Sprintf("index %d out of range (count=%d)", i, len(m.leaves)))
	}
	return m.leaves[i], !m.pruned[i], nil
}

// Append grows the sequence by one leaf (spec §4.7).
func (m *MMR[L, S]) Append(leaf L) (index uint64, err error) {
	if !leaf.AllowDuplicateLookupValues() {
		if lv, ok := leaf.LookupValue(); ok {
			if _, exists := m.index[string(lv)]; exists {
				return 0, newErr(ErrDuplicateLeaf, "lookup value already present")
			}
		}
	}
	idx := uint64(len(m.leaves))
	if lv, ok := leaf.LookupValue(); ok && !leaf.AllowDuplicateLookupValues() {
		m.index[string(lv)] = idx
	}
	m.sum = leaf.AddToSum(m.sum, Appended)
	m.leaves = append(m.leaves, leaf)
	m.pruned = append(m.pruned, false)
	return idx, nil
}

// Prune removes the leaf at index i from the lookup index (if present) and
// from the running sum. The leaf slot itself is retained.
func (m *MMR[L, S]) Prune(i uint64) error {
	if i >= uint64(len(m.leaves)) {
		return newErr(ErrIndexOutOfRange, fmt.Sprintf("index %d out of range (count=%d)", i, len(m.leaves)))
	}
	if m.pruned[i] {
		return nil
	}
	leaf := m.leaves[i]
	if lv, ok := leaf.LookupValue(); ok {
		delete(m.index, string(lv))
	}
	m.sum = leaf.SubtractFromSum(m.sum, Pruned)
	m.pruned[i] = true
	return nil
}

// RewindTo truncates the tail beyond leaf count n, subtracting every
// removed live leaf's contribution in reverse index order.
func (m *MMR[L, S]) RewindTo(n uint64) error {
	count := uint64(len(m.leaves))
	if n > count {
		return newErr(ErrIndexOutOfRange, fmt.Sprintf("target count %d exceeds current count %d", n, count))
	}
	for i := count; i > n; i-- {
		idx := i - 1
		leaf := m.leaves[idx]
		if !m.pruned[idx] {
			if lv, ok := leaf.LookupValue(); ok {
				delete(m.index, string(lv))
			}
			m.sum = leaf.SubtractFromSum(m.sum, Rewinded)
		}
	}
	m.leaves = m.leaves[:n]
	m.pruned = m.pruned[:n]
	return nil
}

// DiscardAll empties the structure, subtracting every live leaf's
// contribution from the running sum.
func (m *MMR[L, S]) DiscardAll() {
	for i := len(m.leaves) - 1; i >= 0; i-- {
		if !m.pruned[i] {
			m.sum = m.leaves[i].SubtractFromSum(m.sum, Discarded)
		}
	}
	m.leaves = nil
	m.pruned = nil
	m.index = make(map[string]uint64)
	m.sum = m.codec.Zero()
}

// Save writes count ‖ saved_sum ‖ pruned-bitmap ‖ leaves[0..count) to w, per
// spec §6. The pruned bitmap is this module's resolution of the otherwise
// unspecified on-disk representation of a pruned-but-retained slot: each
// leaf's bytes are always written (the log never forgets a slot), and a bit
// records whether replaying it on restore should contribute to the sum.
func (m *MMR[L, S]) Save(w io.Writer) error {
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(m.leaves)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return fmt.Errorf("mmr: write count: %w", err)
	}
	if _, err := w.Write(m.codec.Encode(m.sum)); err != nil {
		return fmt.Errorf("mmr: write sum: %w", err)
	}
	bitmap := make([]byte, (len(m.pruned)+7)/8)
	for i, p := range m.pruned {
		if p {
			bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	if _, err := w.Write(bitmap); err != nil {
		return fmt.Errorf("mmr: write pruned bitmap: %w", err)
	}
	for _, leaf := range m.leaves {
		if err := leaf.Save(w); err != nil {
			return fmt.Errorf("mmr: save leaf: %w", err)
		}
	}
	return nil
}

// Restore replaces the MMR's contents by reading the form Save wrote,
// replaying add_to_sum(Restored) for every live leaf in index order and
// comparing the result against the saved sum. A mismatch means corrupt
// state (spec §6).
func (m *MMR[L, S]) Restore(r io.Reader) error {
	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return fmt.Errorf("mmr: read count: %w", err)
	}
	count := binary.BigEndian.Uint64(countBuf[:])

	sumLen := len(m.codec.Encode(m.codec.Zero()))
	sumBuf := make([]byte, sumLen)
	if sumLen > 0 {
		if _, err := io.ReadFull(r, sumBuf); err != nil {
			return fmt.Errorf("mmr: read sum: %w", err)
		}
	}
	savedSum, err := m.codec.Decode(sumBuf)
	if err != nil {
		return fmt.Errorf("mmr: decode sum: %w", err)
	}

	bitmap := make([]byte, (count+7)/8)
	if len(bitmap) > 0 {
		if _, err := io.ReadFull(r, bitmap); err != nil {
			return fmt.Errorf("mmr: read pruned bitmap: %w", err)
		}
	}

	leaves := make([]L, 0, count)
	pruned := make([]bool, 0, count)
	index := make(map[string]uint64)
	sum := m.codec.Zero()
	for i := uint64(0); i < count; i++ {
		leaf, err := m.restore(r)
		if err != nil {
			return fmt.Errorf("mmr: restore leaf %d: %w", i, err)
		}
		isPruned := bitmap[i/8]&(1<<uint(i%8)) != 0
		leaves = append(leaves, leaf)
		pruned = append(pruned, isPruned)
		if !isPruned {
			sum = leaf.AddToSum(sum, Restored)
			if lv, ok := leaf.LookupValue(); ok && !leaf.AllowDuplicateLookupValues() {
				index[string(lv)] = i
			}
		}
	}

	if len(m.codec.Encode(sum)) != len(m.codec.Encode(savedSum)) ||
		string(m.codec.Encode(sum)) != string(m.codec.Encode(savedSum)) {
		return newErr(ErrCorruptPersistence, "replayed sum does not match saved sum")
	}

	m.leaves = leaves
	m.pruned = pruned
	m.index = index
	m.sum = sum
	return nil
}
