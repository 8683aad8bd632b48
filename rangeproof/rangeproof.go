// Package rangeproof implements the Rangeproof leaf kind (spec §3.1): a
// fixed-length opaque proof blob with no lookup value and no contribution
// to any running sum.
package rangeproof

import (
	"fmt"
	"io"

	"rubin.dev/mwvalidation/mmr"
)

// Length is the single valid serialized rangeproof size (spec §3.1).
const Length = 675

// ErrorCode enumerates this package's error kinds (spec §7).
type ErrorCode string

const ErrInvalidLength ErrorCode = "InvalidLength"

// Error is this package's struct-error type.
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

// Rangeproof is an immutable, opaque Bulletproof-style range proof. Its
// internal structure is not interpreted by this package (spec §9
// Non-goals: range-proof cryptographic verification is out of scope).
type Rangeproof struct {
	proof [Length]byte
}

// New validates the proof's length and wraps it.
func New(proof []byte) (*Rangeproof, error) {
	if len(proof) != Length {
		return nil, &Error{Code: ErrInvalidLength, Msg: fmt.Sprintf("rangeproof must be exactly %d bytes, got %d", Length, len(proof))}
	}
	var rp Rangeproof
	copy(rp.proof[:], proof)
	return &rp, nil
}

// Bytes returns the proof's raw bytes.
func (rp *Rangeproof) Bytes() [Length]byte { return rp.proof }

// Equal reports whether rp and other carry identical proof bytes.
func (rp *Rangeproof) Equal(other *Rangeproof) bool {
	if other == nil {
		return false
	}
	return rp.proof == other.proof
}

var _ mmr.Leaf[struct{}] = (*Rangeproof)(nil)

// LookupValue implements mmr.Leaf: rangeproofs are never looked up by
// value (spec §3.1).
func (rp *Rangeproof) LookupValue() ([]byte, bool) { return nil, false }

// AllowDuplicateLookupValues implements mmr.Leaf. The value is irrelevant
// since LookupValue never reports ok=true, but duplicates are harmless
// blobs, so this reports true rather than false.
func (rp *Rangeproof) AllowDuplicateLookupValues() bool { return true }

// AddToSum and SubtractFromSum implement mmr.Leaf for the unit-typed sum:
// rangeproofs never contribute to a running commitment or scalar sum.
func (rp *Rangeproof) AddToSum(sum struct{}, reason mmr.AdditionReason) struct{}      { return sum }
func (rp *Rangeproof) SubtractFromSum(sum struct{}, reason mmr.SubtractionReason) struct{} { return sum }

// Save writes the fixed-length proof bytes.
func (rp *Rangeproof) Save(w io.Writer) error {
	_, err := w.Write(rp.proof[:])
	return err
}

// Restore reads a rangeproof back from its persisted bytes.
func Restore(r io.Reader) (*Rangeproof, error) {
	var buf [Length]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("rangeproof: restore: %w", err)
	}
	return New(buf[:])
}
