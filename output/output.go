// Package output implements the Output leaf kind (spec §3.1/§4.3): a
// commitment tagged with Plain or Coinbase features, its persistence
// layout, lookup-value semantics, and its contribution to the running
// commitment sum.
package output

import (
	"fmt"
	"io"

	"rubin.dev/mwvalidation/chainparams"
	"rubin.dev/mwvalidation/commitment"
	"rubin.dev/mwvalidation/consensus"
	"rubin.dev/mwvalidation/mmr"
)

// Features tags whether an output was produced by a coinbase transaction
// (spec §3.1); Unknown values are rejected at construction.
type Features uint8

const (
	Plain Features = iota
	Coinbase
	unknownFeatures
)

func (f Features) valid() bool {
	return f == Plain || f == Coinbase
}

// CommitmentLength is the fixed serialized commitment size.
const CommitmentLength = commitment.Length

// AllowDuplicateLookupValues is false for Output: two live outputs must
// never share a commitment (spec §4.3).
const AllowDuplicateLookupValues = false

// Output is an immutable transaction output.
type Output struct {
	features   Features
	commitment commitment.Commitment
}

// ErrorCode enumerates this package's error kinds (spec §7).
type ErrorCode string

const (
	ErrInvalidFeatures   ErrorCode = "InvalidFeatures"
	ErrInvalidCommitment ErrorCode = "InvalidCommitment"
	ErrGenesisMismatch   ErrorCode = "GenesisMismatch"
	ErrInvalidLength     ErrorCode = "InvalidLength"
)

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

func newErr(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// New constructs and validates an Output. When isGenesis is true, the
// constructed output must bytewise equal the network's hard-coded genesis
// output (spec §4.3/§6).
func New(features Features, commitBytes [CommitmentLength]byte, network consensus.Network, isGenesis bool) (*Output, error) {
	if !features.valid() {
		return nil, newErr(ErrInvalidFeatures, "features out of range")
	}

	c, err := commitment.Parse(commitBytes[:])
	if err != nil {
		return nil, newErr(ErrInvalidCommitment, err.Error())
	}

	o := &Output{features: features, commitment: c}

	if isGenesis {
		go_ := chainparams.Output(network)
		if uint8(o.features) != go_.Features || o.commitment.Serialize() != go_.Commitment {
			return nil, newErr(ErrGenesisMismatch, "constructed output does not match the genesis output")
		}
	}

	return o, nil
}

// Features and Commitment are plain field accessors.
func (o *Output) Features() Features                   { return o.features }
func (o *Output) Commitment() commitment.Commitment     { return o.commitment }

// Equal reports whether o and other have identical field values.
func (o *Output) Equal(other *Output) bool {
	if other == nil {
		return false
	}
	return o.features == other.features && o.commitment == other.commitment
}

// LookupValue returns the canonical serialized commitment (spec §4.3).
func (o *Output) LookupValue() ([]byte, bool) {
	ser := o.commitment.Serialize()
	return ser[:], true
}

var _ mmr.Leaf[commitment.Commitment] = (*Output)(nil)

// AllowDuplicateLookupValues implements mmr.Leaf.
func (o *Output) AllowDuplicateLookupValues() bool { return AllowDuplicateLookupValues }

// AddToSum implements spec §4.5: Appended and Restored both add the
// commitment to the running sum.
func (o *Output) AddToSum(sum commitment.Commitment, reason mmr.AdditionReason) commitment.Commitment {
	next, err := commitment.Add(sum, o.commitment)
	if err != nil {
		panic(fmt.Sprintf("output: unexpected commit_sum failure: %v", err))
	}
	return next
}

// SubtractFromSum implements spec §4.5: Pruned and Rewinded both subtract
// the commitment; Discarded is a no-op and returns sum unchanged.
// mmr.MMR.DiscardAll resets the sum to zero itself after its per-leaf
// calls, so a discarded Output MMR still ends with a zero sum.
func (o *Output) SubtractFromSum(sum commitment.Commitment, reason mmr.SubtractionReason) commitment.Commitment {
	if reason == mmr.Discarded {
		return sum
	}
	next, err := commitment.Sub(sum, o.commitment)
	if err != nil {
		panic(fmt.Sprintf("output: unexpected commit_sum failure: %v", err))
	}
	return next
}

// Save writes the output's fixed persistence layout: features(1) ‖
// commitment(33).
func (o *Output) Save(w io.Writer) error {
	buf := make([]byte, 0, 1+CommitmentLength)
	buf = append(buf, uint8(o.features))
	ser := o.commitment.Serialize()
	buf = append(buf, ser[:]...)
	_, err := w.Write(buf)
	return err
}

// Restore reads an output back from its persistence layout.
func Restore(r io.Reader) (*Output, error) {
	buf := make([]byte, 1+CommitmentLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("output: restore: %w", err)
	}
	features := Features(buf[0])
	if !features.valid() {
		return nil, newErr(ErrInvalidFeatures, "restored output has invalid features")
	}
	c, err := commitment.Parse(buf[1:])
	if err != nil {
		return nil, newErr(ErrInvalidCommitment, err.Error())
	}
	return &Output{features: features, commitment: c}, nil
}
