// Package kernel implements the Kernel leaf kind (spec §3.1/§4.3): feature
// cross-field validation, the message-to-sign, versioned wire
// serialization, fixed-layout persistence, lookup-value/duplicate
// semantics, and the kernel's contribution to the running commitment sum.
package kernel

import (
	"encoding/binary"
	"fmt"
	"io"

	"rubin.dev/mwvalidation/chainparams"
	"rubin.dev/mwvalidation/commitment"
	"rubin.dev/mwvalidation/consensus"
	"rubin.dev/mwvalidation/mmr"
)

// Features tags a kernel's cross-field validation rules (spec §3.1).
type Features uint8

const (
	Plain Features = iota
	Coinbase
	HeightLocked
	NoRecentDuplicate
	unknownFeatures
)

func (f Features) valid() bool {
	return f == Plain || f == Coinbase || f == HeightLocked || f == NoRecentDuplicate
}

// MaximumSerializedLength is the largest wire form any protocol version
// produces (spec §3.2).
const MaximumSerializedLength = 114

// ExcessLength and SignatureLength are the fixed commitment/signature
// sizes carried by every kernel.
const (
	ExcessLength    = commitment.Length
	SignatureLength = commitment.SignatureLength
)

// AllowDuplicateLookupValues is true for Kernel: excesses may legitimately
// repeat across kernels (spec §4.3).
const AllowDuplicateLookupValues = true

// Kernel is an immutable transaction kernel.
type Kernel struct {
	features       Features
	fee            uint64
	lockHeight     uint64
	relativeHeight  uint64
	excess         commitment.Commitment
	signature      [SignatureLength]byte
}

// ErrorCode enumerates this package's error kinds (spec §7).
type ErrorCode string

const (
	ErrInvalidFeatures          ErrorCode = "InvalidFeatures"
	ErrInvalidFieldCombination  ErrorCode = "InvalidFieldCombination"
	ErrInvalidCommitment        ErrorCode = "InvalidCommitment"
	ErrInvalidPublicKey         ErrorCode = "InvalidPublicKey"
	ErrInvalidSignature         ErrorCode = "InvalidSignature"
	ErrGenesisMismatch          ErrorCode = "GenesisMismatch"
	ErrInvalidLength            ErrorCode = "InvalidLength"
	ErrUnknownProtocolVersion   ErrorCode = "UnknownProtocolVersion"
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

// maximumRelativeHeight bounds NoRecentDuplicate's relative_height to one
// week of blocks (spec §3.1).
const maximumRelativeHeight = consensus.WeekHeight

func checkFeatureCombination(features Features, fee, lockHeight, relativeHeight uint64, network consensus.Network) error {
	switch features {
	case Plain:
		if lockHeight != 0 || relativeHeight != 0 {
			return newErr(ErrInvalidFieldCombination, "plain kernel must have zero lock_height and relative_height")
		}
	case Coinbase:
		if fee != 0 || lockHeight != 0 || relativeHeight != 0 {
			return newErr(ErrInvalidFieldCombination, "coinbase kernel must have zero fee, lock_height, and relative_height")
		}
	case HeightLocked:
		if relativeHeight != 0 {
			return newErr(ErrInvalidFieldCombination, "height-locked kernel must have zero relative_height")
		}
	case NoRecentDuplicate:
		if !chainparams.NoRecentDuplicateEnabled(network) {
			return newErr(ErrInvalidFeatures, "no-recent-duplicate kernels are not enabled on this network")
		}
		if lockHeight != 0 {
			return newErr(ErrInvalidFieldCombination, "no-recent-duplicate kernel must have zero lock_height")
		}
		if relativeHeight == 0 || relativeHeight > maximumRelativeHeight {
			return newErr(ErrInvalidFieldCombination, "no-recent-duplicate kernel relative_height out of range")
		}
	default:
		return newErr(ErrInvalidFeatures, "unknown kernel features")
	}
	return nil
}

// New constructs and validates a Kernel. When isGenesis is true, signature
// verification is skipped and the constructed kernel must bytewise equal
// the network's hard-coded genesis kernel (spec §4.3).
func New(features Features, fee, lockHeight, relativeHeight uint64, excess [ExcessLength]byte, signature [SignatureLength]byte, network consensus.Network, isGenesis bool) (*Kernel, error) {
	if !features.valid() {
		return nil, newErr(ErrInvalidFeatures, "features out of range")
	}
	if err := checkFeatureCombination(features, fee, lockHeight, relativeHeight, network); err != nil {
		return nil, err
	}

	parsedExcess, err := commitment.Parse(excess[:])
	if err != nil {
		return nil, newErr(ErrInvalidCommitment, err.Error())
	}

	if commitment.IsZero(parsedExcess) {
		return nil, newErr(ErrInvalidPublicKey, "excess commitment is the identity element")
	}

	if isAllZero(signature[:]) {
		return nil, newErr(ErrInvalidSignature, "signature is zero")
	}

	k := &Kernel{
		features:       features,
		fee:            fee,
		lockHeight:     lockHeight,
		relativeHeight: relativeHeight,
		excess:         parsedExcess,
		signature:      signature,
	}

	if !isGenesis {
		msg := k.messageToSign()
		if !commitment.Verify(parsedExcess, msg, signature) {
			return nil, newErr(ErrInvalidSignature, "signature does not verify against excess")
		}
	} else {
		gk := chainparams.Kernel(network)
		if !k.equalsGenesis(gk) {
			return nil, newErr(ErrGenesisMismatch, "constructed kernel does not match the genesis kernel")
		}
	}

	return k, nil
}

func (k *Kernel) equalsGenesis(gk chainparams.GenesisKernel) bool {
	if uint8(k.features) != gk.Features {
		return false
	}
	if k.fee != gk.Fee || k.lockHeight != gk.LockHeight || k.relativeHeight != gk.RelativeHeight {
		return false
	}
	if k.excess.Serialize() != gk.Excess {
		return false
	}
	if k.signature != gk.Signature {
		return false
	}
	return true
}

func isAllZero(first32 []byte) bool {
	n := len(first32)
	if n > 32 {
		n = 32
	}
	for _, b := range first32[:n] {
		if b != 0 {
			return false
		}
	}
	return true
}

// Features, Fee, LockHeight, RelativeHeight, Excess, Signature are plain
// field accessors.
func (k *Kernel) Features() Features                        { return k.features }
func (k *Kernel) Fee() uint64                                { return k.fee }
func (k *Kernel) LockHeight() uint64                         { return k.lockHeight }
func (k *Kernel) RelativeHeight() uint64                     { return k.relativeHeight }
func (k *Kernel) Excess() commitment.Commitment              { return k.excess }
func (k *Kernel) Signature() [SignatureLength]byte           { return k.signature }

// Equal reports whether k and other have identical field values.
func (k *Kernel) Equal(other *Kernel) bool {
	if other == nil {
		return false
	}
	return k.features == other.features &&
		k.fee == other.fee &&
		k.lockHeight == other.lockHeight &&
		k.relativeHeight == other.relativeHeight &&
		k.excess == other.excess &&
		k.signature == other.signature
}

// messageToSign hashes the feature-dependent signing payload (spec §4.3).
func (k *Kernel) messageToSign() [32]byte {
	buf := make([]byte, 0, 1+8+2)
	buf = append(buf, uint8(k.features))
	switch k.features {
	case Plain:
		buf = appendU64BE(buf, k.fee)
	case HeightLocked:
		buf = appendU64BE(buf, k.fee)
		buf = appendU64BE(buf, k.lockHeight)
	case NoRecentDuplicate:
		buf = appendU64BE(buf, k.fee)
		buf = appendU16BE(buf, uint16(k.relativeHeight))
	case Coinbase:
		// No additional fields.
	}
	return commitment.Blake2b256(buf)
}

func appendU64BE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU16BE(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// LookupValue returns the canonical serialized excess (spec §4.3).
func (k *Kernel) LookupValue() ([]byte, bool) {
	ser := k.excess.Serialize()
	return ser[:], true
}

var _ mmr.Leaf[commitment.Commitment] = (*Kernel)(nil)

// AllowDuplicateLookupValues implements mmr.Leaf.
func (k *Kernel) AllowDuplicateLookupValues() bool { return AllowDuplicateLookupValues }

// AddToSum implements spec §4.5: Appended and Restored both add the
// excess; sums are order-independent after serialization.
func (k *Kernel) AddToSum(sum commitment.Commitment, reason mmr.AdditionReason) commitment.Commitment {
	next, err := commitment.Add(sum, k.excess)
	if err != nil {
		// The underlying library only fails on malformed points, which
		// cannot occur here since k.excess was already parsed successfully
		// at construction time.
		panic(fmt.Sprintf("kernel: unexpected commit_sum failure: %v", err))
	}
	return next
}

// SubtractFromSum implements spec §4.5: kernels are never pruned (a no-op
// for Pruned); Rewinded and Discarded both subtract the excess, with the
// x⊖x=zero short-circuit handled inside commitment.Sub.
func (k *Kernel) SubtractFromSum(sum commitment.Commitment, reason mmr.SubtractionReason) commitment.Commitment {
	if reason == mmr.Pruned {
		return sum
	}
	next, err := commitment.Sub(sum, k.excess)
	if err != nil {
		panic(fmt.Sprintf("kernel: unexpected commit_sum failure: %v", err))
	}
	return next
}

// Save writes the kernel's fixed persistence layout (spec §4.3/§6):
// features(1) ‖ fee(8,BE) ‖ lock_height(8,BE) ‖ relative_height(8,BE) ‖
// excess(33) ‖ signature(64), independent of wire protocol version.
func (k *Kernel) Save(w io.Writer) error {
	buf := make([]byte, 0, 1+8+8+8+ExcessLength+SignatureLength)
	buf = append(buf, uint8(k.features))
	buf = appendU64BE(buf, k.fee)
	buf = appendU64BE(buf, k.lockHeight)
	buf = appendU64BE(buf, k.relativeHeight)
	ser := k.excess.Serialize()
	buf = append(buf, ser[:]...)
	buf = append(buf, k.signature[:]...)
	_, err := w.Write(buf)
	return err
}

// Restore reads a kernel back from its persistence layout. It checks only
// that the excess parses and that the feature tag is known; the
// feature-combination, signature and genesis-equality checks of New are not
// re-applied to restored state.
func Restore(r io.Reader) (*Kernel, error) {
	buf := make([]byte, 1+8+8+8+ExcessLength+SignatureLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("kernel: restore: %w", err)
	}
	features := Features(buf[0])
	fee := binary.BigEndian.Uint64(buf[1:9])
	lockHeight := binary.BigEndian.Uint64(buf[9:17])
	relativeHeight := binary.BigEndian.Uint64(buf[17:25])
	var excess [ExcessLength]byte
	copy(excess[:], buf[25:25+ExcessLength])
	var sig [SignatureLength]byte
	copy(sig[:], buf[25+ExcessLength:])

	parsedExcess, err := commitment.Parse(excess[:])
	if err != nil {
		return nil, newErr(ErrInvalidCommitment, err.Error())
	}
	if !features.valid() {
		return nil, newErr(ErrInvalidFeatures, "restored kernel has invalid features")
	}
	return &Kernel{
		features:       features,
		fee:            fee,
		lockHeight:     lockHeight,
		relativeHeight: relativeHeight,
		excess:         parsedExcess,
		signature:      sig,
	}, nil
}
