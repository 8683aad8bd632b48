// Package header implements the Header leaf kind (spec §3.1): the fixed
// block-header fields, genesis equality, and a trivial (no-op) sum
// contribution since headers carry no commitment or scalar accumulator.
package header

import (
	"encoding/binary"
	"fmt"
	"io"

	"rubin.dev/mwvalidation/chainparams"
	"rubin.dev/mwvalidation/consensus"
	"rubin.dev/mwvalidation/mmr"
)

// ProofNonceCount is the fixed Cuckoo-cycle proof length (spec §3.1).
const ProofNonceCount = 42

// Header is an immutable block header.
type Header struct {
	version            uint16
	height             uint64
	timestamp          int64
	previousBlockHash  [32]byte
	previousHeaderRoot [32]byte
	outputRoot         [32]byte
	rangeproofRoot     [32]byte
	kernelRoot         [32]byte
	totalKernelOffset  [32]byte
	outputMMRSize      uint64
	kernelMMRSize      uint64
	totalDifficulty    uint64
	secondaryScaling   uint32
	nonce              uint64
	edgeBits           uint8
	proofNonces        [ProofNonceCount]uint64
}

// ErrorCode enumerates this package's error kinds (spec §7).
type ErrorCode string

const (
	ErrInvalidEdgeBits ErrorCode = "InvalidEdgeBits"
	ErrGenesisMismatch ErrorCode = "GenesisMismatch"
	ErrInvalidLength   ErrorCode = "InvalidLength"
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

// Fields is the plain-data constructor payload for New, matching spec
// §3.1's field list one for one.
type Fields struct {
	Version            uint16
	Height             uint64
	Timestamp          int64
	PreviousBlockHash  [32]byte
	PreviousHeaderRoot [32]byte
	OutputRoot         [32]byte
	RangeproofRoot     [32]byte
	KernelRoot         [32]byte
	TotalKernelOffset  [32]byte
	OutputMMRSize      uint64
	KernelMMRSize      uint64
	TotalDifficulty    uint64
	SecondaryScaling   uint32
	Nonce              uint64
	EdgeBits           uint8
	ProofNonces        [ProofNonceCount]uint64
}

// New constructs and validates a Header. When isGenesis is true, the
// constructed header must bytewise equal the network's hard-coded genesis
// header (spec §4.3/§6).
func New(f Fields, network consensus.Network, isGenesis bool) (*Header, error) {
	if f.EdgeBits == 0 || f.EdgeBits > consensus.MaximumEdgeBits {
		return nil, newErr(ErrInvalidEdgeBits, "edge_bits out of range")
	}

	h := &Header{
		version:            f.Version,
		height:             f.Height,
		timestamp:          f.Timestamp,
		previousBlockHash:  f.PreviousBlockHash,
		previousHeaderRoot: f.PreviousHeaderRoot,
		outputRoot:         f.OutputRoot,
		rangeproofRoot:     f.RangeproofRoot,
		kernelRoot:         f.KernelRoot,
		totalKernelOffset:  f.TotalKernelOffset,
		outputMMRSize:      f.OutputMMRSize,
		kernelMMRSize:      f.KernelMMRSize,
		totalDifficulty:    f.TotalDifficulty,
		secondaryScaling:   f.SecondaryScaling,
		nonce:              f.Nonce,
		edgeBits:           f.EdgeBits,
		proofNonces:        f.ProofNonces,
	}

	if isGenesis {
		g := chainparams.Header(network)
		if !h.equalsGenesis(g) {
			return nil, newErr(ErrGenesisMismatch, "constructed header does not match the genesis header")
		}
	}

	return h, nil
}

func (h *Header) equalsGenesis(g chainparams.GenesisHeader) bool {
	return h.version == g.Version &&
		h.height == g.Height &&
		h.timestamp == g.Timestamp &&
		h.previousBlockHash == g.PreviousBlockHash &&
		h.previousHeaderRoot == g.PreviousHeaderRoot &&
		h.outputRoot == g.OutputRoot &&
		h.rangeproofRoot == g.RangeproofRoot &&
		h.kernelRoot == g.KernelRoot &&
		h.totalKernelOffset == g.TotalKernelOffset &&
		h.outputMMRSize == g.OutputMMRSize &&
		h.kernelMMRSize == g.KernelMMRSize &&
		h.totalDifficulty == g.TotalDifficulty &&
		h.secondaryScaling == g.SecondaryScaling &&
		h.nonce == g.Nonce &&
		h.edgeBits == g.EdgeBits &&
		h.proofNonces == g.ProofNonces
}

// Field accessors.
func (h *Header) Version() uint16               { return h.version }
func (h *Header) Height() uint64                { return h.height }
func (h *Header) Timestamp() int64              { return h.timestamp }
func (h *Header) PreviousBlockHash() [32]byte   { return h.previousBlockHash }
func (h *Header) PreviousHeaderRoot() [32]byte  { return h.previousHeaderRoot }
func (h *Header) OutputRoot() [32]byte          { return h.outputRoot }
func (h *Header) RangeproofRoot() [32]byte      { return h.rangeproofRoot }
func (h *Header) KernelRoot() [32]byte          { return h.kernelRoot }
func (h *Header) TotalKernelOffset() [32]byte   { return h.totalKernelOffset }
func (h *Header) OutputMMRSize() uint64         { return h.outputMMRSize }
func (h *Header) KernelMMRSize() uint64         { return h.kernelMMRSize }
func (h *Header) TotalDifficulty() uint64       { return h.totalDifficulty }
func (h *Header) SecondaryScaling() uint32      { return h.secondaryScaling }
func (h *Header) Nonce() uint64                 { return h.nonce }
func (h *Header) EdgeBits() uint8               { return h.edgeBits }
func (h *Header) ProofNonces() [ProofNonceCount]uint64 { return h.proofNonces }

// Equal reports whether h and other have identical field values.
func (h *Header) Equal(other *Header) bool {
	if other == nil {
		return false
	}
	return *h == *other
}

var _ mmr.Leaf[struct{}] = (*Header)(nil)

// LookupValue implements mmr.Leaf: headers are never looked up by value.
func (h *Header) LookupValue() ([]byte, bool) { return nil, false }

// AllowDuplicateLookupValues implements mmr.Leaf; irrelevant since
// LookupValue never reports ok=true.
func (h *Header) AllowDuplicateLookupValues() bool { return true }

// AddToSum and SubtractFromSum implement mmr.Leaf for the unit-typed sum:
// headers never contribute to a running sum (spec §4.5).
func (h *Header) AddToSum(sum struct{}, reason mmr.AdditionReason) struct{}      { return sum }
func (h *Header) SubtractFromSum(sum struct{}, reason mmr.SubtractionReason) struct{} { return sum }

const savedLength = 2 + 8 + 8 + 32*6 + 8 + 8 + 8 + 4 + 8 + 1 + ProofNonceCount*8

// Save writes the header's fixed persistence layout, all integers
// big-endian: version ‖ height ‖ timestamp ‖ previous_block_hash ‖
// previous_header_root ‖ output_root ‖ rangeproof_root ‖ kernel_root ‖
// total_kernel_offset ‖ output_mmr_size ‖ kernel_mmr_size ‖
// total_difficulty ‖ secondary_scaling ‖ nonce ‖ edge_bits ‖ proof_nonces.
func (h *Header) Save(w io.Writer) error {
	buf := make([]byte, 0, savedLength)
	buf = appendU16(buf, h.version)
	buf = appendU64(buf, h.height)
	buf = appendU64(buf, uint64(h.timestamp))
	buf = append(buf, h.previousBlockHash[:]...)
	buf = append(buf, h.previousHeaderRoot[:]...)
	buf = append(buf, h.outputRoot[:]...)
	buf = append(buf, h.rangeproofRoot[:]...)
	buf = append(buf, h.kernelRoot[:]...)
	buf = append(buf, h.totalKernelOffset[:]...)
	buf = appendU64(buf, h.outputMMRSize)
	buf = appendU64(buf, h.kernelMMRSize)
	buf = appendU64(buf, h.totalDifficulty)
	buf = appendU32(buf, h.secondaryScaling)
	buf = appendU64(buf, h.nonce)
	buf = append(buf, h.edgeBits)
	for _, pn := range h.proofNonces {
		buf = appendU64(buf, pn)
	}
	_, err := w.Write(buf)
	return err
}

// Restore reads a header back from its persistence layout.
func Restore(r io.Reader) (*Header, error) {
	buf := make([]byte, savedLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("header: restore: %w", err)
	}
	pos := 0
	readU16 := func() uint16 {
		v := binary.BigEndian.Uint16(buf[pos : pos+2])
		pos += 2
		return v
	}
	readU32 := func() uint32 {
		v := binary.BigEndian.Uint32(buf[pos : pos+4])
		pos += 4
		return v
	}
	readU64 := func() uint64 {
		v := binary.BigEndian.Uint64(buf[pos : pos+8])
		pos += 8
		return v
	}
	read32 := func() [32]byte {
		var b [32]byte
		copy(b[:], buf[pos:pos+32])
		pos += 32
		return b
	}

	h := &Header{}
	h.version = readU16()
	h.height = readU64()
	h.timestamp = int64(readU64())
	h.previousBlockHash = read32()
	h.previousHeaderRoot = read32()
	h.outputRoot = read32()
	h.rangeproofRoot = read32()
	h.kernelRoot = read32()
	h.totalKernelOffset = read32()
	h.outputMMRSize = readU64()
	h.kernelMMRSize = readU64()
	h.totalDifficulty = readU64()
	h.secondaryScaling = readU32()
	h.nonce = readU64()
	h.edgeBits = buf[pos]
	pos++
	for i := range h.proofNonces {
		h.proofNonces[i] = readU64()
	}

	if h.edgeBits == 0 || h.edgeBits > consensus.MaximumEdgeBits {
		return nil, newErr(ErrInvalidEdgeBits, "restored header has invalid edge_bits")
	}

	return h, nil
}

func appendU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
