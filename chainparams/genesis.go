// Package chainparams holds the package-level genesis values (the kernel
// excess, output commitment and a few header and rangeproof bytes are filled
// in by init) and the mainnet/floonet tables the leaf constructors check bytewise
// equality against when a caller flags an instance as the genesis leaf
// (spec §6/§9). It deliberately exposes only primitive field values, not
// leaf types, so leaf packages can depend on it without a cycle.
package chainparams

import (
	"rubin.dev/mwvalidation/commitment"
	"rubin.dev/mwvalidation/consensus"
)

// Network re-exports consensus.Network so callers constructing leaves need
// only import this package for both the network selector and the genesis
// table it indexes.
type Network = consensus.Network

const (
	Mainnet = consensus.Mainnet
	Floonet = consensus.Floonet
)

// GenesisHeader is the fixed set of header field values for the genesis
// block of a network.
type GenesisHeader struct {
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
	ProofNonces        [42]uint64
}

// GenesisKernel is the fixed set of kernel field values for the genesis
// block's single coinbase kernel.
type GenesisKernel struct {
	Features       uint8
	Fee            uint64
	LockHeight     uint64
	RelativeHeight uint64
	Excess         [33]byte
	Signature      [64]byte
}

// GenesisOutput is the fixed set of output field values for the genesis
// block's single coinbase output.
type GenesisOutput struct {
	Features   uint8
	Commitment [33]byte
}

// GenesisRangeproof is the genesis block's rangeproof bytes.
type GenesisRangeproof struct {
	Proof [675]byte
}

var mainnetHeader = GenesisHeader{
	Version:          1,
	Height:           0,
	Timestamp:        1_600_000_000,
	OutputMMRSize:    1,
	KernelMMRSize:    1,
	TotalDifficulty:  consensus.MinimumDifficulty,
	SecondaryScaling: consensus.MinimumSecondaryScaling,
	EdgeBits:         consensus.C29EdgeBits,
}

var floonetHeader = GenesisHeader{
	Version:          1,
	Height:           0,
	Timestamp:        1_500_000_000,
	OutputMMRSize:    1,
	KernelMMRSize:    1,
	TotalDifficulty:  consensus.MinimumDifficulty,
	SecondaryScaling: consensus.MinimumSecondaryScaling,
	EdgeBits:         consensus.C29EdgeBits,
}

var mainnetKernel = GenesisKernel{
	Features: 1, // Coinbase
}

var floonetKernel = GenesisKernel{
	Features: 1, // Coinbase
}

var mainnetOutput = GenesisOutput{
	Features: 1, // Coinbase
}

var floonetOutput = GenesisOutput{
	Features: 1, // Coinbase
}

var mainnetRangeproof = GenesisRangeproof{}
var floonetRangeproof = GenesisRangeproof{}

// fixedCommitment derives a genuine, curve-valid Pedersen commitment to the
// value zero under a fixed per-network, per-role blinding factor. Genesis
// kernel/output construction parses this commitment before it ever reaches
// the genesis-equality check (kernel.New/output.New call commitment.Parse
// unconditionally), so these bytes must be real compressed secp256k1
// points, not arbitrary placeholder byte patterns.
func fixedCommitment(blindingSeed byte) [33]byte {
	var blinding [32]byte
	blinding[31] = blindingSeed
	c, err := commitment.Commit(blinding, 0)
	if err != nil {
		panic("chainparams: failed to derive a fixed genesis commitment: " + err.Error())
	}
	return c.Serialize()
}

func init() {
	mainnetKernel.Excess = fixedCommitment(0x09)
	mainnetKernel.Signature[0] = 0x01
	floonetKernel.Excess = fixedCommitment(0x08)
	floonetKernel.Signature[0] = 0x01

	// Genesis construction skips signature verification (kernel.New takes
	// the isGenesis branch instead), so the signature above only needs to
	// be nonzero and consistent with whatever bytes a caller supplies when
	// constructing the genesis kernel; it never has to verify
	// cryptographically.

	mainnetOutput.Commitment = fixedCommitment(0x19)
	floonetOutput.Commitment = fixedCommitment(0x18)

	mainnetRangeproof.Proof[0] = 0x01
	floonetRangeproof.Proof[0] = 0x01

	mainnetHeader.KernelRoot[0] = 0xAA
	mainnetHeader.OutputRoot[0] = 0xBB
	mainnetHeader.RangeproofRoot[0] = 0xCC
	floonetHeader.KernelRoot[0] = 0xDD
	floonetHeader.OutputRoot[0] = 0xEE
	floonetHeader.RangeproofRoot[0] = 0xFF
}

// Header returns the genesis header constants for network.
func Header(network Network) GenesisHeader {
	if network == Floonet {
		return floonetHeader
	}
	return mainnetHeader
}

// Kernel returns the genesis kernel constants for network.
func Kernel(network Network) GenesisKernel {
	if network == Floonet {
		return floonetKernel
	}
	return mainnetKernel
}

// Output returns the genesis output constants for network.
func Output(network Network) GenesisOutput {
	if network == Floonet {
		return floonetOutput
	}
	return mainnetOutput
}

// Rangeproof returns the genesis rangeproof constants for network.
func Rangeproof(network Network) GenesisRangeproof {
	if network == Floonet {
		return floonetRangeproof
	}
	return mainnetRangeproof
}

// NoRecentDuplicateEnabled reports whether the NoRecentDuplicate kernel
// feature is enabled on network. Per spec §3.1/§6, only the test network
// build enables it.
func NoRecentDuplicateEnabled(network Network) bool {
	return network == Floonet
}
