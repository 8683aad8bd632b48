// Package verify implements the header-consistency verifier (spec §4.6):
// given a header and the current kernel/output commitment sums, it
// confirms the Mimblewimble balance equation Σoutputs − R·H = Σexcesses +
// T·G holds, where T (the total kernel offset) is committed as a blinding
// factor with value zero.
package verify

import (
	"rubin.dev/mwvalidation/commitment"
	"rubin.dev/mwvalidation/consensus"
)

// Header is the minimal surface verify needs from a header, satisfied by
// *header.Header without importing that package (avoiding a dependency
// edge this core does not need: verify only reads two fields).
type Header interface {
	TotalKernelOffset() [32]byte
	Height() uint64
}

// KernelSums supplies KernelSum(): the current running commitment sum of
// all live kernel excesses (the Kernel MMR's accumulator).
type KernelSums interface {
	KernelSum() commitment.Commitment
}

// OutputSums supplies OutputSum(): the current running commitment sum of
// all live output commitments (the Output MMR's accumulator).
type OutputSums interface {
	OutputSum() commitment.Commitment
}

// VerifyKernelSums implements spec §4.6 exactly: it never panics and
// reports every failure — malformed commitments, a failing library call,
// a byte mismatch — as false.
func VerifyKernelSums(h Header, kernels KernelSums, outputs OutputSums, network consensus.Network) bool {
	kernelSide, ok := kernelSide(h, kernels)
	if !ok {
		return false
	}

	utxoSide, ok := utxoSide(h, outputs, network)
	if !ok {
		return false
	}

	return kernelSide.Serialize() == utxoSide.Serialize()
}

func kernelSide(h Header, kernels KernelSums) (commitment.Commitment, bool) {
	offset := h.TotalKernelOffset()
	if isZero32(offset) {
		return kernels.KernelSum(), true
	}

	offsetCommit, err := commitment.Commit(offset, 0)
	if err != nil {
		return commitment.Commitment{}, false
	}

	side, err := commitment.Sum([]commitment.Commitment{kernels.KernelSum(), offsetCommit}, nil)
	if err != nil {
		return commitment.Commitment{}, false
	}
	return side, true
}

func utxoSide(h Header, outputs OutputSums, network consensus.Network) (commitment.Commitment, bool) {
	reward := consensus.TotalCoinbaseRewards(h.Height(), network)

	var zeroBlinding [32]byte
	rewardCommit, err := commitment.Commit(zeroBlinding, reward)
	if err != nil {
		return commitment.Commitment{}, false
	}

	side, err := commitment.Sum([]commitment.Commitment{outputs.OutputSum()}, []commitment.Commitment{rewardCommit})
	if err != nil {
		return commitment.Commitment{}, false
	}
	return side, true
}

func isZero32(b [32]byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
