package consensus

import "math/big"

// GraphWeight computes the Cuckoo-cycle graph weight at (height, edgeBits)
// per spec §4.2: for the base (29-bit) algorithm, 2^(edge_bits+1)·edge_bits;
// once height crosses the C31 hard-fork point, only edge bits ≥
// C31_EDGE_BITS are valid and the shift becomes edge_bits − BASE_EDGE_BITS.
func GraphWeight(height uint64, edgeBits uint8, network Network) uint64 {
	if height >= C31HardForkHeight(network) {
		if edgeBits < C31EdgeBits {
			return 0
		}
		return graphWeightFormula(edgeBits - baseEdgeBits)
	}
	return graphWeightFormula(edgeBits)
}

func graphWeightFormula(bits uint8) uint64 {
	return (uint64(1) << (uint(bits) + 1)) * uint64(bits)
}

// C29ProofOfWorkRatio returns the percentage share (0-100) of blocks that
// must use the secondary (memory-hard, C29) algorithm at the given height:
// a linear decay from STARTING_C29_PROOF_OF_WORK_RATIO at height 0 to 0 at
// the end of C29_PROOF_OF_WORK_DURATION blocks, and 0 thereafter.
func C29ProofOfWorkRatio(height uint64) uint64 {
	if height >= c29ProofOfWorkDuration {
		return 0
	}
	return startingC29ProofOfWorkRatio - (startingC29ProofOfWorkRatio*height)/c29ProofOfWorkDuration
}

// MaximumDifficulty returns ceil(2^64 / 2^(edgeBits+1)), scaled by
// secondaryScaling when isSecondary (the memory-hard C29 cycle) is true;
// otherwise the unscaled primary maximum (spec §4.2).
//
// All intermediate arithmetic uses arbitrary precision because 2^64 itself
// does not fit in a uint64, following the big.Int discipline the teacher
// applies to its own height-scaled arithmetic in its retarget function.
func MaximumDifficulty(edgeBits uint8, secondaryScaling uint32, isSecondary bool) uint64 {
	shift := uint(edgeBits) + 1
	numerator := new(big.Int).Lsh(big.NewInt(1), 64)
	denominator := new(big.Int).Lsh(big.NewInt(1), shift)
	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if remainder.Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	base := quotient.Uint64()
	if isSecondary {
		return base * uint64(secondaryScaling)
	}
	return base
}
