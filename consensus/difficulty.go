package consensus

import "math/big"

// RetargetDifficulty computes the next difficulty target over a window of
// DIFFICULTY_ADJUSTMENT_WINDOW blocks, damping and clamping the move per
// HeadersAdjustmentDampFactor/HeadersAdjustmentClampFactor. This is not one
// of the operations spec.md names (difficulty retargeting is left to the
// caller per spec §4.2/§6), but it exercises the window/damp/clamp
// constants spec §6 publishes, adapted from the teacher's RetargetV1
// (consensus/pow.go in the teacher repo): same big.Int-based clamp shape,
// generalized to this chain's damp factor.
func RetargetDifficulty(targetOld [32]byte, timestampFirst, timestampLast uint64) ([32]byte, error) {
	tOld := new(big.Int).SetBytes(targetOld[:])
	if tOld.Sign() == 0 {
		var zero [32]byte
		return zero, newErr(ErrInvalidHeight, "retarget: target_old is zero")
	}

	var actual uint64
	if timestampLast <= timestampFirst {
		actual = 1
	} else {
		actual = timestampLast - timestampFirst
	}
	expected := uint64(BlockTimeSeconds) * uint64(DifficultyAdjustmentWindow)

	// Damp the move: blend actual and expected duration before scaling.
	damped := (actual*(HeadersAdjustmentDampFactor-1) + expected) / HeadersAdjustmentDampFactor

	num := new(big.Int).Mul(tOld, new(big.Int).SetUint64(damped))
	den := new(big.Int).SetUint64(expected)
	next := new(big.Int).Div(num, den)

	lower := new(big.Int).Div(new(big.Int).Set(tOld), big.NewInt(HeadersAdjustmentClampFactor))
	if lower.Cmp(big.NewInt(1)) < 0 {
		lower.SetInt64(1)
	}
	upper := new(big.Int).Mul(tOld, big.NewInt(HeadersAdjustmentClampFactor))

	if next.Cmp(lower) < 0 {
		next = lower
	}
	if next.Cmp(upper) > 0 {
		next = upper
	}

	var out [32]byte
	b := next.Bytes()
	if len(b) > 32 {
		return out, newErr(ErrInvalidHeight, "retarget: overflow")
	}
	copy(out[32-len(b):], b)
	return out, nil
}
