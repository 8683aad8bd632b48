// Package consensus exposes the pure, height- and header-parameterized
// consensus functions of spec §4.2: header version, block weight, graph
// weight, the C29 proof-of-work ratio, maximum difficulty, the coinbase
// reward schedule, and banned block hashes. Every exported function here is
// pure and side-effect free.
package consensus

// Network selects which constants table a height-parameterized query uses.
// This is the runtime form of the build-time FLOONET switch in spec §6: a
// value rather than a build tag, so both tables are reachable from the same
// test binary.
type Network int

const (
	Mainnet Network = iota
	Floonet
)

// Block time and height-unit constants (spec §6, verbatim).
const (
	BlockTimeSeconds = 60
	MinuteHeight     = 1
	HourHeight       = 60
	DayHeight        = 1440
	WeekHeight       = 10080
	YearHeight       = 525600
)

// Chain parameters (spec §6).
const (
	CoinbaseMaturity         = 1440
	CutThroughHorizonBlocks  = WeekHeight
	StateSyncHeightThreshold = CutThroughHorizonBlocks * 2

	MinimumDifficulty              = 1
	DifficultyAdjustmentWindow     = 60
	HeadersAdjustmentDampFactor    = 3
	HeadersAdjustmentClampFactor   = 2
	WindowDurationDampFactor       = 3
	WindowDurationClampFactor      = 2
	MinimumSecondaryScaling uint32 = 1
)

// Cuckoo-cycle edge-bit parameters (spec §4.2).
const (
	C29EdgeBits     uint8 = 29
	C31EdgeBits     uint8 = 31
	MaximumEdgeBits uint8 = 31
	baseEdgeBits    uint8 = C29EdgeBits

	c31HardForkHeightMainnet = 2 * YearHeight
	c31HardForkHeightFloonet = YearHeight / 4
)

// C31HardForkHeight returns the height at which only C31+ Cuckoo-cycle
// solutions become valid, per network.
func C31HardForkHeight(n Network) uint64 {
	if n == Floonet {
		return c31HardForkHeightFloonet
	}
	return c31HardForkHeightMainnet
}

// Header version hard-fork schedule (spec §4.2's "version(h) = 1 +
// (h / HARD_FORK_INTERVAL) clamped to the highest defined version").
const (
	hardForkInterval = YearHeight / 2
	maxHeaderVersion = 5
)

// C29 proof-of-work ratio decay (spec §4.2).
const (
	startingC29ProofOfWorkRatio = 90
	c29ProofOfWorkDuration      = 2 * YearHeight
)

// Block weight coefficients (spec §4.2).
const (
	blockWeightOutputFactor = 4
	blockWeightKernelFactor = 1
	blockWeightInputFactor  = 1
)
