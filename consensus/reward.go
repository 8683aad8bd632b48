package consensus

// RewardEpoch is one row of the coinbase halving schedule: the reward paid
// per block to every height in [Offset, Offset+Duration).
type RewardEpoch struct {
	Offset   uint64
	Duration uint64
	Reward   uint64
}

const baseUnitsPerCoin = 1_000_000_000

// rewardSchedule is the mainnet halving table: annual halvings for six
// years, then a zero tail reward. Height 0 (genesis) and any height at or
// beyond the final epoch's end pay nothing.
var rewardSchedule = []RewardEpoch{
	{Offset: 1, Duration: YearHeight, Reward: 60 * baseUnitsPerCoin},
	{Offset: 1 + YearHeight, Duration: YearHeight, Reward: 30 * baseUnitsPerCoin},
	{Offset: 1 + 2*YearHeight, Duration: YearHeight, Reward: 15 * baseUnitsPerCoin},
	{Offset: 1 + 3*YearHeight, Duration: YearHeight, Reward: 7*baseUnitsPerCoin + baseUnitsPerCoin/2},
	{Offset: 1 + 4*YearHeight, Duration: YearHeight, Reward: 3*baseUnitsPerCoin + 750_000_000},
	{Offset: 1 + 5*YearHeight, Duration: YearHeight, Reward: 1*baseUnitsPerCoin + 875_000_000},
}

// floonetRewardSchedule halves every quarter-year instead of annually, so
// the schedule's epoch boundaries are reachable in a test run.
var floonetRewardSchedule = []RewardEpoch{
	{Offset: 1, Duration: YearHeight / 4, Reward: 60 * baseUnitsPerCoin},
	{Offset: 1 + YearHeight/4, Duration: YearHeight / 4, Reward: 30 * baseUnitsPerCoin},
	{Offset: 1 + 2*YearHeight/4, Duration: YearHeight / 4, Reward: 15 * baseUnitsPerCoin},
}

// RewardSchedule returns the epoch table for the given network.
func RewardSchedule(network Network) []RewardEpoch {
	if network == Floonet {
		return floonetRewardSchedule
	}
	return rewardSchedule
}

// CoinbaseReward returns reward(h): the per-block coinbase reward at
// height h, found by locating the epoch containing h. Height 0 and any
// height past the last epoch pay a tail reward of 0 (spec §4.2).
func CoinbaseReward(height uint64, network Network) uint64 {
	for _, epoch := range RewardSchedule(network) {
		if height >= epoch.Offset && height < epoch.Offset+epoch.Duration {
			return epoch.Reward
		}
	}
	return 0
}

// TotalCoinbaseRewards returns the sum of CoinbaseReward(i) for i in
// [0, height], computed in closed form over whole epochs plus the partial
// current epoch (spec §4.2), rather than by summing height+1 terms.
func TotalCoinbaseRewards(height uint64, network Network) uint64 {
	if height == 0 {
		return 0
	}
	var total uint64
	for _, epoch := range RewardSchedule(network) {
		epochEnd := epoch.Offset + epoch.Duration - 1
		switch {
		case height < epoch.Offset:
			// Epoch hasn't started yet; neither has any later one.
			return total
		case height >= epochEnd:
			total += epoch.Duration * epoch.Reward
		default:
			blocksPaid := height - epoch.Offset + 1
			total += blocksPaid * epoch.Reward
			return total
		}
	}
	return total
}
