package consensus

// BannedBlockHash is one entry of the fixed banned-block-hash list (spec
// §4.2/§6): a consensus-level deny-list of BLAKE2b-256 block hashes that
// must never be accepted regardless of otherwise-valid proof-of-work.
type BannedBlockHash [32]byte

// bannedMainnetHashes is intentionally empty: at genesis there are no
// known-bad blocks to ban. Entries are appended here as they are
// discovered, following the published-constants pattern in spec §6.
var bannedMainnetHashes = []BannedBlockHash{}

var bannedFloonetHashes = []BannedBlockHash{}

// IsBlockHashBanned reports whether hash appears in the network's fixed
// banned-hash list.
func IsBlockHashBanned(hash [32]byte, network Network) bool {
	list := bannedMainnetHashes
	if network == Floonet {
		list = bannedFloonetHashes
	}
	for _, banned := range list {
		if BannedBlockHash(hash) == banned {
			return true
		}
	}
	return false
}
