package output

import (
	"bytes"
	"testing"

	"rubin.dev/mwvalidation/chainparams"
	"rubin.dev/mwvalidation/commitment"
	"rubin.dev/mwvalidation/consensus"
	"rubin.dev/mwvalidation/mmr"
)

func mustCommitBytes(t *testing.T, blinding byte, value uint64) [CommitmentLength]byte {
	t.Helper()
	var b [32]byte
	b[31] = blinding
	c, err := commitment.Commit(b, value)
	if err != nil {
		t.Fatalf("commitment.Commit: %v", err)
	}
	return c.Serialize()
}

func TestNewRejectsUnknownFeatures(t *testing.T) {
	cb := mustCommitBytes(t, 1, 10)
	if _, err := New(Features(99), cb, consensus.Mainnet, false); err == nil {
		t.Fatalf("expected error for unknown features")
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	cb := mustCommitBytes(t, 2, 20)
	o, err := New(Coinbase, cb, consensus.Mainnet, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := o.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !o.Equal(restored) {
		t.Fatalf("restored output does not equal original")
	}
}

func TestLookupValueDisallowsDuplicates(t *testing.T) {
	cb := mustCommitBytes(t, 3, 5)
	o, err := New(Plain, cb, consensus.Mainnet, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lv, ok := o.LookupValue()
	if !ok {
		t.Fatalf("LookupValue ok = false, want true")
	}
	if !bytes.Equal(lv, cb[:]) {
		t.Fatalf("LookupValue does not match serialized commitment")
	}
	if o.AllowDuplicateLookupValues() {
		t.Fatalf("outputs must not allow duplicate lookup values")
	}
}

func TestGenesisOutputAcceptanceSucceeds(t *testing.T) {
	for _, network := range []consensus.Network{consensus.Mainnet, consensus.Floonet} {
		go_ := chainparams.Output(network)
		o, err := New(Features(go_.Features), go_.Commitment, network, true)
		if err != nil {
			t.Fatalf("New(genesis output, %v): %v", network, err)
		}
		if o.Commitment().Serialize() != go_.Commitment {
			t.Fatalf("constructed genesis output commitment does not match chainparams.Output(%v)", network)
		}
	}
}

func TestDiscardedIsNoOpForSum(t *testing.T) {
	cb := mustCommitBytes(t, 4, 7)
	o, err := New(Plain, cb, consensus.Mainnet, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	zero := commitment.Zero
	added := o.AddToSum(zero, mmr.Appended)
	unchanged := o.SubtractFromSum(added, mmr.Discarded)
	if unchanged != added {
		t.Fatalf("Discarded must not alter an output's contribution to the sum")
	}

	pruned := o.SubtractFromSum(added, mmr.Pruned)
	if pruned != zero {
		t.Fatalf("Pruned must subtract the output's commitment from the sum")
	}
}
