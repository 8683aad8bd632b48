package header

import (
	"bytes"
	"testing"

	"rubin.dev/mwvalidation/consensus"
	"rubin.dev/mwvalidation/mmr"
)

func sampleFields() Fields {
	var f Fields
	f.Version = 1
	f.Height = 100
	f.Timestamp = 1_600_000_100
	f.OutputMMRSize = 50
	f.KernelMMRSize = 50
	f.TotalDifficulty = 1000
	f.SecondaryScaling = 1
	f.Nonce = 42
	f.EdgeBits = consensus.C29EdgeBits
	f.KernelRoot[0] = 0x01
	return f
}

func TestNewRejectsInvalidEdgeBits(t *testing.T) {
	f := sampleFields()
	f.EdgeBits = 0
	if _, err := New(f, consensus.Mainnet, false); err == nil {
		t.Fatalf("expected error for zero edge_bits")
	}
	f.EdgeBits = consensus.MaximumEdgeBits + 1
	if _, err := New(f, consensus.Mainnet, false); err == nil {
		t.Fatalf("expected error for edge_bits above maximum")
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	f := sampleFields()
	f.ProofNonces[0] = 7
	f.ProofNonces[ProofNonceCount-1] = 9

	h, err := New(f, consensus.Mainnet, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := h.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !h.Equal(restored) {
		t.Fatalf("restored header does not equal original")
	}
}

func TestNoLookupValueAndNoSumContribution(t *testing.T) {
	h, err := New(sampleFields(), consensus.Mainnet, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := h.LookupValue(); ok {
		t.Fatalf("header must not report a lookup value")
	}
	var sum struct{}
	if got := h.AddToSum(sum, mmr.Appended); got != sum {
		t.Fatalf("AddToSum must be a no-op for the unit sum")
	}
}

func TestGenesisMismatchRejected(t *testing.T) {
	f := sampleFields()
	f.Height = 0
	if _, err := New(f, consensus.Mainnet, true); err == nil {
		t.Fatalf("expected genesis mismatch error for arbitrary fields")
	}
}
