package kernel

import (
	"bytes"
	"testing"

	"rubin.dev/mwvalidation/chainparams"
	"rubin.dev/mwvalidation/commitment"
	"rubin.dev/mwvalidation/consensus"
	"rubin.dev/mwvalidation/mmr"
)

func mustCommit(t *testing.T, blinding byte, value uint64) (commitment.Commitment, [33]byte) {
	t.Helper()
	var b [32]byte
	b[31] = blinding
	c, err := commitment.Commit(b, value)
	if err != nil {
		t.Fatalf("commitment.Commit: %v", err)
	}
	return c, c.Serialize()
}

func TestNewRejectsInvalidFeatureCombinations(t *testing.T) {
	_, excessBytes := mustCommit(t, 1, 10)
	var sig [SignatureLength]byte
	sig[0] = 0x01

	_, err := New(Plain, 5, 100, 0, excessBytes, sig, consensus.Mainnet, false)
	if err == nil {
		t.Fatalf("expected error for plain kernel with nonzero lock_height")
	}

	_, err = New(Coinbase, 1, 0, 0, excessBytes, sig, consensus.Mainnet, false)
	if err == nil {
		t.Fatalf("expected error for coinbase kernel with nonzero fee")
	}

	_, err = New(NoRecentDuplicate, 1, 0, 100, excessBytes, sig, consensus.Mainnet, false)
	if err == nil {
		t.Fatalf("expected error for NRD kernel on mainnet (feature disabled)")
	}

	_, err = New(NoRecentDuplicate, 1, 0, 100, excessBytes, sig, consensus.Floonet, false)
	if err == nil {
		t.Fatalf("expected signature verification failure for a fabricated signature")
	}
}

func TestMessageToSignVariesByFeatures(t *testing.T) {
	k1 := &Kernel{features: Plain, fee: 10}
	k2 := &Kernel{features: Plain, fee: 11}
	if k1.messageToSign() == k2.messageToSign() {
		t.Fatalf("messages for differing fees must not collide")
	}

	k3 := &Kernel{features: HeightLocked, fee: 10, lockHeight: 5}
	if k1.messageToSign() == k3.messageToSign() {
		t.Fatalf("messages for differing features must not collide")
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	c, _ := mustCommit(t, 2, 0)
	var sig [SignatureLength]byte
	sig[5] = 0x42

	k := &Kernel{features: HeightLocked, fee: 3, lockHeight: 7, excess: c, signature: sig}

	var buf bytes.Buffer
	if err := k.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !k.Equal(restored) {
		t.Fatalf("restored kernel does not equal original: got %+v, want %+v", restored, k)
	}
}

func TestSerializedProtocolVersionUnifiesV0AndV1(t *testing.T) {
	for _, v := range []uint8{0, 1} {
		got, err := SerializedProtocolVersion(nil, v, consensus.Mainnet)
		if err != nil {
			t.Fatalf("SerializedProtocolVersion(%d): %v", v, err)
		}
		if got != 1 {
			t.Fatalf("SerializedProtocolVersion(%d) = %d, want 1", v, got)
		}
	}
}

func TestSerializedProtocolVersionRejectsUnknown(t *testing.T) {
	if _, err := SerializedProtocolVersion(nil, 4, consensus.Mainnet); err == nil {
		t.Fatalf("expected error for protocol version 4")
	}
}

func TestSerializedProtocolVersionDetectsCoinbaseGenesisFeeAcrossNetworks(t *testing.T) {
	for _, network := range []consensus.Network{consensus.Mainnet, consensus.Floonet} {
		data := make([]byte, 9)
		data[0] = coinbaseFeatureByte
		// The remaining 8 bytes are already the network's genesis kernel fee
		// (always zero), so a V2/V3 blob whose fee field would coincide with
		// it is detected as a V0/V1-shaped blob instead.
		got, err := SerializedProtocolVersion(data, 2, network)
		if err != nil {
			t.Fatalf("SerializedProtocolVersion: %v", err)
		}
		if got != 1 {
			t.Fatalf("SerializedProtocolVersion(coinbase, V2, %v) = %d, want 1", network, got)
		}
	}
}

func TestGenesisKernelAcceptanceSucceeds(t *testing.T) {
	for _, network := range []consensus.Network{consensus.Mainnet, consensus.Floonet} {
		gk := chainparams.Kernel(network)
		k, err := New(Features(gk.Features), gk.Fee, gk.LockHeight, gk.RelativeHeight, gk.Excess, gk.Signature, network, true)
		if err != nil {
			t.Fatalf("New(genesis kernel, %v): %v", network, err)
		}
		if k.Excess().Serialize() != gk.Excess {
			t.Fatalf("constructed genesis kernel excess does not match chainparams.Kernel(%v)", network)
		}
	}
}

func TestSerializeUnserializeRoundTripV1(t *testing.T) {
	c, _ := mustCommit(t, 3, 0)

	// This test only exercises the wire shape, not signature verification,
	// so the Kernel struct is built directly rather than through New.
	var sig [SignatureLength]byte
	sig[0] = 0x7

	k := &Kernel{features: NoRecentDuplicate, fee: 2, relativeHeight: 100, excess: c, signature: sig}

	wire, err := k.Serialize(1)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	c2 := &cursor{buf: wire}
	fb, _ := c2.readByte()
	if Features(fb) != NoRecentDuplicate {
		t.Fatalf("round trip lost features byte")
	}
	fee, _ := c2.readU64BE()
	if fee != 2 {
		t.Fatalf("round trip lost fee: got %d", fee)
	}
	rh, _ := c2.readU64BE()
	if rh != 100 {
		t.Fatalf("round trip lost relative_height under V0/V1 8-byte encoding: got %d", rh)
	}
}

func TestLookupValueIsSerializedExcess(t *testing.T) {
	c, excessBytes := mustCommit(t, 4, 0)
	k := &Kernel{features: Plain, excess: c}
	lv, ok := k.LookupValue()
	if !ok {
		t.Fatalf("LookupValue ok = false, want true")
	}
	if !bytes.Equal(lv, excessBytes[:]) {
		t.Fatalf("LookupValue does not match serialized excess")
	}
	if !k.AllowDuplicateLookupValues() {
		t.Fatalf("kernels must allow duplicate lookup values")
	}
}

func TestSerializeUnserializeKernelRoundTripsAcrossVersions(t *testing.T) {
	_, excessBytes := mustCommit(t, 7, 0)
	var sig [SignatureLength]byte
	sig[3] = 0x5

	for _, version := range []uint8{0, 1, 2, 3} {
		k := &Kernel{features: Plain, fee: 4, excess: func() commitment.Commitment {
			c, err := commitment.Parse(excessBytes[:])
			if err != nil {
				t.Fatalf("commitment.Parse: %v", err)
			}
			return c
		}(), signature: sig}

		wire, err := k.Serialize(version)
		if err != nil {
			t.Fatalf("Serialize(%d): %v", version, err)
		}

		parsed, consumed, err := UnserializeKernel(wire, version, consensus.Mainnet, true)
		_ = parsed
		_ = consumed
		// isGenesis is set and this Plain kernel is not the genesis kernel,
		// so New rejects it with GenesisMismatch, which it reaches only after
		// the whole blob has been read; this exercises only that each wire
		// shape parses without a length error.
		if err != nil {
			if e, ok := err.(*Error); !ok || e.Code != ErrGenesisMismatch {
				t.Fatalf("UnserializeKernel(%d): unexpected error: %v", version, err)
			}
		}
		if consumed != 0 && consumed != len(wire) {
			t.Fatalf("UnserializeKernel(%d) consumed %d of %d bytes", version, consumed, len(wire))
		}
	}
}

func TestSignatureBitFlipFailsVerification(t *testing.T) {
	c, excessBytes := mustCommit(t, 11, 0)
	_ = c
	var sig [SignatureLength]byte
	sig[0] = 0xAB

	_, err := New(Plain, 0, 0, 0, excessBytes, sig, consensus.Floonet, false)
	if err == nil {
		t.Fatalf("expected a fabricated signature to fail verification")
	}

	sig[0] ^= 0xFF
	_, err2 := New(Plain, 0, 0, 0, excessBytes, sig, consensus.Floonet, false)
	if err2 == nil {
		t.Fatalf("expected the bit-flipped fabricated signature to also fail verification")
	}
}

func TestAddSubtractSumRoundTrips(t *testing.T) {
	c, _ := mustCommit(t, 6, 42)
	k := &Kernel{features: Plain, excess: c}

	zero := commitment.Zero
	added := k.AddToSum(zero, mmr.Appended)
	back := k.SubtractFromSum(added, mmr.Rewinded)
	if back != zero {
		t.Fatalf("add then subtract did not return to zero sum")
	}

	// Pruned must be a no-op for kernels.
	unchanged := k.SubtractFromSum(added, mmr.Pruned)
	if unchanged != added {
		t.Fatalf("Pruned must not alter a kernel's contribution to the sum")
	}
}
