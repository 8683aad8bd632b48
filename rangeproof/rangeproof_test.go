package rangeproof

import (
	"bytes"
	"testing"

	"rubin.dev/mwvalidation/mmr"
)

func TestNewRejectsWrongLength(t *testing.T) {
	if _, err := New(make([]byte, Length-1)); err == nil {
		t.Fatalf("expected error for short proof")
	}
	if _, err := New(make([]byte, Length+1)); err == nil {
		t.Fatalf("expected error for long proof")
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	raw := make([]byte, Length)
	raw[0] = 0xAB
	raw[Length-1] = 0xCD
	rp, err := New(raw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := rp.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !rp.Equal(restored) {
		t.Fatalf("restored rangeproof does not equal original")
	}
}

func TestNoLookupValueAndNoSumContribution(t *testing.T) {
	rp, err := New(make([]byte, Length))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := rp.LookupValue(); ok {
		t.Fatalf("rangeproof must not report a lookup value")
	}

	var sum struct{}
	if got := rp.AddToSum(sum, mmr.Appended); got != sum {
		t.Fatalf("AddToSum must be a no-op for the unit sum")
	}
	if got := rp.SubtractFromSum(sum, mmr.Pruned); got != sum {
		t.Fatalf("SubtractFromSum must be a no-op for the unit sum")
	}
}
