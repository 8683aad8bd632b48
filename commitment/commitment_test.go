package commitment

import "testing"

func TestIsZero(t *testing.T) {
	if !IsZero(Zero) {
		t.Fatalf("IsZero(Zero) = false, want true")
	}
	var nonZero Commitment
	nonZero[0] = 0x09
	if IsZero(nonZero) {
		t.Fatalf("IsZero(nonZero) = true, want false")
	}
}

func TestAddIdentityShortCircuitsWithoutLibraryCall(t *testing.T) {
	var arbitrary Commitment
	arbitrary[0] = 0x08
	arbitrary[1] = 0x01

	got, err := Add(Zero, arbitrary)
	if err != nil {
		t.Fatalf("Add(Zero, x): %v", err)
	}
	if got != arbitrary {
		t.Fatalf("Add(Zero, x) = %v, want x unchanged", got)
	}

	got, err = Add(arbitrary, Zero)
	if err != nil {
		t.Fatalf("Add(x, Zero): %v", err)
	}
	if got != arbitrary {
		t.Fatalf("Add(x, Zero) = %v, want x unchanged", got)
	}
}

func TestSubSelfIsZeroShortCircuit(t *testing.T) {
	var arbitrary Commitment
	arbitrary[0] = 0x09
	arbitrary[5] = 0x42

	got, err := Sub(arbitrary, arbitrary)
	if err != nil {
		t.Fatalf("Sub(x, x): %v", err)
	}
	if !IsZero(got) {
		t.Fatalf("Sub(x, x) = %v, want Zero", got)
	}
}

func TestSubZeroOperandShortCircuits(t *testing.T) {
	var arbitrary Commitment
	arbitrary[0] = 0x08

	got, err := Sub(arbitrary, Zero)
	if err != nil {
		t.Fatalf("Sub(x, Zero): %v", err)
	}
	if got != arbitrary {
		t.Fatalf("Sub(x, Zero) = %v, want x unchanged", got)
	}
}

func TestAcquireReleaseScratch(t *testing.T) {
	buf := AcquireScratch()
	if buf == nil || len(*buf) == 0 {
		t.Fatalf("AcquireScratch returned an empty buffer")
	}
	ReleaseScratch(buf)
}
