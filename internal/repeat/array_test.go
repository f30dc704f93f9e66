package repeat

import (
	"strings"
	"testing"
)

// labeledUnit fills a unit with a single repeated byte so ranges are easy
// to identify after splicing.
func labeledUnit(label byte) Unit {
	var u Unit
	for i := range u {
		u[i] = label
	}
	return u
}

func labeledArray(n int) *Array {
	a := NewArray(n, Unit{})
	for i := 0; i < n; i++ {
		*a.At(i) = labeledUnit(byte('0' + i))
	}
	return a
}

func labels(a *Array) string {
	var b strings.Builder
	for _, u := range a.Units() {
		b.WriteByte(u[0])
	}
	return b.String()
}

func TestMonomerUnit(t *testing.T) {
	u := MonomerUnit()
	if u.String() != DefaultMonomer {
		t.Fatal("monomer unit does not round-trip the consensus sequence")
	}
	if len(DefaultMonomer) != UnitSize {
		t.Fatalf("consensus length = %d, want %d", len(DefaultMonomer), UnitSize)
	}
}

func TestUnitFromString(t *testing.T) {
	if _, err := UnitFromString("ACGT"); err == nil {
		t.Fatal("expected error for short sequence")
	}
	u, err := UnitFromString(DefaultMonomer)
	if err != nil {
		t.Fatalf("UnitFromString: %v", err)
	}
	if u != MonomerUnit() {
		t.Fatal("unit mismatch")
	}
}

func TestNewArray(t *testing.T) {
	a := NewArray(100, MonomerUnit())
	if a.Len() != 100 {
		t.Fatalf("Len = %d, want 100", a.Len())
	}
	if a.Cap() < 100 {
		t.Fatalf("Cap = %d, want >= 100", a.Cap())
	}
	for i := 0; i < a.Len(); i++ {
		if a.Unit(i) != MonomerUnit() {
			t.Fatalf("unit %d is not the consensus monomer", i)
		}
	}
}

func TestDuplicateMiddleRange(t *testing.T) {
	// duplicate([2,5)) on units 0..9 yields 0,1,2,3,4,2,3,4,5,6,7,8,9.
	a := labeledArray(10)
	a.Duplicate(2, 5)

	if a.Len() != 13 {
		t.Fatalf("Len = %d, want 13", a.Len())
	}
	if got, want := labels(a), "0123423456789"; got != want {
		t.Fatalf("labels = %q, want %q", got, want)
	}
	for i := 0; i < 3; i++ {
		if a.Unit(5+i) != a.Unit(2+i) {
			t.Fatalf("copied unit %d differs from source", i)
		}
	}
}

func TestDuplicateIsDeepCopy(t *testing.T) {
	a := labeledArray(4)
	a.Duplicate(1, 2)
	a.At(1)[0] = 'X'
	if a.Unit(2)[0] == 'X' {
		t.Fatal("duplicated unit aliases its source")
	}
}

func TestDuplicateAtTail(t *testing.T) {
	a := labeledArray(5)
	a.Duplicate(3, 5)
	if got, want := labels(a), "0123434"; got != want {
		t.Fatalf("labels = %q, want %q", got, want)
	}
}

func TestDuplicateWholeArray(t *testing.T) {
	a := labeledArray(4)
	a.Duplicate(0, 4)
	if got, want := labels(a), "01230123"; got != want {
		t.Fatalf("labels = %q, want %q", got, want)
	}
}

func TestDeleteMiddleRange(t *testing.T) {
	a := labeledArray(10)
	a.Delete(2, 5)
	if a.Len() != 7 {
		t.Fatalf("Len = %d, want 7", a.Len())
	}
	if got, want := labels(a), "0156789"; got != want {
		t.Fatalf("labels = %q, want %q", got, want)
	}
}

func TestDeleteAll(t *testing.T) {
	a := labeledArray(5)
	a.Delete(0, 5)
	if a.Len() != 0 {
		t.Fatalf("Len = %d, want 0", a.Len())
	}
}

func TestContentIntegrityAroundDuplication(t *testing.T) {
	a := labeledArray(10)
	before := make([]Unit, a.Len())
	copy(before, a.Units())

	a.Duplicate(3, 6)

	// Units before the splice point are untouched.
	for i := 0; i < 6; i++ {
		if a.Unit(i) != before[i] {
			t.Fatalf("unit %d corrupted by shift", i)
		}
	}
	// Units after the inserted block match the pre-duplication tail.
	for i := 6; i < 10; i++ {
		if a.Unit(i+3) != before[i] {
			t.Fatalf("tail unit %d corrupted by shift", i)
		}
	}
}

func TestContentIntegrityAroundDeletion(t *testing.T) {
	a := labeledArray(10)
	before := make([]Unit, a.Len())
	copy(before, a.Units())

	a.Delete(3, 6)

	for i := 0; i < 3; i++ {
		if a.Unit(i) != before[i] {
			t.Fatalf("head unit %d corrupted by shift", i)
		}
	}
	for i := 6; i < 10; i++ {
		if a.Unit(i-3) != before[i] {
			t.Fatalf("tail unit %d corrupted by shift", i)
		}
	}
}

func TestCapacityGrowthDoublesAndIsMonotonic(t *testing.T) {
	a := NewArray(2, MonomerUnit())
	prevCap := a.Cap()
	for i := 0; i < 8; i++ {
		a.Duplicate(0, a.Len())
		if a.Len() > a.Cap() {
			t.Fatalf("len %d exceeds cap %d", a.Len(), a.Cap())
		}
		if a.Cap() < prevCap {
			t.Fatalf("capacity shrank: %d -> %d", prevCap, a.Cap())
		}
		if a.Cap() > prevCap && a.Cap() < prevCap*2 {
			t.Fatalf("growth did not at least double: %d -> %d", prevCap, a.Cap())
		}
		prevCap = a.Cap()
	}
}

func TestZeroLengthRangesAreNoOps(t *testing.T) {
	a := labeledArray(5)
	a.Duplicate(2, 2)
	a.Delete(3, 3)
	if got, want := labels(a), "01234"; got != want {
		t.Fatalf("labels = %q, want %q", got, want)
	}
}
