// Package repeat implements the tandem repeat array store: an ordered,
// growable sequence of fixed-length monomer records supporting block
// duplication and block deletion.
package repeat

import "fmt"

// UnitSize is the monomer length in bases. Every unit in an array has
// exactly this length.
const UnitSize = 178

// DefaultMonomer is the CEN178 consensus sequence used to seed new arrays.
const DefaultMonomer = "AGTATAAGAACTTAAACCGCAACCCGATCTTAAAAGCCTAAGTAGTGTTTCCTTGTTAGAAGACACAAAGCCAAAGACTCATATGGACTTTGGCTACACCATGAAAGCTTTGAGAAGCAAGAAGAAGGTTGGTTAGTGTTTTGGAGTCGAATATGACTTGATGTCATGTGTATGATTG"

// Bases is the nucleotide alphabet.
var Bases = [4]byte{'A', 'C', 'G', 'T'}

// Unit is one repeat monomer. It is a value type: assignment deep-copies
// the sequence, so duplicated units never alias their source.
type Unit [UnitSize]byte

// MonomerUnit returns the default consensus monomer.
func MonomerUnit() Unit {
	var u Unit
	copy(u[:], DefaultMonomer)
	return u
}

// UnitFromString builds a unit from a sequence string of exactly UnitSize
// bases.
func UnitFromString(s string) (Unit, error) {
	var u Unit
	if len(s) != UnitSize {
		return u, fmt.Errorf("repeat unit must be %d bases, got %d", UnitSize, len(s))
	}
	copy(u[:], s)
	return u, nil
}

func (u Unit) String() string {
	return string(u[:])
}

// Array is an ordered tandem array of repeat units. Adjacency is
// semantically meaningful: duplications and deletions act on contiguous
// index ranges. An Array is exclusively owned by one simulation; it is not
// safe for concurrent use.
type Array struct {
	units []Unit
}

// NewArray builds an array of n copies of proto, with spare capacity so the
// first few duplications do not reallocate.
func NewArray(n int, proto Unit) *Array {
	if n < 0 {
		n = 0
	}
	capacity := n * 2
	if capacity < 1 {
		capacity = 1
	}
	a := &Array{units: make([]Unit, n, capacity)}
	for i := range a.units {
		a.units[i] = proto
	}
	return a
}

// Len returns the number of units.
func (a *Array) Len() int { return len(a.units) }

// Cap returns the allocated capacity in units.
func (a *Array) Cap() int { return cap(a.units) }

// At returns a pointer to the unit at index i for in-place substitution.
// The pointer is invalidated by the next Duplicate or Delete.
func (a *Array) At(i int) *Unit { return &a.units[i] }

// Unit returns a copy of the unit at index i.
func (a *Array) Unit(i int) Unit { return a.units[i] }

// ensureCapacity grows the backing store to hold at least needed units.
// Growth at least doubles and is monotonic.
func (a *Array) ensureCapacity(needed int) {
	if needed <= cap(a.units) {
		return
	}
	newCap := cap(a.units)
	if newCap == 0 {
		newCap = 1
	}
	for newCap < needed {
		newCap *= 2
	}
	grown := make([]Unit, len(a.units), newCap)
	copy(grown, a.units)
	a.units = grown
}

// Duplicate deep-copies the range [start, end) and splices the copy
// immediately after end, shifting the tail right. Callers must guarantee
// 0 <= start <= end <= Len(); the store does not re-validate.
func (a *Array) Duplicate(start, end int) {
	k := end - start
	if k == 0 {
		return
	}
	n := len(a.units)
	a.ensureCapacity(n + k)
	a.units = a.units[:n+k]
	copy(a.units[end+k:], a.units[end:n])
	copy(a.units[end:end+k], a.units[start:end])
}

// Delete removes the range [start, end), shifting the tail left to close
// the gap. Callers must guarantee 0 <= start <= end <= Len().
func (a *Array) Delete(start, end int) {
	k := end - start
	if k == 0 {
		return
	}
	n := len(a.units)
	copy(a.units[start:], a.units[end:n])
	a.units = a.units[:n-k]
}

// Units returns the backing slice for read-only traversal (export,
// colorization). Mutating it bypasses the store's ownership contract.
func (a *Array) Units() []Unit { return a.units }
