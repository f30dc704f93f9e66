package sim

import "censim/internal/repeat"

// fnv1a hashes a unit's raw bases with 32-bit FNV-1a.
func fnv1a(u *repeat.Unit) uint32 {
	h := uint32(2166136261)
	for _, b := range u {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}

// CountUnique returns the number of distinct sequences in the array, using
// an open-addressed hash set sized to twice the element count with linear
// probing. Hash equality is treated as sequence equality: two distinct
// sequences that collide are miscounted as one. The collision probability
// is negligible at this hash width for 178-base records, and the
// approximation is deliberate.
func (s *Simulation) CountUnique() int {
	n := s.array.Len()
	if n == 0 {
		return 0
	}

	tableSize := n * 2
	seen := make([]uint32, tableSize)
	unique := 0

	for i := 0; i < n; i++ {
		h := fnv1a(s.array.At(i))
		idx := int(h % uint32(tableSize))
		for seen[idx] != 0 {
			if seen[idx] == h {
				break
			}
			idx = (idx + 1) % tableSize
		}
		if seen[idx] == 0 {
			seen[idx] = h
			unique++
		}
	}
	return unique
}

// Diversity returns CountUnique()/Len, or 0 for an empty array.
func (s *Simulation) Diversity() float64 {
	n := s.array.Len()
	if n == 0 {
		return 0
	}
	return float64(s.CountUnique()) / float64(n)
}
