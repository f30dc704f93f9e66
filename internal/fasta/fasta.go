// Package fasta exports and imports repeat arrays as FASTA. It is a pure
// read-only collaborator of the simulation: export traverses the array
// without mutating it, and import builds fresh units.
package fasta

import (
	"bufio"
	"fmt"
	"io"

	"censim/internal/repeat"
)

// lineWidth is the sequence wrap column on export.
const lineWidth = 60

// Write emits one record per unit: a ">repeat_<index>" header followed by
// the wrapped sequence.
func Write(w io.Writer, units []repeat.Unit) error {
	bw := bufio.NewWriter(w)
	for i := range units {
		if _, err := fmt.Fprintf(bw, ">repeat_%d\n", i); err != nil {
			return err
		}
		seq := units[i][:]
		for off := 0; off < len(seq); off += lineWidth {
			end := off + lineWidth
			if end > len(seq) {
				end = len(seq)
			}
			if _, err := bw.Write(seq[off:end]); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Read parses FASTA records and splits each sequence into repeat units.
// Every record's sequence length must be a multiple of the monomer size;
// records are concatenated in input order.
func Read(r io.Reader) ([]repeat.Unit, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var (
		units []repeat.Unit
		id    string
		seq   []byte
	)

	flush := func() error {
		if id == "" && len(seq) == 0 {
			return nil
		}
		if len(seq)%repeat.UnitSize != 0 {
			return fmt.Errorf("record %q: sequence length %d is not a multiple of the %d-base monomer",
				id, len(seq), repeat.UnitSize)
		}
		for off := 0; off < len(seq); off += repeat.UnitSize {
			var u repeat.Unit
			copy(u[:], seq[off:off+repeat.UnitSize])
			units = append(units, u)
		}
		seq = seq[:0]
		return nil
	}

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			id = string(line[1:])
			continue
		}
		seq = append(seq, line...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return units, nil
}
