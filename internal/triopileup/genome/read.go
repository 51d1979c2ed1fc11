package genome

import (
	"fmt"

	"github.com/seqforge/triopileup/pkg/errors"
)

// Read is one aligned sequencing read. Quals holds raw Phred scores, not
// ASCII-offset characters.
type Read struct {
	Name           string
	Reference      string
	Position       int64 // 0-based leftmost aligned base
	MappingQuality int
	Bases          string
	Quals          []byte
	Cigar          Cigar
	ReverseStrand  bool
	Unmapped       bool
	Secondary      bool
	Supplementary  bool
	Duplicate      bool
	ReadNumber     int // 1 or 2 for paired reads, 0 for fragments
	Haplotype      int // HP tag, 0 when untagged
}

// Key identifies the read for allele-support lookups. Mates share a name, so
// the read number keeps pairs distinct the way the support maps expect.
func (r *Read) Key() string {
	return fmt.Sprintf("%s/%d", r.Name, r.ReadNumber)
}

// EndPosition returns the 0-based position one past the last aligned base.
func (r *Read) EndPosition() int64 {
	return r.Position + r.Cigar.ReferenceSpan()
}

// Range returns the reference interval the alignment covers.
func (r *Read) Range() Range {
	return Range{Reference: r.Reference, Start: r.Position, End: r.EndPosition()}
}

// Validate checks the structural invariants the encoder relies on: bases and
// qualities of equal length, and a cigar whose read span matches the sequence.
func (r *Read) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: read has no name", errors.ErrMalformedRead)
	}
	if len(r.Bases) != len(r.Quals) {
		return fmt.Errorf("%w: read %s has %d bases but %d quality scores",
			errors.ErrMalformedRead, r.Name, len(r.Bases), len(r.Quals))
	}
	if !r.Unmapped {
		if span := r.Cigar.ReadSpan(); span != int64(len(r.Bases)) {
			return fmt.Errorf("%w: read %s cigar %s consumes %d bases, sequence has %d",
				errors.ErrMalformedRead, r.Name, r.Cigar, span, len(r.Bases))
		}
		if r.Position < 0 {
			return fmt.Errorf("%w: read %s has negative position %d",
				errors.ErrMalformedRead, r.Name, r.Position)
		}
	}
	return nil
}
