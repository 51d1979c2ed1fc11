package genome

import (
	"fmt"
	"sort"

	"github.com/seqforge/triopileup/pkg/errors"
)

// Variant is a candidate variant site. Start is the 0-based position of the
// first reference base; End is Start + len(ReferenceBases).
type Variant struct {
	Reference      string
	Start          int64
	End            int64
	ReferenceBases string
	AlternateBases []string
}

// Range returns the reference interval the variant spans.
func (v *Variant) Range() Range {
	return Range{Reference: v.Reference, Start: v.Start, End: v.End}
}

// IsSNP reports whether the variant is a single-base substitution across all
// of its alternates.
func (v *Variant) IsSNP() bool {
	if len(v.ReferenceBases) != 1 {
		return false
	}
	for _, alt := range v.AlternateBases {
		if len(alt) != 1 {
			return false
		}
	}
	return len(v.AlternateBases) > 0
}

// HasAlt reports whether alt is one of the variant's alternate bases.
func (v *Variant) HasAlt(alt string) bool {
	for _, a := range v.AlternateBases {
		if a == alt {
			return true
		}
	}
	return false
}

func (v *Variant) Validate() error {
	if v.Reference == "" || v.ReferenceBases == "" {
		return fmt.Errorf("%w: variant at %d missing reference", errors.ErrMalformedVariant, v.Start)
	}
	if v.End != v.Start+int64(len(v.ReferenceBases)) {
		return fmt.Errorf("%w: variant %s end %d does not match reference bases %q",
			errors.ErrMalformedVariant, v.Range(), v.End, v.ReferenceBases)
	}
	if len(v.AlternateBases) == 0 {
		return fmt.Errorf("%w: variant %s has no alternate bases", errors.ErrMalformedVariant, v.Range())
	}
	return nil
}

// SupportLevel describes how a read relates to the alt alleles a pileup image
// is being built for.
type SupportLevel int

const (
	SupportsNone  SupportLevel = iota // read supports no alternate allele
	SupportsOther                     // read supports an alt outside the image's set
	SupportsAlt                       // read supports one of the image's alts
)

// Call couples a candidate variant with the reads known to support each of
// its alternate alleles. The support map is keyed by alternate bases; values
// are read keys as produced by Read.Key.
type Call struct {
	Variant Variant
	Support map[string][]string
}

// NewCall builds a call with the given allele-support map. A nil map means no
// support information, which renders every read as unsupporting.
func NewCall(v Variant, support map[string][]string) *Call {
	if support == nil {
		support = map[string][]string{}
	}
	return &Call{Variant: v, Support: support}
}

// ReadSupport classifies a read against the alts chosen for one image.
func (c *Call) ReadSupport(readKey string, altAlleles []string) SupportLevel {
	inSet := func(alts []string, a string) bool {
		for _, x := range alts {
			if x == a {
				return true
			}
		}
		return false
	}
	level := SupportsNone
	for alt, keys := range c.Support {
		for _, k := range keys {
			if k != readKey {
				continue
			}
			if inSet(altAlleles, alt) {
				return SupportsAlt
			}
			level = SupportsOther
		}
	}
	return level
}

// ComputeAlleleSupport derives a support map by spelling out the allele each
// read carries across the variant's reference span and matching it against
// the declared alternates. Reads that do not fully cover the span contribute
// nothing.
func ComputeAlleleSupport(v *Variant, reads []*Read) map[string][]string {
	support := make(map[string][]string)
	for _, read := range reads {
		allele, ok := spelledAllele(read, v.Start, v.End)
		if !ok || allele == v.ReferenceBases {
			continue
		}
		if v.HasAlt(allele) {
			support[allele] = append(support[allele], read.Key())
		}
	}
	for _, keys := range support {
		sort.Strings(keys)
	}
	return support
}

// spelledAllele reconstructs the bases a read places over [start, end) on the
// reference, including insertions anchored inside the span. The second return
// is false when the read does not span the whole interval.
func spelledAllele(read *Read, start, end int64) (string, bool) {
	if read.Unmapped || read.Position > start || read.EndPosition() < end {
		return "", false
	}
	refPos := read.Position
	readPos := int64(0)
	var allele []byte
	for _, u := range read.Cigar {
		switch u.Op {
		case OpMatch, OpSeqMatch, OpMismatch:
			for i := int64(0); i < u.Length; i++ {
				if refPos >= start && refPos < end {
					allele = append(allele, read.Bases[readPos])
				}
				refPos++
				readPos++
			}
		case OpInsert:
			// Inserted bases belong to the allele when anchored after the
			// first spanned base, mirroring VCF's left-anchored encoding.
			if refPos > start && refPos <= end {
				allele = append(allele, read.Bases[readPos:readPos+u.Length]...)
			}
			readPos += u.Length
		case OpDelete, OpRefSkip:
			refPos += u.Length
		case OpSoftClip:
			readPos += u.Length
		}
		// Keep walking while refPos == end so an insertion anchored at the
		// right edge of the span is still collected.
		if refPos > end {
			break
		}
	}
	return string(allele), true
}
