// Package genome holds the coordinate, read and variant primitives shared by
// the pileup encoder and the readers that feed it. Positions are 0-based and
// ranges are half-open, matching the upstream schema; the 1-based form only
// appears in display strings.
package genome

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seqforge/triopileup/pkg/errors"
)

// Range is a half-open interval [Start, End) on a single reference sequence.
type Range struct {
	Reference string
	Start     int64
	End       int64
}

// MakeRange builds a range, clamping a negative start to zero so windows that
// run off the left edge of a contig remain queryable.
func MakeRange(reference string, start, end int64) Range {
	if start < 0 {
		start = 0
	}
	return Range{Reference: reference, Start: start, End: end}
}

// Expand grows the range by buffer bases on both sides.
func (r Range) Expand(buffer int64) Range {
	return MakeRange(r.Reference, r.Start-buffer, r.End+buffer)
}

// Width returns the number of bases covered by the range.
func (r Range) Width() int64 {
	return r.End - r.Start
}

// Contains reports whether pos falls inside the range.
func (r Range) Contains(pos int64) bool {
	return pos >= r.Start && pos < r.End
}

// Overlaps reports whether the two ranges share at least one base on the same
// reference.
func (r Range) Overlaps(other Range) bool {
	return r.Reference == other.Reference && r.Start < other.End && other.Start < r.End
}

// IsValid reports whether the range is well-formed.
func (r Range) IsValid() bool {
	return r.Reference != "" && r.Start >= 0 && r.End >= r.Start
}

// String renders the range in the conventional 1-based inclusive form, e.g.
// "chr20:9999935-10000155".
func (r Range) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Reference, r.Start+1, r.End)
}

// ParseRange parses "ref:start-end" (1-based inclusive, commas tolerated) or
// a bare reference name. For a bare name End is -1, meaning the full contig;
// callers resolve it against the reference index.
func ParseRange(s string) (Range, error) {
	if s == "" {
		return Range{}, fmt.Errorf("%w: empty region", errors.ErrInvalidRange)
	}
	colon := strings.LastIndex(s, ":")
	if colon < 0 {
		return Range{Reference: s, Start: 0, End: -1}, nil
	}
	ref := s[:colon]
	span := s[colon+1:]
	dash := strings.Index(span, "-")
	if ref == "" || dash < 0 {
		return Range{}, fmt.Errorf("%w: %q", errors.ErrInvalidRange, s)
	}
	start, err := strconv.ParseInt(strings.ReplaceAll(span[:dash], ",", ""), 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: bad start in %q", errors.ErrInvalidRange, s)
	}
	end, err := strconv.ParseInt(strings.ReplaceAll(span[dash+1:], ",", ""), 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: bad end in %q", errors.ErrInvalidRange, s)
	}
	if start < 1 || end < start {
		return Range{}, fmt.Errorf("%w: %q", errors.ErrInvalidRange, s)
	}
	return Range{Reference: ref, Start: start - 1, End: end}, nil
}
