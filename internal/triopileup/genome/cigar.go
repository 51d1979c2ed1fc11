package genome

import (
	"fmt"
	"strings"

	"github.com/seqforge/triopileup/pkg/errors"
)

// CigarOp is a single alignment operation type.
type CigarOp byte

const (
	OpMatch    CigarOp = 'M' // alignment match (may be base mismatch)
	OpInsert   CigarOp = 'I'
	OpDelete   CigarOp = 'D'
	OpRefSkip  CigarOp = 'N'
	OpSoftClip CigarOp = 'S'
	OpHardClip CigarOp = 'H'
	OpPad      CigarOp = 'P'
	OpSeqMatch CigarOp = '='
	OpMismatch CigarOp = 'X'
)

// ConsumesRead reports whether the operation advances through read bases.
func (op CigarOp) ConsumesRead() bool {
	switch op {
	case OpMatch, OpInsert, OpSoftClip, OpSeqMatch, OpMismatch:
		return true
	}
	return false
}

// ConsumesReference reports whether the operation advances along the reference.
func (op CigarOp) ConsumesReference() bool {
	switch op {
	case OpMatch, OpDelete, OpRefSkip, OpSeqMatch, OpMismatch:
		return true
	}
	return false
}

// CigarUnit is one run-length encoded alignment operation.
type CigarUnit struct {
	Op     CigarOp
	Length int64
}

// Cigar is a full alignment description for one read.
type Cigar []CigarUnit

// ParseCigar parses a SAM CIGAR string such as "50M2D48M". "*" parses to an
// empty cigar.
func ParseCigar(s string) (Cigar, error) {
	if s == "" || s == "*" {
		return nil, nil
	}
	var cigar Cigar
	var length int64
	sawDigit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			length = length*10 + int64(c-'0')
			sawDigit = true
			continue
		}
		if !sawDigit || length == 0 {
			return nil, fmt.Errorf("%w: cigar %q has operation without length", errors.ErrMalformedRead, s)
		}
		switch CigarOp(c) {
		case OpMatch, OpInsert, OpDelete, OpRefSkip, OpSoftClip, OpHardClip, OpPad, OpSeqMatch, OpMismatch:
			cigar = append(cigar, CigarUnit{Op: CigarOp(c), Length: length})
		default:
			return nil, fmt.Errorf("%w: cigar %q has unknown operation %q", errors.ErrMalformedRead, s, string(c))
		}
		length = 0
		sawDigit = false
	}
	if sawDigit {
		return nil, fmt.Errorf("%w: cigar %q ends with a bare length", errors.ErrMalformedRead, s)
	}
	return cigar, nil
}

// ReferenceSpan returns how many reference bases the alignment covers.
func (c Cigar) ReferenceSpan() int64 {
	var span int64
	for _, u := range c {
		if u.Op.ConsumesReference() {
			span += u.Length
		}
	}
	return span
}

// ReadSpan returns how many read bases the alignment consumes, including
// soft-clipped bases.
func (c Cigar) ReadSpan() int64 {
	var span int64
	for _, u := range c {
		if u.Op.ConsumesRead() {
			span += u.Length
		}
	}
	return span
}

func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var b strings.Builder
	for _, u := range c {
		fmt.Fprintf(&b, "%d%c", u.Length, u.Op)
	}
	return b.String()
}
