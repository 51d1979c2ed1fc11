// Package sam loads aligned reads from SAM text files and serves overlap
// queries against them. Only the alignment fields the encoder needs are
// parsed; everything else in a record is ignored.
package sam

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/pkg/errors"
)

// SAM flag bits.
const (
	flagPaired        = 0x1
	flagUnmapped      = 0x4
	flagReverseStrand = 0x10
	flagFirstInPair   = 0x40
	flagSecondInPair  = 0x80
	flagSecondary     = 0x100
	flagDuplicate     = 0x400
	flagSupplementary = 0x800
)

const qualityOffset = 33 // Phred+33 encoding

// ParseRecord parses one alignment line into a Read.
func ParseRecord(line string) (*genome.Read, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 11 {
		return nil, fmt.Errorf("%w: record has %d fields, want at least 11", errors.ErrMalformedRead, len(fields))
	}

	flag, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad flag %q", errors.ErrMalformedRead, fields[1])
	}
	pos, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad position %q", errors.ErrMalformedRead, fields[3])
	}
	mapq, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, fmt.Errorf("%w: bad mapping quality %q", errors.ErrMalformedRead, fields[4])
	}
	cigar, err := genome.ParseCigar(fields[5])
	if err != nil {
		return nil, err
	}

	read := &genome.Read{
		Name:           fields[0],
		Reference:      fields[2],
		Position:       pos - 1, // SAM is 1-based
		MappingQuality: mapq,
		Bases:          fields[9],
		Cigar:          cigar,
		ReverseStrand:  flag&flagReverseStrand != 0,
		Unmapped:       flag&flagUnmapped != 0,
		Secondary:      flag&flagSecondary != 0,
		Supplementary:  flag&flagSupplementary != 0,
		Duplicate:      flag&flagDuplicate != 0,
	}
	if flag&flagPaired != 0 {
		switch {
		case flag&flagFirstInPair != 0:
			read.ReadNumber = 1
		case flag&flagSecondInPair != 0:
			read.ReadNumber = 2
		}
	}

	if fields[10] != "*" {
		quals := make([]byte, len(fields[10]))
		for i := 0; i < len(fields[10]); i++ {
			if fields[10][i] < qualityOffset {
				return nil, fmt.Errorf("%w: quality character %q below Phred+33 range",
					errors.ErrMalformedRead, string(fields[10][i]))
			}
			quals[i] = fields[10][i] - qualityOffset
		}
		read.Quals = quals
	} else {
		read.Quals = make([]byte, len(read.Bases))
	}

	for _, tag := range fields[11:] {
		if hp, ok := strings.CutPrefix(tag, "HP:i:"); ok {
			n, err := strconv.Atoi(hp)
			if err != nil {
				return nil, fmt.Errorf("%w: bad HP tag %q", errors.ErrMalformedRead, tag)
			}
			read.Haplotype = n
		}
	}

	if err := read.Validate(); err != nil {
		return nil, err
	}
	return read, nil
}
