package pileup

import (
	"github.com/seqforge/triopileup/internal/triopileup/genome"
)

// Encoder turns reference bases and aligned reads into single pileup rows.
// Channel layout, colors and alpha values follow the classifier's training
// convention:
//
//	0: read base (A=250 G=180 T=100 C=30, indel anchor distinct)
//	1: base quality, capped and scaled to 254
//	2: mapping quality, capped and scaled to 254
//	3: strand (positive 70, negative 240)
//	4: read supports one of the image's alt alleles
//	5: base differs from the reference window
type Encoder struct {
	opts *Options
}

// NewEncoder creates an encoder for the given options.
func NewEncoder(opts *Options) *Encoder {
	return &Encoder{opts: opts}
}

// BaseColor maps a base character to its channel-0 intensity.
func (e *Encoder) BaseColor(base byte) uint8 {
	switch base {
	case 'A', 'a':
		return uint8(e.opts.BaseColorOffsetAAndG + 3*e.opts.BaseColorStride)
	case 'G', 'g':
		return uint8(e.opts.BaseColorOffsetAAndG + 2*e.opts.BaseColorStride)
	case 'T', 't':
		return uint8(e.opts.BaseColorOffsetTAndC + 1*e.opts.BaseColorStride)
	case 'C', 'c':
		return uint8(e.opts.BaseColorOffsetTAndC)
	case e.opts.IndelAnchoringBaseChar:
		return uint8(e.opts.BaseColorStride)
	default:
		return 0
	}
}

// scaled maps value in [0, limit] onto [0, 254], clamping above limit.
func scaled(value, limit int) uint8 {
	if value > limit {
		value = limit
	}
	if value < 0 {
		value = 0
	}
	return uint8(254 * value / limit)
}

func upperBase(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func alphaColor(alpha float64) uint8 {
	return uint8(254.0*alpha + 0.5)
}

func (e *Encoder) strandColor(reverse bool) uint8 {
	if reverse {
		return uint8(e.opts.NegativeStrandColor)
	}
	return uint8(e.opts.PositiveStrandColor)
}

func (e *Encoder) supportColor(level genome.SupportLevel) uint8 {
	switch level {
	case genome.SupportsAlt:
		return alphaColor(e.opts.AlleleSupportingReadAlpha)
	case genome.SupportsOther:
		return alphaColor(e.opts.OtherAlleleSupportingReadAlpha)
	default:
		return alphaColor(e.opts.AlleleUnsupportingReadAlpha)
	}
}

func (e *Encoder) matchesRefColor(matches bool) uint8 {
	if matches {
		return alphaColor(e.opts.ReferenceMatchingReadAlpha)
	}
	return alphaColor(e.opts.ReferenceMismatchingReadAlpha)
}

// EmptyRow returns an all-black pileup row.
func (e *Encoder) EmptyRow() []uint8 {
	return make([]uint8, e.opts.Width*e.opts.NumChannels)
}

// EncodeReference encodes one reference band row for the given window bases.
// len(bases) must equal the image width.
func (e *Encoder) EncodeReference(bases string) []uint8 {
	row := e.EmptyRow()
	refAlpha := alphaColor(e.opts.ReferenceAlpha)
	refMatch := e.matchesRefColor(true)
	qual := scaled(e.opts.ReferenceBaseQuality, e.opts.BaseQualityCap)
	mapq := scaled(e.opts.MappingQualityCap, e.opts.MappingQualityCap)
	strand := e.strandColor(false)
	for col := 0; col < len(bases) && col < e.opts.Width; col++ {
		e.paint(row, col, e.BaseColor(bases[col]), qual, mapq, strand, refAlpha, refMatch)
	}
	return row
}

// EncodeRead encodes one read as a pileup row for an image window starting at
// imageStart. It returns nil when the read fails the read requirements or
// paints no column inside the window.
func (e *Encoder) EncodeRead(call *genome.Call, refBases string, read *genome.Read, imageStart int64, altAlleles []string) []uint8 {
	if read.Unmapped || read.Secondary || read.Supplementary {
		return nil
	}
	if read.MappingQuality < e.opts.ReadRequirements.MinMappingQuality {
		return nil
	}

	support := e.supportColor(call.ReadSupport(read.Key(), altAlleles))
	strand := e.strandColor(read.ReverseStrand)
	mapq := scaled(read.MappingQuality, e.opts.MappingQualityCap)
	anchor := e.opts.IndelAnchoringBaseChar

	row := e.EmptyRow()
	painted := false
	refPos := read.Position
	readPos := int64(0)
	lastQual := e.opts.ReferenceBaseQuality

	inWindow := func(col int64) bool { return col >= 0 && col < int64(e.opts.Width) }

	for _, u := range read.Cigar {
		switch u.Op {
		case genome.OpMatch, genome.OpSeqMatch, genome.OpMismatch:
			for i := int64(0); i < u.Length; i++ {
				col := refPos - imageStart
				base := read.Bases[readPos]
				qual := int(read.Quals[readPos])
				lastQual = qual
				if inWindow(col) && qual >= e.opts.ReadRequirements.MinBaseQuality {
					matches := upperBase(refBases[col]) == upperBase(base)
					e.paint(row, int(col),
						e.BaseColor(base),
						scaled(qual, e.opts.BaseQualityCap),
						mapq, strand, support,
						e.matchesRefColor(matches))
					painted = true
				}
				refPos++
				readPos++
			}
		case genome.OpInsert:
			// Mark the anchoring base so insertions stay visible even though
			// the inserted bases have no reference column of their own. An
			// insertion before any aligned base has no anchor to mark.
			col := refPos - 1 - imageStart
			if refPos > read.Position && inWindow(col) {
				row[int(col)*e.opts.NumChannels] = e.BaseColor(anchor)
				row[int(col)*e.opts.NumChannels+5] = e.matchesRefColor(false)
				painted = true
			}
			readPos += u.Length
		case genome.OpDelete, genome.OpRefSkip:
			for i := int64(0); i < u.Length; i++ {
				col := refPos - imageStart
				if inWindow(col) {
					e.paint(row, int(col),
						e.BaseColor(anchor),
						scaled(lastQual, e.opts.BaseQualityCap),
						mapq, strand, support,
						e.matchesRefColor(false))
					painted = true
				}
				refPos++
			}
		case genome.OpSoftClip:
			readPos += u.Length
		}
		if refPos-imageStart >= int64(e.opts.Width) && u.Op.ConsumesReference() {
			break
		}
	}

	if !painted {
		return nil
	}
	return row
}

func (e *Encoder) paint(row []uint8, col int, base, qual, mapq, strand, support, matchesRef uint8) {
	off := col * e.opts.NumChannels
	row[off] = base
	row[off+1] = qual
	row[off+2] = mapq
	row[off+3] = strand
	row[off+4] = support
	row[off+5] = matchesRef
}
