// Package pileup builds multi-channel pileup tensors for candidate variant
// calls, stacking parent1, child and parent2 read bands into a single image
// the way trio-aware genotype classifiers expect.
package pileup

import (
	"fmt"

	"github.com/seqforge/triopileup/pkg/errors"
)

// MultiAllelicMode selects how multi-allelic sites expand into images.
type MultiAllelicMode int

const (
	// MultiAllelicUnspecified is rejected at build time.
	MultiAllelicUnspecified MultiAllelicMode = iota
	// NoHetAltImages produces one image per alt allele.
	NoHetAltImages
	// AddHetAltImages additionally produces one image per pair of alts, so
	// het-alt genotypes get their own likelihood estimate.
	AddHetAltImages
)

// Alt-aligned pileup representations.
const (
	AltAlignedNone         = ""
	AltAlignedRows         = "rows"
	AltAlignedBaseChannels = "base_channels"
	AltAlignedDiffChannels = "diff_channels"
)

// ReadRequirements filters reads before they are encoded.
type ReadRequirements struct {
	MinBaseQuality    int
	MinMappingQuality int
}

// Options controls pileup geometry and channel encoding.
type Options struct {
	ReferenceBandHeight int

	BaseColorOffsetAAndG int
	BaseColorOffsetTAndC int
	BaseColorStride      int

	AlleleSupportingReadAlpha      float64
	AlleleUnsupportingReadAlpha    float64
	OtherAlleleSupportingReadAlpha float64
	ReferenceMatchingReadAlpha     float64
	ReferenceMismatchingReadAlpha  float64
	ReferenceAlpha                 float64

	IndelAnchoringBaseChar byte
	ReferenceBaseQuality   int
	PositiveStrandColor    int
	NegativeStrandColor    int
	BaseQualityCap         int
	MappingQualityCap      int

	Height       int
	HeightParent int
	HeightChild  int
	Width        int
	NumChannels  int

	ReadOverlapBufferBP int64
	ReadRequirements    ReadRequirements
	MultiAllelicMode    MultiAllelicMode
	AltAlignedPileup    string
	SortByHaplotypes    bool

	// Trio stacks parent1/child/parent2 bands; off it behaves like a
	// single-sample pileup of Height rows.
	Trio bool

	// RandomSeed feeds the reservoir sampler so shards are reproducible.
	RandomSeed int64
}

// Default pileup geometry.
const (
	DefaultWidth        = 221
	DefaultHeight       = 100
	DefaultHeightParent = 100
	DefaultHeightChild  = 100
	DefaultNumChannels  = 6
)

// DefaultOptions returns Options populated with good default values.
func DefaultOptions() *Options {
	return &Options{
		ReferenceBandHeight: 5,

		BaseColorOffsetAAndG: 40,
		BaseColorOffsetTAndC: 30,
		BaseColorStride:      70,

		AlleleSupportingReadAlpha:      1.0,
		AlleleUnsupportingReadAlpha:    0.6,
		OtherAlleleSupportingReadAlpha: 0.6,
		ReferenceMatchingReadAlpha:     0.2,
		ReferenceMismatchingReadAlpha:  1.0,
		ReferenceAlpha:                 0.4,

		IndelAnchoringBaseChar: '*',
		ReferenceBaseQuality:   60,
		PositiveStrandColor:    70,
		NegativeStrandColor:    240,
		BaseQualityCap:         40,
		MappingQualityCap:      60,

		Height:       DefaultHeight,
		HeightParent: DefaultHeightParent,
		HeightChild:  DefaultHeightChild,
		Width:        DefaultWidth,
		NumChannels:  DefaultNumChannels,

		ReadOverlapBufferBP: 5,
		ReadRequirements: ReadRequirements{
			MinBaseQuality:    10,
			MinMappingQuality: 10,
		},
		MultiAllelicMode: AddHetAltImages,
		AltAlignedPileup: AltAlignedNone,
		Trio:             true,

		// Fixed seed, same role as the upstream od -vAn -N4 -tu4 draw.
		RandomSeed: 2101079370,
	}
}

// HalfWidth returns the number of bases on either side of the center column.
func (o *Options) HalfWidth() int {
	return (o.Width - 1) / 2
}

// Validate rejects geometry the encoder cannot work with.
func (o *Options) Validate() error {
	if o.Width < 3 || o.Width%2 == 0 {
		return fmt.Errorf("%w: width must be odd and at least 3, got %d", errors.ErrInvalidOptions, o.Width)
	}
	if o.NumChannels < 6 {
		return fmt.Errorf("%w: need at least 6 channels, got %d", errors.ErrInvalidOptions, o.NumChannels)
	}
	for _, h := range []int{o.Height, o.HeightParent, o.HeightChild} {
		if h <= o.ReferenceBandHeight {
			return fmt.Errorf("%w: height %d leaves no room below the reference band (%d)",
				errors.ErrInvalidOptions, h, o.ReferenceBandHeight)
		}
	}
	switch o.AltAlignedPileup {
	case AltAlignedNone, AltAlignedRows, AltAlignedBaseChannels, AltAlignedDiffChannels:
	default:
		return fmt.Errorf("%w: %q", errors.ErrInvalidAltAlignedMode, o.AltAlignedPileup)
	}
	return nil
}
