package pileup

import (
	"fmt"
	"iter"
	"math/rand"
	"sort"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/internal/triopileup/sampling"
	"github.com/seqforge/triopileup/pkg/errors"
)

// RefReader supplies reference bases for pileup windows.
type RefReader interface {
	Query(r genome.Range) (string, error)
	IsValid(r genome.Range) bool
}

// ReadSource supplies the reads overlapping a range. Implementations decide
// the storage; the creator only sees overlap queries.
type ReadSource interface {
	Query(r genome.Range) ([]*genome.Read, error)
}

// sampleKind tells the creator which height budget a read band gets.
type sampleKind int

const (
	sampleChild sampleKind = iota
	sampleParent
)

// AltImage is one pileup image together with the alt alleles it contrasts
// against the reference.
type AltImage struct {
	AltAlleles []string
	Image      *Image
}

// Creator builds pileup images at candidate variant call sites.
//
// Given a Call, which carries the candidate variant and its allele support,
// CreatePileupImages fetches reference bases and reads for all three samples
// and hands them to the row encoder to assemble the image tensor.
//
// Multi-allelic sites expand into several images. With ref and alts A1,A2 a
// diploid sample has six possible genotypes; an image contrasting ref against
// {A1}, one against {A2} and one against {A1,A2} covers every genotype count
// the classifier needs, which is exactly what AltAlleleCombinations yields in
// AddHetAltImages mode.
type Creator struct {
	opts    *Options
	encoder *Encoder
	ref     RefReader
	child   ReadSource
	parent1 ReadSource
	parent2 ReadSource
}

// NewCreator wires a creator. parent1 and parent2 may be nil for duos or
// single-sample runs; their bands are then skipped entirely.
func NewCreator(opts *Options, ref RefReader, child, parent1, parent2 ReadSource) (*Creator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Creator{
		opts:    opts,
		encoder: NewEncoder(opts),
		ref:     ref,
		child:   child,
		parent1: parent1,
		parent2: parent2,
	}, nil
}

// Options returns the creator's options.
func (c *Creator) Options() *Options {
	return c.opts
}

// ReferenceWindow returns the width-wide window centred on the variant start.
func (c *Creator) ReferenceWindow(v *genome.Variant) genome.Range {
	start := v.Start - int64(c.opts.HalfWidth())
	return genome.Range{Reference: v.Reference, Start: start, End: start + int64(c.opts.Width)}
}

// QueryWindow returns the range used to fetch reads around the variant.
func (c *Creator) QueryWindow(v *genome.Variant) genome.Range {
	return v.Range().Expand(c.opts.ReadOverlapBufferBP)
}

// ReferenceBases fetches the window bases, or ok=false when the window is not
// valid (off the chromosome edge).
func (c *Creator) ReferenceBases(v *genome.Variant) (string, bool, error) {
	window := c.ReferenceWindow(v)
	if window.Start < 0 || !c.ref.IsValid(window) {
		return "", false, nil
	}
	bases, err := c.ref.Query(window)
	if err != nil {
		return "", false, err
	}
	return bases, true, nil
}

// Reads fetches the reads used to construct the pileup image around variant
// from the given source.
func (c *Creator) Reads(v *genome.Variant, source ReadSource) ([]*genome.Read, error) {
	if source == nil {
		return nil, nil
	}
	return source.Query(c.QueryWindow(v))
}

// AltAlleleCombinations computes the sets of alt alleles needed to cover all
// genotype likelihood calculations for the variant. NoHetAltImages yields one
// singleton set per alt; AddHetAltImages yields every 2-combination drawn
// from ref plus alts with the reference stripped, each sorted.
func (c *Creator) AltAlleleCombinations(v *genome.Variant) ([][]string, error) {
	alts := v.AlternateBases
	switch c.opts.MultiAllelicMode {
	case NoHetAltImages:
		combos := make([][]string, 0, len(alts))
		for _, alt := range alts {
			combos = append(combos, []string{alt})
		}
		return combos, nil
	case AddHetAltImages:
		pool := append([]string{v.ReferenceBases}, alts...)
		var combos [][]string
		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				set := map[string]struct{}{}
				for _, a := range []string{pool[i], pool[j]} {
					if a != v.ReferenceBases {
						set[a] = struct{}{}
					}
				}
				if len(set) == 0 {
					continue
				}
				combo := make([]string, 0, len(set))
				for a := range set {
					combo = append(combo, a)
				}
				sort.Strings(combo)
				combos = append(combos, combo)
			}
		}
		return combos, nil
	default:
		return nil, errors.ErrUnspecifiedAlleleMode
	}
}

// readRow pairs an encoded row with the sort keys used for stable ordering.
type readRow struct {
	haplotype int
	position  int64
	row       []uint8
}

// BuildPileup creates the pileup tensor for a call. refBases must be exactly
// width long with the base at half-width matching the variant's first
// reference base unless customRef is set (alt-aligned windows). Parent read
// slices may be nil, in which case their bands are omitted.
func (c *Creator) BuildPileup(call *genome.Call, refBases string, reads []*genome.Read,
	altAlleles []string, readsParent1, readsParent2 []*genome.Read, customRef bool) (*Image, error) {

	v := &call.Variant
	if len(refBases) != c.opts.Width {
		return nil, fmt.Errorf("%w: refbases is %d long but width is %d",
			errors.ErrReferenceMismatch, len(refBases), c.opts.Width)
	}
	if len(altAlleles) == 0 {
		return nil, errors.ErrEmptyAltAlleles
	}
	for _, alt := range altAlleles {
		if !v.HasAlt(alt) {
			return nil, fmt.Errorf("%w: %q not in %v", errors.ErrInvalidAltAllele, alt, v.AlternateBases)
		}
	}

	imageStart := v.Start - int64(c.opts.HalfWidth())
	if !customRef && refBases[c.opts.HalfWidth()] != v.ReferenceBases[0] {
		return nil, fmt.Errorf("%w: window center %q does not match variant reference base %q",
			errors.ErrReferenceMismatch, string(refBases[c.opts.HalfWidth()]), string(v.ReferenceBases[0]))
	}

	var bands [][]uint8
	if c.opts.Trio {
		bands = append(bands, c.buildSampleBand(call, refBases, readsParent1, altAlleles, imageStart, sampleParent)...)
	}
	bands = append(bands, c.buildSampleBand(call, refBases, reads, altAlleles, imageStart, sampleChild)...)
	if c.opts.Trio {
		bands = append(bands, c.buildSampleBand(call, refBases, readsParent2, altAlleles, imageStart, sampleParent)...)
	}

	img := NewImage(len(bands), c.opts.Width, c.opts.NumChannels)
	for i, row := range bands {
		img.SetRow(i, row)
	}
	return img, nil
}

// buildSampleBand assembles one sample's section: the reference band, the
// down-sampled encoded reads sorted by (haplotype, position), and black
// padding up to the sample's height. A nil read slice contributes nothing,
// keeping duo pileups compact.
func (c *Creator) buildSampleBand(call *genome.Call, refBases string, reads []*genome.Read,
	altAlleles []string, imageStart int64, kind sampleKind) [][]uint8 {

	if reads == nil {
		return nil
	}

	height := c.opts.Height
	if c.opts.Trio {
		if kind == sampleChild {
			height = c.opts.HeightChild
		} else {
			height = c.opts.HeightParent
		}
	}

	rows := make([][]uint8, 0, height)
	refRow := c.encoder.EncodeReference(refBases)
	for i := 0; i < c.opts.ReferenceBandHeight; i++ {
		rows = append(rows, refRow)
	}

	rowSeq := func(yield func(readRow) bool) {
		for _, read := range reads {
			row := c.encoder.EncodeRead(call, refBases, read, imageStart, altAlleles)
			if row == nil {
				continue
			}
			hap := 0
			if c.opts.SortByHaplotypes {
				hap = read.Haplotype
			}
			if !yield(readRow{haplotype: hap, position: read.Position, row: row}) {
				return
			}
		}
	}

	rng := rand.New(rand.NewSource(c.opts.RandomSeed))
	maxReads := height - c.opts.ReferenceBandHeight
	sample := sampling.Reservoir(iter.Seq[readRow](rowSeq), maxReads, rng)
	sort.SliceStable(sample, func(i, j int) bool {
		if sample[i].haplotype != sample[j].haplotype {
			return sample[i].haplotype < sample[j].haplotype
		}
		return sample[i].position < sample[j].position
	})
	for _, r := range sample {
		rows = append(rows, r.row)
	}

	for len(rows) < height {
		rows = append(rows, c.encoder.EmptyRow())
	}
	return rows
}

// HaplotypeData carries alt-aligned reads and window sequences keyed by alt
// allele, one set per sample, for alt-aligned pileup modes.
type HaplotypeData struct {
	Alignments        map[string][]*genome.Read
	Sequences         map[string]string
	Parent1Alignments map[string][]*genome.Read
	Parent2Alignments map[string][]*genome.Read
}

// CreatePileupImages creates the full set of pileup images for a call, one
// per alt-allele combination. It returns (nil, nil) when the window runs off
// the chromosome edge, signalling the caller to skip the candidate. hap may
// be nil unless an alt-aligned representation is configured.
func (c *Creator) CreatePileupImages(call *genome.Call, hap *HaplotypeData) ([]AltImage, error) {
	v := &call.Variant
	refBases, ok, err := c.ReferenceBases(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	reads, err := c.Reads(v, c.child)
	if err != nil {
		return nil, err
	}
	readsParent1, err := c.Reads(v, c.parent1)
	if err != nil {
		return nil, err
	}
	readsParent2, err := c.Reads(v, c.parent2)
	if err != nil {
		return nil, err
	}

	combos, err := c.AltAlleleCombinations(v)
	if err != nil {
		return nil, err
	}

	images := make([]AltImage, 0, len(combos))
	for _, alts := range combos {
		refImage, err := c.BuildPileup(call, refBases, reads, alts, readsParent1, readsParent2, false)
		if err != nil {
			return nil, err
		}

		img := refImage
		if c.opts.AltAlignedPileup != AltAlignedNone {
			if hap == nil || hap.Alignments == nil || hap.Sequences == nil ||
				hap.Parent1Alignments == nil || hap.Parent2Alignments == nil {
				return nil, fmt.Errorf("%w: alt-aligned pileups need haplotype alignments and sequences for all samples",
					errors.ErrInvalidAltAlignedMode)
			}
			altImages := make([]*Image, 0, len(alts))
			for _, alt := range alts {
				altImg, err := c.BuildPileup(call, hap.Sequences[alt], hap.Alignments[alt], alts,
					hap.Parent1Alignments[alt], hap.Parent2Alignments[alt], true)
				if err != nil {
					return nil, err
				}
				altImages = append(altImages, altImg)
			}
			img, err = composeAltAligned(c.opts.AltAlignedPileup, refImage, altImages)
			if err != nil {
				return nil, err
			}
		}

		images = append(images, AltImage{AltAlleles: alts, Image: img})
	}
	return images, nil
}
