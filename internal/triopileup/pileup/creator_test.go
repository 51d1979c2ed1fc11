package pileup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/pkg/errors"
)

// stubRef serves a single contig backed by an in-memory string.
type stubRef struct {
	seq string
}

func (s *stubRef) IsValid(r genome.Range) bool {
	return r.Start >= 0 && r.End <= int64(len(s.seq))
}

func (s *stubRef) Query(r genome.Range) (string, error) {
	if !s.IsValid(r) {
		return "", errors.NewRegionError(r.String(), "query", errors.ErrInvalidRange)
	}
	return s.seq[r.Start:r.End], nil
}

// stubSource returns every stored read overlapping the query range.
type stubSource struct {
	reads []*genome.Read
}

func (s *stubSource) Query(r genome.Range) ([]*genome.Read, error) {
	var out []*genome.Read
	for _, read := range s.reads {
		if read.Range().Overlaps(r) {
			out = append(out, read)
		}
	}
	return out, nil
}

func testOptions() *Options {
	opts := DefaultOptions()
	opts.Width = 11
	opts.Height = 9
	opts.HeightChild = 9
	opts.HeightParent = 8
	opts.ReferenceBandHeight = 2
	opts.MultiAllelicMode = NoHetAltImages
	return opts
}

func testReference() *stubRef {
	return &stubRef{seq: strings.Repeat("ACGT", 15)}
}

func TestAltAlleleCombinations(t *testing.T) {
	v := &genome.Variant{
		Reference:      "chr1",
		Start:          20,
		End:            21,
		ReferenceBases: "A",
		AlternateBases: []string{"C", "T"},
	}

	opts := testOptions()
	opts.MultiAllelicMode = NoHetAltImages
	c, err := NewCreator(opts, testReference(), &stubSource{}, nil, nil)
	require.NoError(t, err)
	combos, err := c.AltAlleleCombinations(v)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"C"}, {"T"}}, combos)

	opts = testOptions()
	opts.MultiAllelicMode = AddHetAltImages
	c, err = NewCreator(opts, testReference(), &stubSource{}, nil, nil)
	require.NoError(t, err)
	combos, err = c.AltAlleleCombinations(v)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"C"}, {"T"}, {"C", "T"}}, combos)

	opts = testOptions()
	opts.MultiAllelicMode = MultiAllelicUnspecified
	c, err = NewCreator(opts, testReference(), &stubSource{}, nil, nil)
	require.NoError(t, err)
	_, err = c.AltAlleleCombinations(v)
	assert.ErrorIs(t, err, errors.ErrUnspecifiedAlleleMode)
}

func TestCreatePileupImagesTrio(t *testing.T) {
	opts := testOptions()
	ref := testReference()

	// Window around start 20 is [15,26): TACGTACGTAC with the A at column 5.
	kid := testRead(t, "kid1", 15, "11M", "TACGTCCGTAC", 30)
	mom := testRead(t, "mom1", 15, "11M", "TACGTACGTAC", 30)
	dad := testRead(t, "dad1", 15, "11M", "TACGTCCGTAC", 30)

	c, err := NewCreator(opts, ref,
		&stubSource{reads: []*genome.Read{kid}},
		&stubSource{reads: []*genome.Read{mom}},
		&stubSource{reads: []*genome.Read{dad}})
	require.NoError(t, err)

	call := snpCall(20, "A", "C")
	call.Support["C"] = []string{"kid1/1", "dad1/1"}

	images, err := c.CreatePileupImages(call, nil)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, []string{"C"}, images[0].AltAlleles)

	img := images[0].Image
	assert.Equal(t, opts.HeightParent+opts.HeightChild+opts.HeightParent, img.Height)
	assert.Equal(t, opts.Width, img.Width)
	assert.Equal(t, opts.NumChannels, img.Channels)

	// Each band opens with the reference rows.
	enc := NewEncoder(opts)
	refRow := enc.EncodeReference("TACGTACGTAC")
	assert.Equal(t, refRow, img.Row(0), "parent1 reference band")
	assert.Equal(t, refRow, img.Row(opts.HeightParent), "child reference band")
	assert.Equal(t, refRow, img.Row(opts.HeightParent+opts.HeightChild), "parent2 reference band")

	// The child read sits right below the child reference band and supports
	// the alt at the center column.
	kidRow := img.Row(opts.HeightParent + opts.ReferenceBandHeight)
	center := kidRow[5*opts.NumChannels : 6*opts.NumChannels]
	assert.Equal(t, uint8(30), center[0], "C base color")
	assert.Equal(t, uint8(254), center[4], "supports alt")
	assert.Equal(t, uint8(254), center[5], "differs from ref")

	// Mom's read matches the reference everywhere.
	momRow := img.Row(opts.ReferenceBandHeight)
	momCenter := momRow[5*opts.NumChannels : 6*opts.NumChannels]
	assert.Equal(t, uint8(250), momCenter[0], "A base color")
	assert.Equal(t, uint8(152), momCenter[4], "does not support alt")
	assert.Equal(t, uint8(51), momCenter[5], "matches ref")
}

func TestCreatePileupImagesSingleSample(t *testing.T) {
	opts := testOptions()
	opts.Trio = false

	kid := testRead(t, "kid1", 15, "11M", "TACGTCCGTAC", 30)
	c, err := NewCreator(opts, testReference(), &stubSource{reads: []*genome.Read{kid}}, nil, nil)
	require.NoError(t, err)

	images, err := c.CreatePileupImages(snpCall(20, "A", "C"), nil)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, opts.Height, images[0].Image.Height)
}

func TestCreatePileupImagesOffEdge(t *testing.T) {
	c, err := NewCreator(testOptions(), testReference(), &stubSource{}, nil, nil)
	require.NoError(t, err)

	// Half-width 5 around start 2 runs past the left chromosome edge.
	images, err := c.CreatePileupImages(snpCall(2, "G", "T"), nil)
	require.NoError(t, err)
	assert.Nil(t, images)

	// Same off the right edge of the 60bp contig.
	images, err = c.CreatePileupImages(snpCall(58, "G", "T"), nil)
	require.NoError(t, err)
	assert.Nil(t, images)
}

func TestBuildPileupValidation(t *testing.T) {
	opts := testOptions()
	c, err := NewCreator(opts, testReference(), &stubSource{}, nil, nil)
	require.NoError(t, err)

	call := snpCall(20, "A", "C")
	window := "TACGTACGTAC"

	_, err = c.BuildPileup(call, "ACGT", nil, []string{"C"}, nil, nil, false)
	assert.ErrorIs(t, err, errors.ErrReferenceMismatch, "window too short")

	_, err = c.BuildPileup(call, window, nil, nil, nil, nil, false)
	assert.ErrorIs(t, err, errors.ErrEmptyAltAlleles)

	_, err = c.BuildPileup(call, window, nil, []string{"G"}, nil, nil, false)
	assert.ErrorIs(t, err, errors.ErrInvalidAltAllele)

	_, err = c.BuildPileup(call, "TACGTTCGTAC", nil, []string{"C"}, nil, nil, false)
	assert.ErrorIs(t, err, errors.ErrReferenceMismatch, "center base disagrees with the variant")
}

func TestCreatePileupImagesDeterministic(t *testing.T) {
	opts := testOptions()
	opts.Trio = false

	// More reads than fit below the reference band forces sampling.
	var reads []*genome.Read
	for i := 0; i < 40; i++ {
		reads = append(reads, testRead(t, "read"+string(rune('a'+i%26)), 15, "11M", "TACGTCCGTAC", 30))
	}
	c, err := NewCreator(opts, testReference(), &stubSource{reads: reads}, nil, nil)
	require.NoError(t, err)

	call := snpCall(20, "A", "C")
	first, err := c.CreatePileupImages(call, nil)
	require.NoError(t, err)
	second, err := c.CreatePileupImages(call, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.True(t, first[0].Image.Equal(second[0].Image), "same seed must give the same sample")
}

func TestCreatePileupImagesAltAligned(t *testing.T) {
	opts := testOptions()
	opts.AltAlignedPileup = AltAlignedRows

	kid := testRead(t, "kid1", 15, "11M", "TACGTCCGTAC", 30)
	mom := testRead(t, "mom1", 15, "11M", "TACGTACGTAC", 30)
	dad := testRead(t, "dad1", 15, "11M", "TACGTCCGTAC", 30)
	c, err := NewCreator(opts, testReference(),
		&stubSource{reads: []*genome.Read{kid}},
		&stubSource{reads: []*genome.Read{mom}},
		&stubSource{reads: []*genome.Read{dad}})
	require.NoError(t, err)

	call := snpCall(20, "A", "C")

	_, err = c.CreatePileupImages(call, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidAltAlignedMode, "haplotype data is required")

	altWindow := "TACGTCCGTAC"
	hap := &HaplotypeData{
		Alignments:        map[string][]*genome.Read{"C": {kid}},
		Sequences:         map[string]string{"C": altWindow},
		Parent1Alignments: map[string][]*genome.Read{"C": {mom}},
		Parent2Alignments: map[string][]*genome.Read{"C": {dad}},
	}
	images, err := c.CreatePileupImages(call, hap)
	require.NoError(t, err)
	require.Len(t, images, 1)

	// rows representation stacks ref image plus the duplicated alt image.
	trioHeight := opts.HeightParent + opts.HeightChild + opts.HeightParent
	assert.Equal(t, 3*trioHeight, images[0].Image.Height)
	assert.Equal(t, opts.NumChannels, images[0].Image.Channels)
}

func TestWindows(t *testing.T) {
	c, err := NewCreator(testOptions(), testReference(), &stubSource{}, nil, nil)
	require.NoError(t, err)

	v := &genome.Variant{Reference: "chr1", Start: 20, End: 21, ReferenceBases: "A", AlternateBases: []string{"C"}}
	assert.Equal(t, genome.Range{Reference: "chr1", Start: 15, End: 26}, c.ReferenceWindow(v))
	assert.Equal(t, genome.Range{Reference: "chr1", Start: 15, End: 26}, c.QueryWindow(v))
}
