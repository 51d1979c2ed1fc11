package example

import (
	"strings"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/internal/triopileup/pileup"
)

// Feature keys shared by the writer, the inspect command and downstream
// training pipelines.
const (
	KeyImageEncoded     = "image/encoded"
	KeyImageShape       = "image/shape"
	KeyLocus            = "locus"
	KeyVariantRef       = "variant/reference_bases"
	KeyVariantAlts      = "variant/alternate_bases"
	KeyAltAlleleIndices = "alt_allele_indices"
	KeySampleChild      = "sample/child"
	KeySampleParent1    = "sample/parent1"
	KeySampleParent2    = "sample/parent2"
)

// SampleNames labels the trio members in emitted examples.
type SampleNames struct {
	Child   string
	Parent1 string
	Parent2 string
}

// FromPileup encodes one pileup image and its call metadata as a serialized
// tf.train.Example.
func FromPileup(call *genome.Call, alt pileup.AltImage, samples SampleNames) []byte {
	v := &call.Variant

	indices := make([]int64, 0, len(alt.AltAlleles))
	for i, a := range v.AlternateBases {
		for _, chosen := range alt.AltAlleles {
			if a == chosen {
				indices = append(indices, int64(i))
			}
		}
	}

	b := NewBuilder().
		AddBytes(KeyImageEncoded, alt.Image.Pix).
		AddInts(KeyImageShape, int64(alt.Image.Height), int64(alt.Image.Width), int64(alt.Image.Channels)).
		AddString(KeyLocus, v.Range().String()).
		AddString(KeyVariantRef, v.ReferenceBases).
		AddString(KeyVariantAlts, strings.Join(v.AlternateBases, ",")).
		AddInts(KeyAltAlleleIndices, indices...)

	if samples.Child != "" {
		b.AddString(KeySampleChild, samples.Child)
	}
	if samples.Parent1 != "" {
		b.AddString(KeySampleParent1, samples.Parent1)
	}
	if samples.Parent2 != "" {
		b.AddString(KeySampleParent2, samples.Parent2)
	}
	return b.Encode()
}
