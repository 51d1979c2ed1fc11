package pileup

import (
	"fmt"

	"github.com/seqforge/triopileup/pkg/errors"
)

// composeAltAligned combines the ref-aligned image with the alt-aligned
// images according to the chosen representation. A single alt image is
// duplicated so every composition works on exactly two alts.
func composeAltAligned(representation string, refImage *Image, altImages []*Image) (*Image, error) {
	if len(altImages) == 1 {
		altImages = append(altImages, altImages[0])
	}
	if len(altImages) != 2 {
		return nil, fmt.Errorf("%w: need one or two alt images, got %d",
			errors.ErrShapeMismatch, len(altImages))
	}
	if !refImage.SameShape(altImages[0]) || !refImage.SameShape(altImages[1]) {
		return nil, fmt.Errorf("%w: ref and alt images differ", errors.ErrShapeMismatch)
	}

	switch representation {
	case AltAlignedRows:
		return VStack(refImage, altImages[0], altImages[1])
	case AltAlignedBaseChannels:
		// Channel 0 (bases) of each alt becomes an extra channel.
		return AppendChannels(refImage, altImages[0].ChannelPlane(0), altImages[1].ChannelPlane(0))
	case AltAlignedDiffChannels:
		// Channel 5 (base differs from ref) of each alt becomes an extra channel.
		return AppendChannels(refImage, altImages[0].ChannelPlane(5), altImages[1].ChannelPlane(5))
	default:
		return nil, fmt.Errorf("%w: %q must be one of rows, base_channels, diff_channels",
			errors.ErrInvalidAltAlignedMode, representation)
	}
}
