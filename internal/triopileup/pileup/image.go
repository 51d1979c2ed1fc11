package pileup

import (
	"fmt"

	"github.com/seqforge/triopileup/pkg/errors"
)

// Image is a Height x Width x Channels uint8 tensor with row-major backing
// storage. A "row" is one read (or reference band) line: Width*Channels bytes.
type Image struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// NewImage allocates a zeroed tensor.
func NewImage(height, width, channels int) *Image {
	return &Image{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}
}

// RowSize returns the number of bytes in one image row.
func (im *Image) RowSize() int {
	return im.Width * im.Channels
}

// Row returns the backing slice for row r. The slice aliases the image.
func (im *Image) Row(r int) []uint8 {
	size := im.RowSize()
	return im.Pix[r*size : (r+1)*size : (r+1)*size]
}

// SetRow copies row data into row r.
func (im *Image) SetRow(r int, row []uint8) {
	copy(im.Row(r), row)
}

// At returns the channel value at (row, col, channel).
func (im *Image) At(r, c, ch int) uint8 {
	return im.Pix[(r*im.Width+c)*im.Channels+ch]
}

// Set writes the channel value at (row, col, channel).
func (im *Image) Set(r, c, ch int, v uint8) {
	im.Pix[(r*im.Width+c)*im.Channels+ch] = v
}

// ChannelPlane extracts channel ch as a Height*Width slice.
func (im *Image) ChannelPlane(ch int) []uint8 {
	plane := make([]uint8, im.Height*im.Width)
	for i := range plane {
		plane[i] = im.Pix[i*im.Channels+ch]
	}
	return plane
}

// SameShape reports whether two images have identical dimensions.
func (im *Image) SameShape(other *Image) bool {
	return im.Height == other.Height && im.Width == other.Width && im.Channels == other.Channels
}

// VStack concatenates images vertically. All inputs must share width and
// channel count.
func VStack(images ...*Image) (*Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", errors.ErrShapeMismatch)
	}
	width, channels := images[0].Width, images[0].Channels
	height := 0
	for _, im := range images {
		if im.Width != width || im.Channels != channels {
			return nil, fmt.Errorf("%w: cannot vstack %dx%d onto %dx%d",
				errors.ErrShapeMismatch, im.Width, im.Channels, width, channels)
		}
		height += im.Height
	}
	out := NewImage(height, width, channels)
	offset := 0
	for _, im := range images {
		copy(out.Pix[offset:], im.Pix)
		offset += len(im.Pix)
	}
	return out, nil
}

// AppendChannels builds a new image with src's channels followed by the given
// extra planes, each of which must be Height*Width bytes.
func AppendChannels(src *Image, planes ...[]uint8) (*Image, error) {
	for _, p := range planes {
		if len(p) != src.Height*src.Width {
			return nil, fmt.Errorf("%w: channel plane has %d values, want %d",
				errors.ErrShapeMismatch, len(p), src.Height*src.Width)
		}
	}
	out := NewImage(src.Height, src.Width, src.Channels+len(planes))
	for i := 0; i < src.Height*src.Width; i++ {
		copy(out.Pix[i*out.Channels:], src.Pix[i*src.Channels:(i+1)*src.Channels])
		for j, p := range planes {
			out.Pix[i*out.Channels+src.Channels+j] = p[i]
		}
	}
	return out, nil
}

// Equal reports whether two images have the same shape and pixels.
func (im *Image) Equal(other *Image) bool {
	if !im.SameShape(other) {
		return false
	}
	for i, v := range im.Pix {
		if other.Pix[i] != v {
			return false
		}
	}
	return true
}
