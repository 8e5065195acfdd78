package stego

import (
	"fmt"
	"image"
	"image/color"
)

// Carrier is an 8-bit RGB raster. Pixels are stored row-major with the channel varying fastest,
// so bit position p of the payload lives in pix[p].
type Carrier struct {
	width  int
	height int
	pix    []uint8
}

// NewCarrier returns a black width x height carrier.
func NewCarrier(width, height int) (*Carrier, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid carrier dimensions %dx%d", width, height)
	}

	return &Carrier{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*Channels),
	}, nil
}

// Width returns the width in pixels.
func (c *Carrier) Width() int { return c.width }

// Height returns the height in pixels.
func (c *Carrier) Height() int { return c.height }

// Capacity returns the payload capacity in bits.
func (c *Carrier) Capacity() int { return Capacity(c.width, c.height) }

// At returns the value of one channel.
func (c *Carrier) At(row, col, channel int) uint8 {
	return c.pix[c.offset(row, col, channel)]
}

// Set stores the value of one channel.
func (c *Carrier) Set(row, col, channel int, value uint8) {
	c.pix[c.offset(row, col, channel)] = value
}

func (c *Carrier) offset(row, col, channel int) int {
	return (row*c.width+col)*Channels + channel
}

// Clone returns an independent copy.
func (c *Carrier) Clone() *Carrier {
	pix := make([]uint8, len(c.pix))
	copy(pix, c.pix)

	return &Carrier{width: c.width, height: c.height, pix: pix}
}

// Image renders the carrier as an opaque NRGBA image, ready for a lossless encoder.
func (c *Carrier) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.width, c.height))

	for i, j := 0, 0; i < len(c.pix); i, j = i+Channels, j+4 {
		img.Pix[j] = c.pix[i]
		img.Pix[j+1] = c.pix[i+1]
		img.Pix[j+2] = c.pix[i+2]
		img.Pix[j+3] = 0xff
	}

	return img
}

// Conversion describes how a source image was turned into a carrier.
type Conversion struct {
	// Model names the source pixel layout (e.g. "RGBA", "NRGBA", "YCbCr", "Paletted").
	Model string
	// Coerced is set when the source was not 8-bit opaque RGB and its values were converted.
	// Alpha and sub-8-bit precision are lost in that case.
	Coerced bool
}

// FromImage copies the RGB channels of img into a new carrier.
// Alpha is dropped without premultiplication, the way a mode conversion to RGB does.
func FromImage(img image.Image) (*Carrier, Conversion, error) {
	bounds := img.Bounds()

	c, err := NewCarrier(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, Conversion{}, err
	}

	conv := Conversion{Model: modelName(img)}

	switch src := img.(type) {
	case *image.NRGBA:
		conv.Coerced = !src.Opaque()
		copyFrom(c, src.Pix, src.Stride, src.PixOffset(bounds.Min.X, bounds.Min.Y))
	case *image.RGBA:
		if src.Opaque() {
			copyFrom(c, src.Pix, src.Stride, src.PixOffset(bounds.Min.X, bounds.Min.Y))

			break
		}

		conv.Coerced = true
		convertFrom(c, img)
	default:
		conv.Coerced = true
		convertFrom(c, img)
	}

	return c, conv, nil
}

func copyFrom(c *Carrier, pix []uint8, stride, start int) {
	for row := range c.height {
		line := pix[start+row*stride:]

		for col := range c.width {
			o := c.offset(row, col, 0)
			c.pix[o] = line[col*4]
			c.pix[o+1] = line[col*4+1]
			c.pix[o+2] = line[col*4+2]
		}
	}
}

func convertFrom(c *Carrier, img image.Image) {
	bounds := img.Bounds()

	for row := range c.height {
		for col := range c.width {
			px, _ := color.NRGBAModel.Convert(img.At(bounds.Min.X+col, bounds.Min.Y+row)).(color.NRGBA)

			o := c.offset(row, col, 0)
			c.pix[o] = px.R
			c.pix[o+1] = px.G
			c.pix[o+2] = px.B
		}
	}
}

func modelName(img image.Image) string {
	switch img.(type) {
	case *image.RGBA:
		return "RGBA"
	case *image.NRGBA:
		return "NRGBA"
	case *image.RGBA64:
		return "RGBA64"
	case *image.NRGBA64:
		return "NRGBA64"
	case *image.Paletted:
		return "Paletted"
	case *image.Gray:
		return "Gray"
	case *image.Gray16:
		return "Gray16"
	case *image.YCbCr:
		return "YCbCr"
	case *image.NYCbCrA:
		return "NYCbCrA"
	case *image.CMYK:
		return "CMYK"
	default:
		return fmt.Sprintf("%T", img)
	}
}
