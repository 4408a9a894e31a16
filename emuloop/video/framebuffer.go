package video

import (
	"image"
	"image/color"
)

// Default surface size, matching the NES picture.
const (
	DefaultWidth  = 256
	DefaultHeight = 240
)

// Color565 is a 16 bit RGB565 pixel as written by engines.
type Color565 uint16

const (
	Black565 Color565 = 0x0000
	White565 Color565 = 0xFFFF
)

// RGB565 packs 8 bit components into a Color565.
func RGB565(r, g, b uint8) Color565 {
	return Color565(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGB888 expands the pixel to 0xRRGGBB. The low bits of each component are
// left at zero.
func (c Color565) RGB888() uint32 {
	p := uint32(c)
	return (p&0xf800)<<8 | (p&0x07e0)<<5 | (p&0x1f)<<3
}

// RGBA implements color.Color.
func (c Color565) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA returns the expanded, fully opaque colour.
func (c Color565) NRGBA() color.NRGBA {
	p := c.RGB888()
	return color.NRGBA{R: uint8(p >> 16), G: uint8(p >> 8), B: uint8(p), A: 0xff}
}

// FrameBuffer is the RGB565 surface an engine draws into.
type FrameBuffer struct {
	width  int
	height int
	buffer []uint16
}

// NewFrameBuffer creates a frame buffer with the specified size.
func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		width:  width,
		height: height,
		buffer: make([]uint16, width*height),
	}
}

func (fb *FrameBuffer) Width() int  { return fb.width }
func (fb *FrameBuffer) Height() int { return fb.height }

// Stride is the row length in bytes.
func (fb *FrameBuffer) Stride() int { return fb.width * 2 }

func (fb *FrameBuffer) GetPixel(x, y int) Color565 {
	return Color565(fb.buffer[y*fb.width+x])
}

func (fb *FrameBuffer) SetPixel(x, y int, c Color565) {
	fb.buffer[y*fb.width+x] = uint16(c)
}

// Fill sets every pixel to c.
func (fb *FrameBuffer) Fill(c Color565) {
	for i := range fb.buffer {
		fb.buffer[i] = uint16(c)
	}
}

func (fb *FrameBuffer) ToSlice() []uint16 {
	return fb.buffer
}

// CopyFrom copies src into fb, reallocating if the sizes differ.
func (fb *FrameBuffer) CopyFrom(src *FrameBuffer) {
	if fb.width != src.width || fb.height != src.height {
		fb.width = src.width
		fb.height = src.height
		fb.buffer = make([]uint16, len(src.buffer))
	}
	copy(fb.buffer, src.buffer)
}

// Clone returns an independent copy of fb.
func (fb *FrameBuffer) Clone() *FrameBuffer {
	c := NewFrameBuffer(fb.width, fb.height)
	copy(c.buffer, fb.buffer)
	return c
}

// RGB888 converts the whole surface to 0xRRGGBB pixels.
func (fb *FrameBuffer) RGB888(dst []uint32) []uint32 {
	if cap(dst) < len(fb.buffer) {
		dst = make([]uint32, len(fb.buffer))
	}
	dst = dst[:len(fb.buffer)]
	for i, p := range fb.buffer {
		dst[i] = Color565(p).RGB888()
	}
	return dst
}

// Image converts the surface to an RGBA image.
func (fb *FrameBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	for i, p := range fb.buffer {
		rgb := Color565(p).RGB888()
		idx := i * 4
		img.Pix[idx] = uint8(rgb >> 16)
		img.Pix[idx+1] = uint8(rgb >> 8)
		img.Pix[idx+2] = uint8(rgb)
		img.Pix[idx+3] = 0xff
	}
	return img
}
