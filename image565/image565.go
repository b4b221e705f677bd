// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package image565 implements a 16 bits per pixel RGB565 image.
//
// Pixels are stored big-endian, which is the order ST77xx and ILI9xxx
// controllers expect on the wire after COLMOD 0x05. Pix can be streamed to
// the device without any conversion.
package image565

import (
	"image"
	"image/color"
)

// Color is a 16 bits RGB565 color: 5 bits red, 6 bits green, 5 bits blue.
type Color uint16

// Common colors.
const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// RGB returns the RGB565 color closest to the 8 bits per channel color.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	// Replicate the high bits into the low bits so 0x1F maps to 0xFF.
	r = (r5<<3 | r5>>2) * 0x101
	g = (g6<<2 | g6>>4) * 0x101
	b = (b5<<3 | b5>>2) * 0x101
	return r, g, b, 0xFFFF
}

func convert(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts any color to Color.
var Model = color.ModelFunc(convert)

// Image is an in-memory image of RGB565 pixels.
type Image struct {
	// Pix holds two bytes per pixel, high byte first.
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// New returns an Image with the given bounds, all pixels black.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	return &Image{Pix: make([]byte, 2*w*h), Stride: 2 * w, Rect: r}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y), or Black when out of bounds.
func (i *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return Black
	}
	o := i.PixOffset(x, y)
	return Color(uint16(i.Pix[o])<<8 | uint16(i.Pix[o+1]))
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetRGB565(x, y, convert(c).(Color))
}

// SetRGB565 sets the pixel at (x, y) without color conversion.
func (i *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	o := i.PixOffset(x, y)
	i.Pix[o] = byte(c >> 8)
	i.Pix[o+1] = byte(c)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

// Fill sets every pixel to c.
func (i *Image) Fill(c Color) {
	hi, lo := byte(c>>8), byte(c)
	for j := 0; j+1 < len(i.Pix); j += 2 {
		i.Pix[j] = hi
		i.Pix[j+1] = lo
	}
}

// Bytes returns a packed copy of the pixels inside r, row after row, ready
// to be sent to an address window of the same size.
func (i *Image) Bytes(r image.Rectangle) []byte {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return nil
	}
	w := 2 * r.Dx()
	out := make([]byte, 0, w*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := i.PixOffset(r.Min.X, y)
		out = append(out, i.Pix[o:o+w]...)
	}
	return out
}

var _ image.Image = &Image{}
