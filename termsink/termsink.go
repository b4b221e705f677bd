// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termsink implements a screen that outputs to the terminal using
// ANSI color codes.
//
// It accepts the same address window flushes as the ST7789 so the HUD can be
// previewed on a workstation.
package termsink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/navhud/image565"
)

// Opts represents the options available for this display.
type Opts struct {
	// Scale is the number of pixels per terminal column. A terminal row
	// covers twice as many pixel rows. Defaults to 2.
	Scale   int
	Palette *ansi256.Palette
	// Out defaults to a colorable stdout.
	Out io.Writer

	_ struct{}
}

// Dev is a terminal screen.
type Dev struct {
	w       io.Writer
	scale   int
	palette ansi256.Palette

	mu  sync.Mutex
	fb  *image565.Image
	buf bytes.Buffer
}

// New returns a Dev of w x h pixels. opts may be nil.
func New(w, h int, opts *Opts) *Dev {
	var o Opts
	if opts != nil {
		o = *opts
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	out := o.Out
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       out,
		scale:   o.Scale,
		palette: *p,
		fb:      image565.New(image.Rect(0, 0, w, h)),
	}
}

func (d *Dev) String() string {
	return "TermSink"
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// FlushWindow copies big-endian RGB565 pixels to the inclusive window and
// redraws the terminal.
func (d *Dev) FlushWindow(x1, y1, x2, y2 int, pixels []byte) error {
	r := image.Rect(x1, y1, x2+1, y2+1)
	if x2 < x1 || y2 < y1 || !r.In(d.fb.Rect) {
		return fmt.Errorf("termsink: invalid window (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}
	n := 2 * r.Dx()
	if len(pixels) < n*r.Dy() {
		return fmt.Errorf("termsink: window (%d,%d)-(%d,%d) needs %d bytes, got %d", x1, y1, x2, y2, n*r.Dy(), len(pixels))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := d.fb.PixOffset(r.Min.X, y)
		copy(d.fb.Pix[o:o+n], pixels[(y-r.Min.Y)*n:])
	}
	return d.refreshLocked()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.fb.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	draw.Draw(d.fb, r.Intersect(d.fb.Rect), src, sp, draw.Src)
	return d.refreshLocked()
}

// Pixel returns the pixel at (x, y) as last flushed.
func (d *Dev) Pixel(x, y int) image565.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fb.RGB565At(x, y)
}

func (d *Dev) refreshLocked() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[H\033[0m")
	b := d.fb.Rect
	for y := b.Min.Y; y < b.Max.Y; y += 2 * d.scale {
		for x := b.Min.X; x < b.Max.X; x += d.scale {
			r, g, bl, _ := d.fb.RGB565At(x, y).RGBA()
			c := color.NRGBA{byte(r >> 8), byte(g >> 8), byte(bl >> 8), 255}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
