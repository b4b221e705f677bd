// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package webview mirrors the HUD to web browsers.
//
// A Sink accepts the same address window flushes as the ST7789 and serves
// the resulting frame as a "multipart/x-mixed-replace" stream (MJPEG), the
// format IP cameras use. Every connected viewer gets the current frame on
// connect and a new one after each flush. PNG is the default since the HUD
// is made of flat colors; "?format=jpeg" selects JPEG.
package webview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"net/http"
	"sync"

	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/navhud/image565"
)

// Format is the image encoding sent to viewers.
type Format int

// Supported formats.
const (
	PNG Format = iota
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func (f Format) contentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ParseFormat parses "png", "jpg" or "jpeg".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("webview: unknown format %q", s)
}

// Opts configures a Sink.
type Opts struct {
	Width, Height int
	// Format is used when the viewer does not ask for one.
	Format Format
	// Quality of JPEG frames, 1 to 100. Zero selects 90.
	Quality int
}

// Sink is a screen served over HTTP.
type Sink struct {
	format  Format
	quality int

	mu      sync.Mutex
	fb      *image565.Image
	encoded map[Format][]byte
	viewers map[*viewer]struct{}
}

// New returns a Sink of opts.Width x opts.Height black pixels.
func New(opts *Opts) *Sink {
	q := opts.Quality
	if q <= 0 || q > 100 {
		q = 90
	}
	return &Sink{
		format:  opts.Format,
		quality: q,
		fb:      image565.New(image.Rect(0, 0, opts.Width, opts.Height)),
		encoded: map[Format][]byte{},
		viewers: map[*viewer]struct{}{},
	}
}

func (s *Sink) String() string {
	return "WebView"
}

// Halt implements conn.Resource. It ends every running stream.
func (s *Sink) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.viewers {
		select {
		case v.stop <- struct{}{}:
		default:
		}
	}
	return nil
}

// FlushWindow copies big-endian RGB565 pixels to the inclusive window and
// notifies the viewers.
func (s *Sink) FlushWindow(x1, y1, x2, y2 int, pixels []byte) error {
	r := image.Rect(x1, y1, x2+1, y2+1)
	if x2 < x1 || y2 < y1 || !r.In(s.fb.Rect) {
		return fmt.Errorf("webview: invalid window (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}
	n := 2 * r.Dx()
	if len(pixels) < n*r.Dy() {
		return fmt.Errorf("webview: window (%d,%d)-(%d,%d) needs %d bytes, got %d", x1, y1, x2, y2, n*r.Dy(), len(pixels))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := s.fb.PixOffset(r.Min.X, y)
		copy(s.fb.Pix[o:o+n], pixels[(y-r.Min.Y)*n:])
	}
	s.changedLocked()
	return nil
}

// ColorModel implements display.Drawer.
func (s *Sink) ColorModel() color.Model {
	return image565.Model
}

// Bounds implements display.Drawer.
func (s *Sink) Bounds() image.Rectangle {
	return s.fb.Rect
}

// Draw implements display.Drawer.
func (s *Sink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.fb, r.Intersect(s.fb.Rect), src, sp, draw.Src)
	s.changedLocked()
	return nil
}

// changedLocked drops the cached encodings and wakes the viewers.
func (s *Sink) changedLocked() {
	for f := range s.encoded {
		delete(s.encoded, f)
	}
	for v := range s.viewers {
		select {
		case v.refresh <- struct{}{}:
		default:
		}
	}
}

// frame returns the current frame encoded as f. Encodings are shared by all
// viewers until the next change.
func (s *Sink) frame(f Format) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.encoded[f]; ok {
		return b, nil
	}
	var buf bytes.Buffer
	var err error
	if f == JPEG {
		err = jpeg.Encode(&buf, s.fb, &jpeg.Options{Quality: s.quality})
	} else {
		err = png.Encode(&buf, s.fb)
	}
	if err != nil {
		return nil, err
	}
	s.encoded[f] = buf.Bytes()
	return buf.Bytes(), nil
}

var _ display.Drawer = &Sink{}
var _ http.Handler = &Sink{}
