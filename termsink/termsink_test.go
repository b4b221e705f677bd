// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termsink

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/navhud/image565"
)

func TestFlushWindow(t *testing.T) {
	var out bytes.Buffer
	d := New(8, 8, &Opts{Scale: 1, Out: &out})
	px := []byte{0xF8, 0x00, 0x00, 0x1F}
	if err := d.FlushWindow(2, 3, 3, 3, px); err != nil {
		t.Fatal(err)
	}
	if c := d.Pixel(2, 3); c != image565.Red {
		t.Errorf("Pixel(2, 3) = %#04x", uint16(c))
	}
	if c := d.Pixel(3, 3); c != image565.Blue {
		t.Errorf("Pixel(3, 3) = %#04x", uint16(c))
	}
	if c := d.Pixel(4, 3); c != image565.Black {
		t.Errorf("Pixel(4, 3) = %#04x", uint16(c))
	}
	s := out.String()
	if !strings.HasPrefix(s, "\033[H") {
		t.Errorf("output does not home the cursor: %q", s)
	}
	// 8 rows at two pixel rows per line.
	if n := strings.Count(s, "\n"); n != 4 {
		t.Errorf("%d lines, want 4", n)
	}
}

func TestFlushWindowInvalid(t *testing.T) {
	var out bytes.Buffer
	d := New(8, 8, &Opts{Out: &out})
	if err := d.FlushWindow(0, 0, 1, 1, make([]byte, 7)); err == nil {
		t.Error("short buffer accepted")
	}
	if err := d.FlushWindow(6, 0, 8, 0, make([]byte, 6)); err == nil {
		t.Error("window outside the screen accepted")
	}
	if err := d.FlushWindow(3, 0, 2, 0, nil); err == nil {
		t.Error("inverted window accepted")
	}
	if out.Len() != 0 {
		t.Error("rejected flush wrote to the terminal")
	}
}

func TestDraw(t *testing.T) {
	var out bytes.Buffer
	d := New(4, 4, &Opts{Out: &out})
	src := image565.New(image.Rect(0, 0, 4, 4))
	src.Fill(image565.Green)
	if err := d.Draw(d.Bounds(), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if c := d.Pixel(3, 3); c != image565.Green {
		t.Errorf("Pixel(3, 3) = %#04x", uint16(c))
	}
	if d.String() != "TermSink" {
		t.Errorf("String() = %q", d.String())
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}
