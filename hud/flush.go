// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"bytes"
	"image"

	"github.com/GermanBionicSystems/navhud/image565"
)

// dirtyBands returns the runs of rows of cur that differ from prev, as full
// width rectangles.
func dirtyBands(cur, prev *image565.Image) []image.Rectangle {
	b := cur.Bounds()
	var out []image.Rectangle
	start := -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		o := cur.PixOffset(b.Min.X, y)
		row := cur.Pix[o : o+cur.Stride]
		same := bytes.Equal(row, prev.Pix[o:o+prev.Stride])
		switch {
		case !same && start < 0:
			start = y
		case same && start >= 0:
			out = append(out, image.Rect(b.Min.X, start, b.Max.X, y))
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, image.Rect(b.Min.X, start, b.Max.X, b.Max.Y))
	}
	return out
}

// flushLocked sends the rows of frame that differ from shown. On error the
// screen content is unknown and the next flush sends the whole frame.
func (h *HUD) flushLocked() error {
	bands := []image.Rectangle{h.frame.Bounds()}
	if h.synced {
		bands = dirtyBands(h.frame, h.shown)
	}
	for _, r := range bands {
		if err := h.screen.FlushWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, h.frame.Bytes(r)); err != nil {
			h.synced = false
			return err
		}
	}
	if len(bands) != 0 {
		lg.Debugf("flushed %d bands", len(bands))
	}
	copy(h.shown.Pix, h.frame.Pix)
	h.synced = true
	return nil
}
