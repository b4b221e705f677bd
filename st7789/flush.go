// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import "fmt"

// WindowSize returns the number of bytes needed to fill the inclusive window
// (x1, y1)-(x2, y2). It uses 64 bits arithmetic so full screen areas never
// overflow.
func WindowSize(x1, y1, x2, y2 int) int64 {
	w := int64(x2) - int64(x1) + 1
	h := int64(y2) - int64(y1) + 1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h * BytesPerPixel
}

// FlushWindow writes pixels to the inclusive window (x1, y1)-(x2, y2).
//
// pixels holds big-endian RGB565 values, row after row. The bus is held from
// the address window commands to the last data byte, and the call only
// returns once the whole window has been transferred: the caller may reuse
// pixels as soon as it returns, and no partial frame is ever visible.
func (d *Dev) FlushWindow(x1, y1, x2, y2 int, pixels []byte) error {
	n := WindowSize(x1, y1, x2, y2)
	if n == 0 {
		return fmt.Errorf("st7789: invalid window (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}
	if int64(len(pixels)) < n {
		return fmt.Errorf("st7789: window (%d,%d)-(%d,%d) needs %d bytes, got %d", x1, y1, x2, y2, n, len(pixels))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	eh := errorHandler{d: d}
	if err := d.setAddrWindowLocked(x1, y1, x2, y2); err != nil {
		return err
	}
	eh.sendData(pixels[:n])
	return eh.err
}
