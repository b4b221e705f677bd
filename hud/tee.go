// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

type teeScreen []Screen

// Tee returns a Screen that flushes every window to all screens, in order.
// Every screen receives the window even when a previous one failed; the
// first error is returned.
func Tee(screens ...Screen) Screen {
	if len(screens) == 1 {
		return screens[0]
	}
	return teeScreen(screens)
}

func (t teeScreen) FlushWindow(x1, y1, x2, y2 int, pixels []byte) error {
	var first error
	for _, s := range t {
		if err := s.FlushWindow(x1, y1, x2, y2, pixels); err != nil && first == nil {
			first = err
		}
	}
	return first
}
