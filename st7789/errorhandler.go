// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management. Once an operation failed,
// all the following ones are skipped and the first error is kept.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil || p == nil {
		return
	}
	eh.err = p.Out(l)
}

// release deasserts chip-select even after a failure, so the bus is never
// left selected.
func (eh *errorHandler) release() {
	if eh.d.cs == nil {
		return
	}
	if err := eh.d.cs.Out(gpio.High); eh.err == nil {
		eh.err = err
	}
}

// tx clocks w out in chunks no larger than the connection limit.
func (eh *errorHandler) tx(w []byte) {
	chunk := eh.d.chunkSize()
	for len(w) > 0 && eh.err == nil {
		n := len(w)
		if n > chunk {
			n = chunk
		}
		eh.err = eh.d.c.Tx(w[:n], nil)
		w = w[n:]
	}
}

// sendCommand implements controller. The caller must hold the bus lock.
func (eh *errorHandler) sendCommand(cmd byte, data ...byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.sendCommandLocked(cmd, data)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.sendDataLocked(data)
}

func (eh *errorHandler) delay(t time.Duration) {
	if eh.err != nil {
		return
	}
	eh.d.sleep(t)
}

// reset pulses the reset line; a Dev without one skips it.
func (eh *errorHandler) reset() {
	if eh.d.rst == nil {
		return
	}
	eh.out(eh.d.cs, gpio.Low)
	eh.delay(50 * time.Millisecond)
	eh.out(eh.d.rst, gpio.Low)
	eh.delay(50 * time.Millisecond)
	eh.out(eh.d.rst, gpio.High)
	eh.delay(50 * time.Millisecond)
	eh.release()
}
