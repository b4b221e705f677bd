// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import "time"

// sleepOutDelay is the time the controller needs after SLPOUT before it
// accepts the next command.
const sleepOutDelay = 120 * time.Millisecond

type controller interface {
	sendCommand(cmd byte, data ...byte)
	delay(time.Duration)
}

// initSequence sends the power-on sequence. The order matters: the panel
// still lights up when steps are skipped or swapped, but with wrong colors,
// gamma or orientation.
func initSequence(ctrl controller, madctl byte) {
	ctrl.sendCommand(slpOut)
	ctrl.delay(sleepOutDelay)

	ctrl.sendCommand(madCtl, madctl)

	ctrl.sendCommand(colMod, colorMode16)

	// Vendor tuning for the 1.47" IPS glass, values from the panel vendor.
	ctrl.sendCommand(ramCtrl, 0x00, 0xE8)
	ctrl.sendCommand(porCtrl, 0x0C, 0x0C, 0x00, 0x33, 0x33)
	ctrl.sendCommand(gCtrl, 0x35)
	ctrl.sendCommand(vcomS, 0x35)
	ctrl.sendCommand(lcmCtrl, 0x2C)
	ctrl.sendCommand(vdvVrhEn, 0x01)
	ctrl.sendCommand(vrhS, 0x13)
	ctrl.sendCommand(vdvS, 0x20)
	ctrl.sendCommand(frCtrl2, 0x0F)
	ctrl.sendCommand(pwCtrl1, 0xA4, 0xA1)
	ctrl.sendCommand(pwCtrl2, 0xA1)
	ctrl.sendCommand(pvGamCtrl,
		0xF0, 0x00, 0x04, 0x04, 0x04, 0x05, 0x29,
		0x33, 0x3E, 0x38, 0x12, 0x12, 0x28, 0x30)
	ctrl.sendCommand(nvGamCtrl,
		0xF0, 0x07, 0x0A, 0x0D, 0x0B, 0x07, 0x28,
		0x33, 0x3E, 0x36, 0x14, 0x14, 0x29, 0x32)

	// IPS panels are normally-black.
	ctrl.sendCommand(invOn)

	ctrl.sendCommand(slpOut)
	ctrl.delay(sleepOutDelay)

	ctrl.sendCommand(dispOn)
}

// madctlFor maps a logical rotation to the MADCTL value.
func madctlFor(r Rotation, bgr bool) byte {
	order := madctlRGB
	if bgr {
		order = madctlBGR
	}
	switch r {
	case Rotation0:
		return madctlMX | madctlMY | order
	case Rotation90:
		return madctlMY | madctlMV | order
	case Rotation270:
		return madctlMX | madctlMV | order
	default:
		return order
	}
}
