// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

// Commands
const (
	swReset   byte = 0x01
	slpIn     byte = 0x10
	slpOut    byte = 0x11
	invOff    byte = 0x20
	invOn     byte = 0x21
	dispOff   byte = 0x28
	dispOn    byte = 0x29
	caSet     byte = 0x2A
	raSet     byte = 0x2B
	ramWr     byte = 0x2C
	madCtl    byte = 0x36
	colMod    byte = 0x3A
	ramCtrl   byte = 0xB0
	porCtrl   byte = 0xB2
	gCtrl     byte = 0xB7
	vcomS     byte = 0xBB
	lcmCtrl   byte = 0xC0
	vdvVrhEn  byte = 0xC2
	vrhS      byte = 0xC3
	vdvS      byte = 0xC4
	frCtrl2   byte = 0xC6
	pwCtrl1   byte = 0xD0
	pwCtrl2   byte = 0xD6
	pvGamCtrl byte = 0xE0
	nvGamCtrl byte = 0xE1
)

// MADCTL bits.
const (
	madctlMY  byte = 0x80 // Row address order, mirrors Y.
	madctlMX  byte = 0x40 // Column address order, mirrors X.
	madctlMV  byte = 0x20 // Row/column exchange.
	madctlML  byte = 0x10 // Vertical refresh order.
	madctlRGB byte = 0x00
	madctlBGR byte = 0x08
)

// colorMode16 selects 65K colors, 16 bits per pixel in COLMOD.
const colorMode16 byte = 0x05
