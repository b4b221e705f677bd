// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type record struct {
	cmd  byte
	data []byte
}

type fakeController struct {
	records []record
	delays  []time.Duration
}

func (f *fakeController) sendCommand(cmd byte, data ...byte) {
	f.records = append(f.records, record{cmd: cmd, data: append([]byte(nil), data...)})
}

func (f *fakeController) delay(d time.Duration) {
	f.delays = append(f.delays, d)
}

func TestInitSequence(t *testing.T) {
	var got fakeController

	initSequence(&got, 0x00)

	want := []record{
		{cmd: slpOut},
		{cmd: madCtl, data: []byte{0x00}},
		{cmd: colMod, data: []byte{0x05}},
		{cmd: ramCtrl, data: []byte{0x00, 0xE8}},
		{cmd: porCtrl, data: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
		{cmd: gCtrl, data: []byte{0x35}},
		{cmd: vcomS, data: []byte{0x35}},
		{cmd: lcmCtrl, data: []byte{0x2C}},
		{cmd: vdvVrhEn, data: []byte{0x01}},
		{cmd: vrhS, data: []byte{0x13}},
		{cmd: vdvS, data: []byte{0x20}},
		{cmd: frCtrl2, data: []byte{0x0F}},
		{cmd: pwCtrl1, data: []byte{0xA4, 0xA1}},
		{cmd: 0xD6, data: []byte{0xA1}},
		{cmd: pvGamCtrl, data: []byte{0xF0, 0x00, 0x04, 0x04, 0x04, 0x05, 0x29, 0x33, 0x3E, 0x38, 0x12, 0x12, 0x28, 0x30}},
		{cmd: nvGamCtrl, data: []byte{0xF0, 0x07, 0x0A, 0x0D, 0x0B, 0x07, 0x28, 0x33, 0x3E, 0x36, 0x14, 0x14, 0x29, 0x32}},
		{cmd: invOn},
		{cmd: slpOut},
		{cmd: dispOn},
	}
	if diff := cmp.Diff(got.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("initSequence() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(got.delays, []time.Duration{sleepOutDelay, sleepOutDelay}); diff != "" {
		t.Errorf("initSequence() delays difference (-got +want):\n%s", diff)
	}
}

func TestMadctlFor(t *testing.T) {
	for _, tc := range []struct {
		name     string
		rotation Rotation
		bgr      bool
		want     byte
	}{
		{name: "0", rotation: Rotation0, want: madctlMX | madctlMY},
		{name: "90", rotation: Rotation90, want: madctlMY | madctlMV},
		{name: "180", rotation: Rotation180, want: madctlRGB},
		{name: "270", rotation: Rotation270, want: madctlMX | madctlMV},
		{name: "unknown", rotation: 45, want: madctlRGB},
		{name: "0 bgr", rotation: Rotation0, bgr: true, want: madctlMX | madctlMY | madctlBGR},
		{name: "180 bgr", rotation: Rotation180, bgr: true, want: madctlBGR},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := madctlFor(tc.rotation, tc.bgr); got != tc.want {
				t.Errorf("madctlFor(%d, %t) = %#02x, want %#02x", tc.rotation, tc.bgr, got, tc.want)
			}
		})
	}
}
