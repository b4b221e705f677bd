// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7789 controls a 16 bits color TFT panel driven by a Sitronix
// ST7789 controller over 4-wire SPI.
//
// The driver is written for the 1.47" 172x320 IPS panels found on small
// ESP32 and Raspberry Pi boards, where the 240x320 controller RAM is wider
// than the glass and a pixel offset must be applied to every addressed write.
//
// Every transfer is synchronous: once FlushWindow or Draw returns, the whole
// window has been clocked out and the source buffer can be reused. Large
// windows are split into chunks of at most ChunkSize bytes while chip-select
// stays asserted, so the controller sees a single continuous RAMWR.
//
// # Datasheets
//
// https://www.rhydolabz.com/documents/33/ST7789.pdf
//
// https://www.waveshare.com/wiki/1.47inch_LCD_Module
package st7789
