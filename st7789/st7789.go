// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/GermanBionicSystems/navhud/image565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ChunkSize is the largest single SPI transfer issued by the driver. Bigger
// payloads are split while chip-select stays asserted.
const ChunkSize = 4096

// BytesPerPixel is the size of one RGB565 pixel on the wire.
const BytesPerPixel = 2

// Rotation is the logical orientation of the panel, in 90° steps.
type Rotation uint16

// Supported rotations. Unknown values are handled as Rotation180.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", uint16(r))
}

// swapsAxes reports if the rotation exchanges rows and columns.
func (r Rotation) swapsAxes() bool {
	return r == Rotation90 || r == Rotation270
}

// Opts defines the panel geometry and the defaults applied by Init.
type Opts struct {
	// Width and Height of the glass, in pixels, as seen with Rotation0.
	Width  int
	Height int
	// Rotation applied by Init.
	Rotation Rotation
	// OffsetX and OffsetY shift every addressed write, for glass narrower
	// than the controller RAM.
	OffsetX int
	OffsetY int
	// BGR selects the BGR subpixel order instead of RGB.
	BGR bool
	// Brightness, in percent, set at the end of Init.
	Brightness int
	// Speed of the SPI bus. Zero selects 40MHz.
	Speed physic.Frequency
	// BacklightFreq is the PWM frequency of the backlight. Zero selects 1kHz.
	BacklightFreq physic.Frequency
}

// DefaultOpts is the configuration of a 1.47" 172x320 panel in portrait.
var DefaultOpts = Opts{
	Width:      172,
	Height:     320,
	Rotation:   Rotation180,
	OffsetX:    34,
	Brightness: 100,
}

// Dev is an open handle to the display controller.
type Dev struct {
	// Communication
	c   conn.Conn
	dc  gpio.PinOut
	cs  gpio.PinOut
	rst gpio.PinOut
	bl  gpio.PinOut

	// mu is held for the duration of every command or data transfer.
	mu sync.Mutex

	opts     Opts
	rotation Rotation
	offsetX  int
	offsetY  int

	sleep func(time.Duration)
}

// New returns a Dev that communicates over SPI with a ST7789 controller.
//
// dc is mandatory. cs can be nil when the SPI port drives chip-select by
// itself. rst and bl are optional: pass nil (or gpio.INVALID) when the board
// does not wire a reset line or a PWM capable backlight, the corresponding
// steps are then skipped.
//
// The display is not initialized, call Init.
func New(p spi.Port, dc, cs, rst, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("st7789: dc pin is required")
	}
	f := opts.Speed
	if f == 0 {
		f = 40 * physic.MegaHertz
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: %w", err)
	}
	return newDev(c, dc, cs, rst, bl, opts), nil
}

func newDev(c conn.Conn, dc, cs, rst, bl gpio.PinOut, opts *Opts) *Dev {
	return &Dev{
		c:        c,
		dc:       dc,
		cs:       optional(cs),
		rst:      optional(rst),
		bl:       optional(bl),
		opts:     *opts,
		rotation: opts.Rotation,
		offsetX:  opts.OffsetX,
		offsetY:  opts.OffsetY,
		sleep:    time.Sleep,
	}
}

// optional normalizes the absent pin representations to nil.
func optional(p gpio.PinOut) gpio.PinOut {
	if p == gpio.INVALID {
		return nil
	}
	return p
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7789.Dev{%s, %s, %s}", d.c, d.dc, d.Bounds().Max)
}

// Init runs the power-on sequence, then applies the default brightness.
func (d *Dev) Init() error {
	d.mu.Lock()
	eh := errorHandler{d: d}
	eh.reset()
	initSequence(&eh, madctlFor(d.rotation, d.opts.BGR))
	d.mu.Unlock()
	if eh.err != nil {
		return eh.err
	}
	return d.SetBrightness(d.opts.Brightness)
}

// Halt turns the panel and its backlight off.
//
// Sending Init afterward brings the display back.
func (d *Dev) Halt() error {
	if err := d.SetBrightness(0); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	eh := errorHandler{d: d}
	eh.sendCommand(dispOff)
	eh.sendCommand(slpIn)
	return eh.err
}

// Rotation returns the current logical rotation.
func (d *Dev) Rotation() Rotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotation
}

// SetRotation changes the scan direction of the controller.
//
// The content already in RAM is not redrawn.
func (d *Dev) SetRotation(r Rotation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotation = r
	return d.sendCommandLocked(madCtl, []byte{madctlFor(r, d.opts.BGR)})
}

// SetOffset sets the origin shift applied to every following addressed
// write. It does not redraw.
func (d *Dev) SetOffset(x, y int) {
	d.mu.Lock()
	d.offsetX, d.offsetY = x, y
	d.mu.Unlock()
}

// SetBrightness sets the backlight intensity, in percent. Values are clamped
// to [0, 100]. It is a no-op without a backlight pin.
func (d *Dev) SetBrightness(percent int) error {
	if d.bl == nil {
		return nil
	}
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	f := d.opts.BacklightFreq
	if f == 0 {
		f = physic.KiloHertz
	}
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(percent) / 100)
	if err := d.bl.PWM(duty, f); err != nil {
		return fmt.Errorf("st7789: backlight: %w", err)
	}
	return nil
}

// Invert enables or disables the display inversion.
func (d *Dev) Invert(on bool) error {
	cmd := invOff
	if on {
		cmd = invOn
	}
	return d.SendCommand(cmd)
}

// SetAddrWindow declares the RAM window filled by the next data transfer.
// Coordinates are inclusive and logical; the offset is added here.
func (d *Dev) SetAddrWindow(x1, y1, x2, y2 int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setAddrWindowLocked(x1, y1, x2, y2)
}

func (d *Dev) setAddrWindowLocked(x1, y1, x2, y2 int) error {
	var col, row [4]byte
	binary.BigEndian.PutUint16(col[0:], uint16(x1+d.offsetX))
	binary.BigEndian.PutUint16(col[2:], uint16(x2+d.offsetX))
	binary.BigEndian.PutUint16(row[0:], uint16(y1+d.offsetY))
	binary.BigEndian.PutUint16(row[2:], uint16(y2+d.offsetY))

	eh := errorHandler{d: d}
	eh.sendCommand(caSet, col[:]...)
	eh.sendCommand(raSet, row[:]...)
	eh.sendCommand(ramWr)
	return eh.err
}

// SendCommand sends an opcode followed by its payload, if any.
func (d *Dev) SendCommand(cmd byte, data ...byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommandLocked(cmd, data)
}

// SendData sends raw bytes with the data/command line high. It returns once
// every byte has been transferred.
func (d *Dev) SendData(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendDataLocked(data)
}

func (d *Dev) sendCommandLocked(cmd byte, data []byte) error {
	eh := errorHandler{d: d}
	eh.out(d.cs, gpio.Low)
	eh.out(d.dc, gpio.Low)
	eh.tx([]byte{cmd})
	if len(data) != 0 {
		eh.out(d.dc, gpio.High)
		eh.tx(data)
	}
	eh.release()
	return eh.err
}

func (d *Dev) sendDataLocked(data []byte) error {
	eh := errorHandler{d: d}
	eh.out(d.cs, gpio.Low)
	eh.out(d.dc, gpio.High)
	eh.tx(data)
	eh.release()
	return eh.err
}

func (d *Dev) chunkSize() int {
	if l, ok := d.c.(conn.Limits); ok {
		if m := l.MaxTxSize(); m > 0 && m < ChunkSize {
			return m
		}
	}
	return ChunkSize
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	w, h := d.opts.Width, d.opts.Height
	if d.Rotation().swapsAxes() {
		w, h = h, w
	}
	return image.Rect(0, 0, w, h)
}

// Draw implements display.Drawer.
//
// It converts the source to RGB565 and flushes the destination rectangle
// synchronously.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	var pix []byte
	if img, ok := src.(*image565.Image); ok && img.Bounds() == r && sp == r.Min {
		// Already in wire format and packed: no copy.
		pix = img.Pix
	} else {
		next := image565.New(r)
		draw.Src.Draw(next, r, src, sp)
		pix = next.Pix
	}
	return d.FlushWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, pix)
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
