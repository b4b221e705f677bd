// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	logger "github.com/d2r2/go-logger"

	"github.com/GermanBionicSystems/navhud/iconpipe"
	"github.com/GermanBionicSystems/navhud/image565"
)

var lg = logger.NewPackageLogger("hud", logger.InfoLevel)

// Placeholder is shown in place of missing navigation values.
const Placeholder = "---"

// Screen is where frames are sent. *st7789.Dev and *termsink.Dev implement
// it.
type Screen interface {
	// FlushWindow writes big-endian RGB565 pixels to the inclusive window
	// and returns once they are on the screen.
	FlushWindow(x1, y1, x2, y2 int, pixels []byte) error
}

// Layout selects the screen arrangement.
type Layout int

// Layouts.
const (
	Portrait Layout = iota
	Landscape
)

func (l Layout) String() string {
	switch l {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout parses "portrait" or "landscape".
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "portrait", "vertical":
		return Portrait, nil
	case "landscape", "horizontal":
		return Landscape, nil
	}
	return 0, fmt.Errorf("hud: unknown layout %q", s)
}

// Opts configures a HUD.
type Opts struct {
	// Width and Height of the screen in pixels. Zero selects 172x320 in
	// portrait and 320x172 in landscape.
	Width  int
	Height int
	Layout Layout
	// SpeedUnit is drawn next to the speed. Defaults to "km/h".
	SpeedUnit string
}

// state is the navigation data shown on screen.
type state struct {
	speed              int
	nextRoad           string
	nextRoadDesc       string
	eta                string
	ete                string
	totalDistance      string
	distanceToNextTurn string
	iconHash           string
}

// HUD is the head-up display.
type HUD struct {
	screen Screen
	icons  *iconpipe.Pipeline
	opts   Opts
	r      *renderer

	mu    sync.Mutex
	st    state
	stale bool

	// frame is the last rendered frame, shown is what the screen holds.
	frame *image565.Image
	shown *image565.Image
	// synced is false until shown reflects the screen content.
	synced bool
}

// New returns a HUD drawing to screen, with icons from icons.
func New(screen Screen, icons *iconpipe.Pipeline, opts *Opts) (*HUD, error) {
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 172, 320
		if o.Layout == Landscape {
			o.Width, o.Height = o.Height, o.Width
		}
	}
	if o.SpeedUnit == "" {
		o.SpeedUnit = "km/h"
	}
	r, err := newRenderer(o.Width, o.Height, o.Layout)
	if err != nil {
		return nil, err
	}
	b := image.Rect(0, 0, o.Width, o.Height)
	return &HUD{
		screen: screen,
		icons:  icons,
		opts:   o,
		r:      r,
		st:     state{speed: -1},
		stale:  true,
		frame:  image565.New(b),
		shown:  image565.New(b),
	}, nil
}

// Bounds returns the screen area.
func (h *HUD) Bounds() image.Rectangle {
	return h.frame.Bounds()
}

// Speed returns the speed, 0 when unknown.
func (h *HUD) Speed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.st.speed < 0 {
		return 0
	}
	return h.st.speed
}

// SetSpeed sets the speed. A negative value clears it.
func (h *HUD) SetSpeed(v int) {
	if v < 0 {
		v = -1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if v == h.st.speed {
		return
	}
	h.st.speed = v
	h.stale = true
}

// ClearSpeed removes the speed.
func (h *HUD) ClearSpeed() {
	h.SetSpeed(-1)
}

// HasSpeedData reports whether a speed is known.
func (h *HUD) HasSpeedData() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.speed >= 0
}

// HasNavigationData reports whether any of the road, road description, ETA
// or distance to the next turn is known.
func (h *HUD) HasNavigationData() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.hasNavigation()
}

func (s *state) hasNavigation() bool {
	return s.nextRoad != "" || s.nextRoadDesc != "" || s.eta != "" || s.distanceToNextTurn != ""
}

func (h *HUD) set(dst *string, v string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if *dst == v {
		return
	}
	*dst = v
	h.stale = true
}

// SetNextRoad sets the name of the next road.
func (h *HUD) SetNextRoad(v string) { h.set(&h.st.nextRoad, v) }

// SetNextRoadDesc sets the maneuver description.
func (h *HUD) SetNextRoadDesc(v string) { h.set(&h.st.nextRoadDesc, v) }

// SetEta sets the estimated time of arrival.
func (h *HUD) SetEta(v string) { h.set(&h.st.eta, v) }

// SetEte sets the estimated time en route.
func (h *HUD) SetEte(v string) { h.set(&h.st.ete, v) }

// SetTotalDistance sets the remaining distance to the destination.
func (h *HUD) SetTotalDistance(v string) { h.set(&h.st.totalDistance, v) }

// SetDistanceToNextTurn sets the distance to the next maneuver.
func (h *HUD) SetDistanceToNextTurn(v string) { h.set(&h.st.distanceToNextTurn, v) }

// SetIconHash selects the maneuver icon. An empty hash removes it.
func (h *HUD) SetIconHash(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hash == h.st.iconHash {
		return
	}
	h.st.iconHash = hash
	h.icons.RequestIcon(hash)
}

// IconHash returns the selected icon hash.
func (h *HUD) IconHash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.iconHash
}

// ClearNavigation removes every navigation value, the icon and any icon
// still waiting to be reconciled. The speed is kept.
func (h *HUD) ClearNavigation() {
	h.mu.Lock()
	defer h.mu.Unlock()
	speed := h.st.speed
	if h.st != (state{speed: speed}) {
		h.stale = true
	}
	h.st = state{speed: speed}
	h.icons.DropPending()
	h.icons.RequestIcon("")
}

func (s *state) orPlaceholder(v string) string {
	if !s.hasNavigation() {
		return Placeholder
	}
	return v
}

// NextRoad returns the next road, or Placeholder without navigation data.
func (h *HUD) NextRoad() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.orPlaceholder(h.st.nextRoad)
}

// NextRoadDesc returns the maneuver description, or Placeholder.
func (h *HUD) NextRoadDesc() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.orPlaceholder(h.st.nextRoadDesc)
}

// DistanceToNextTurn returns the distance to the next maneuver, or
// Placeholder.
func (h *HUD) DistanceToNextTurn() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.orPlaceholder(h.st.distanceToNextTurn)
}

// FullEta returns "<ete> - <total distance> - <eta>".
func (h *HUD) FullEta() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.fullEta()
}

func (s *state) fullEta() string {
	return s.orPlaceholder(s.ete) + " - " + s.orPlaceholder(s.totalDistance) + " - " + s.orPlaceholder(s.eta)
}

func (s *state) speedText() string {
	if s.speed < 0 {
		return ""
	}
	return strconv.Itoa(s.speed)
}

// Tick reconciles the icon pipeline and, when anything changed, renders and
// flushes the frame. Only rows that differ from the screen are sent.
func (h *HUD) Tick() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.icons.Reconcile()
	icon, changed := h.icons.TakeIcon()
	if !changed && !h.stale && h.synced {
		return nil
	}
	h.r.render(h.frame, &h.st, icon, h.opts.SpeedUnit)
	h.stale = false
	return h.flushLocked()
}

// Run calls Tick every interval until ctx is canceled. Errors are logged and
// the next tick tries again.
func (h *HUD) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := h.Tick(); err != nil {
			lg.Errorf("tick: %s", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Splash fills the whole screen with pattern, then forces the next Tick to
// redraw everything.
func (h *HUD) Splash(pattern byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.shown.Bounds()
	buf := make([]byte, 2*b.Dx()*b.Dy())
	for i := range buf {
		buf[i] = pattern
	}
	h.synced = false
	h.stale = true
	return h.screen.FlushWindow(0, 0, b.Dx()-1, b.Dy()-1, buf)
}

// Deliver hands a bitmap received from the transport to the icon pipeline.
// It is safe to call from any goroutine.
func (h *HUD) Deliver(hash string, bitmap []byte) error {
	return h.icons.Deliver(hash, bitmap)
}
