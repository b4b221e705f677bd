// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/navhud/image565"
)

const (
	margin   = 10
	iconSize = 64
)

// renderer draws the HUD with gg.
type renderer struct {
	dc     *gg.Context
	layout Layout
	w, h   float64

	speed  font.Face
	large  font.Face
	medium font.Face
	small  font.Face
}

func loadFace(ttf []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

func newRenderer(w, h int, l Layout) (*renderer, error) {
	r := &renderer{dc: gg.NewContext(w, h), layout: l, w: float64(w), h: float64(h)}
	var err error
	if r.speed, err = loadFace(gobold.TTF, 44); err != nil {
		return nil, err
	}
	if r.large, err = loadFace(gobold.TTF, 28); err != nil {
		return nil, err
	}
	if r.medium, err = loadFace(gomedium.TTF, 24); err != nil {
		return nil, err
	}
	if r.small, err = loadFace(goregular.TTF, 20); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) text(face font.Face, s string, x, y, ax, ay float64) {
	if s == "" {
		return
	}
	r.dc.SetFontFace(face)
	r.dc.DrawStringAnchored(s, x, y, ax, ay)
}

// render draws st and icon, then stores the result in dst.
func (r *renderer) render(dst *image565.Image, st *state, icon image.Image, unit string) {
	dc := r.dc
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	if icon != nil {
		dc.DrawImage(icon, margin, margin)
	}

	eta := ""
	if st.hasNavigation() {
		eta = st.fullEta()
	}
	if r.layout == Landscape {
		left := r.h/2 - 12
		dc.SetRGB(1, 0, 0)
		r.text(r.speed, st.speedText(), 12, r.h-margin, 0, 0)
		dc.SetRGB(0, 0, 0)
		r.text(r.medium, unit, 12, r.h-margin-56, 0, 0)

		right := left + margin
		r.text(r.small, eta, r.w-margin, margin, 1, 1)
		dc.SetRGB(0, 0, 1)
		r.text(r.large, st.distanceToNextTurn, right, margin+30, 0, 1)
		dc.SetRGB(0, 0, 0)
		r.text(r.medium, st.nextRoadDesc, right, r.h-margin, 0, 0)
		r.text(r.large, st.nextRoad, right, r.h-margin-40, 0, 0)
	} else {
		dc.SetRGB(1, 0, 0)
		r.text(r.speed, st.speedText(), r.w-12, 15, 1, 1)
		dc.SetRGB(0, 0, 0)
		r.text(r.medium, unit, r.w-12, 55, 1, 1)

		dc.SetRGB(0, 0, 1)
		r.text(r.large, st.distanceToNextTurn, r.w/2, 85, 0.5, 1)
		dc.SetRGB(0, 0, 0)
		r.text(r.large, st.nextRoad, margin, 125, 0, 1)
		r.text(r.medium, st.nextRoadDesc, margin, 160, 0, 1)
		r.text(r.small, eta, r.w/2, r.h-5, 0.5, 0)
	}
	toRGB565(dst, dc.Image())
}

// toRGB565 copies src into dst, both anchored at their origin.
func toRGB565(dst *image565.Image, src image.Image) {
	b := dst.Bounds().Intersect(src.Bounds())
	if rgba, ok := src.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := rgba.PixOffset(b.Min.X, y)
			o := dst.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				c := image565.RGB(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
				dst.Pix[o] = byte(c >> 8)
				dst.Pix[o+1] = byte(c)
				i += 4
				o += 2
			}
		}
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
}
