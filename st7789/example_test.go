// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789_test

import (
	"image"
	"image/color"
	"log"

	"github.com/GermanBionicSystems/navhud/st7789"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	opts := st7789.DefaultOpts
	dev, err := st7789.New(p, gpioreg.ByName("GPIO25"), nil, gpioreg.ByName("GPIO27"), gpioreg.ByName("GPIO18"), &opts)
	if err != nil {
		log.Fatalf("failed to open display: %v", err)
	}
	if err := dev.Init(); err != nil {
		log.Fatalf("failed to initialize display: %v", err)
	}
	// Paint the whole screen blue.
	if err := dev.Draw(dev.Bounds(), &image.Uniform{C: color.RGBA{B: 0xFF, A: 0xFF}}, image.Point{}); err != nil {
		log.Fatal(err)
	}
}
