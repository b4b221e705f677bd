// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package navhud is a container for the navigation head-up display.
//
// st7789 drives the panel, iconcache and iconpipe keep the maneuver icons,
// hud renders the screen and mqttlink feeds it. cmd/navhud wires them on a
// Raspberry Pi class board.
package navhud
