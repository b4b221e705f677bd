// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hud is the navigation head-up display.
//
// A HUD owns the navigation state, the icon pipeline and the screen it
// draws to. Setters store a value and mark the frame stale; they are safe to
// call from a transport goroutine. Tick, called periodically by Run,
// reconciles the icon, renders the frame and sends the rows that differ from
// what the screen already shows.
package hud
