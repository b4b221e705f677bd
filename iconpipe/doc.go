// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package iconpipe reconciles the icon the display wants to show with 1-bit
// bitmaps delivered out of band.
//
// The presentation layer calls RequestIcon with the hash it wants shown. A
// transport calls Deliver, from any goroutine, when a bitmap arrives. Once
// per tick the presentation layer calls Reconcile, which persists the last
// delivered bitmap and converts it when it matches the requested hash, then
// TakeIcon to pick up the converted RGB565 icon if it changed.
//
// State machine of the requested icon:
//
//	Unrequested --RequestIcon(not cached)--> AwaitingDelivery
//	AwaitingDelivery --Reconcile(matching delivery)--> Rendered
//	Unrequested --RequestIcon(cached)--> Rendered
//	any --RequestIcon("")--> Unrequested
package iconpipe
