// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iconpipe

import (
	"errors"
	"fmt"
	"image"
	"sync"

	logger "github.com/d2r2/go-logger"

	"github.com/GermanBionicSystems/navhud/image565"
)

var lg = logger.NewPackageLogger("iconpipe", logger.InfoLevel)

var (
	// ErrBitmapSize is returned by Deliver for a bitmap that is not exactly
	// Width*Height/8 bytes.
	ErrBitmapSize = errors.New("iconpipe: bitmap size mismatch")
	// ErrEmptyHash is returned by Deliver for an empty hash.
	ErrEmptyHash = errors.New("iconpipe: empty hash")
)

// State is the state of the requested icon.
type State int

// Requested icon states.
const (
	Unrequested State = iota
	AwaitingDelivery
	Rendered
)

func (s State) String() string {
	switch s {
	case Unrequested:
		return "Unrequested"
	case AwaitingDelivery:
		return "AwaitingDelivery"
	case Rendered:
		return "Rendered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cache is the persistent icon store. *iconcache.Cache implements it.
type Cache interface {
	Exists(hash string) bool
	Save(hash string, bitmap []byte) error
	Load(hash string) ([]byte, error)
}

// Opts configures a Pipeline.
type Opts struct {
	Width  int
	Height int
	// Active is the color of set bits, Inactive of clear bits.
	Active   image565.Color
	Inactive image565.Color
	// Blank fills the icon when no icon is requested.
	Blank image565.Color
	// Invert swaps Active and Inactive.
	Invert bool
}

// DefaultOpts matches the 64x64 navigation icons: blue arrows on white.
var DefaultOpts = Opts{
	Width:    64,
	Height:   64,
	Active:   image565.Blue,
	Inactive: image565.White,
	Blank:    image565.White,
}

// Pipeline is the icon reconciliation pipeline.
//
// Deliver is safe to call concurrently with everything else. RequestIcon,
// Reconcile and TakeIcon are expected to run on the tick goroutine; they are
// still serialized by a lock.
type Pipeline struct {
	cache Cache
	opts  Opts
	size  int

	// mu guards the pending slot, written by Deliver and drained by
	// Reconcile.
	mu          sync.Mutex
	pendingHash string
	pending     []byte

	// rmu guards the render side.
	rmu       sync.Mutex
	requested string
	state     State
	front     *image565.Image
	back      *image565.Image
	dirty     bool
}

// New returns a Pipeline backed by cache. opts may be nil to use
// DefaultOpts.
func New(cache Cache, opts *Opts) *Pipeline {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = DefaultOpts.Width, DefaultOpts.Height
	}
	r := image.Rect(0, 0, o.Width, o.Height)
	p := &Pipeline{
		cache: cache,
		opts:  o,
		size:  (o.Width*o.Height + 7) / 8,
		front: image565.New(r),
		back:  image565.New(r),
	}
	p.front.Fill(o.Blank)
	p.back.Fill(o.Blank)
	return p
}

// BitmapSize returns the number of bytes of a delivered bitmap.
func (p *Pipeline) BitmapSize() int {
	return p.size
}

// RequestIcon selects the icon to show.
//
// Requesting the current hash is a no-op. An empty hash blanks the icon. A
// cached hash is loaded and converted immediately. Any other hash leaves the
// icon unchanged until a matching bitmap is delivered and reconciled.
func (p *Pipeline) RequestIcon(hash string) {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	if hash == p.requested {
		return
	}
	p.requested = hash
	if hash == "" {
		p.back.Fill(p.opts.Blank)
		p.swapLocked()
		p.state = Unrequested
		return
	}
	if p.cache.Exists(hash) {
		b, err := p.cache.Load(hash)
		if err == nil {
			if err = p.renderLocked(b); err == nil {
				return
			}
		}
		lg.Errorf("loading icon %s: %s", hash, err)
	}
	p.state = AwaitingDelivery
	lg.Debugf("waiting for icon %s", hash)
}

// Deliver hands over a bitmap received from the transport. It only stores it
// in the pending slot, replacing any bitmap not yet reconciled; a second
// delivery of the pending hash is ignored.
func (p *Pipeline) Deliver(hash string, bitmap []byte) error {
	if hash == "" {
		lg.Error("rejecting icon without hash")
		return ErrEmptyHash
	}
	if len(bitmap) != p.size {
		lg.Errorf("rejecting icon %s: %d bytes, want %d", hash, len(bitmap), p.size)
		return ErrBitmapSize
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil && p.pendingHash == hash {
		return nil
	}
	if p.pending == nil {
		p.pending = make([]byte, p.size)
	}
	copy(p.pending, bitmap)
	p.pendingHash = hash
	return nil
}

// Pending returns the hash waiting in the pending slot, if any.
func (p *Pipeline) Pending() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingHash, p.pending != nil
}

// DropPending discards the pending bitmap without caching it.
func (p *Pipeline) DropPending() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingHash, p.pending = "", nil
}

// Reconcile consumes the pending bitmap, if any. The bitmap is saved to the
// cache when new and rendered when it is the requested icon. The pending
// slot is always emptied. It returns true when the icon changed.
func (p *Pipeline) Reconcile() bool {
	p.mu.Lock()
	hash, b := p.pendingHash, p.pending
	p.pendingHash, p.pending = "", nil
	p.mu.Unlock()
	if b == nil {
		return false
	}

	if !p.cache.Exists(hash) {
		if err := p.cache.Save(hash, b); err != nil {
			lg.Errorf("caching icon %s: %s", hash, err)
		}
	}

	p.rmu.Lock()
	defer p.rmu.Unlock()
	if hash != p.requested {
		lg.Debugf("cached icon %s, showing %q", hash, p.requested)
		return false
	}
	if err := p.renderLocked(b); err != nil {
		lg.Errorf("converting icon %s: %s", hash, err)
		return false
	}
	return true
}

// State returns the state of the requested icon.
func (p *Pipeline) State() State {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	return p.state
}

// Requested returns the hash last passed to RequestIcon.
func (p *Pipeline) Requested() string {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	return p.requested
}

// Dirty reports whether the icon changed since the last TakeIcon.
func (p *Pipeline) Dirty() bool {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	return p.dirty
}

// TakeIcon returns the current icon and whether it changed since the last
// call, then clears the dirty flag. The image stays valid until the next
// RequestIcon or Reconcile.
func (p *Pipeline) TakeIcon() (*image565.Image, bool) {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	d := p.dirty
	p.dirty = false
	return p.front, d
}

func (p *Pipeline) renderLocked(b []byte) error {
	if err := Convert(p.back, b, p.opts.Active, p.opts.Inactive, p.opts.Invert); err != nil {
		return err
	}
	p.swapLocked()
	p.state = Rendered
	return nil
}

// swapLocked publishes the back buffer. The front buffer is never written
// in place.
func (p *Pipeline) swapLocked() {
	p.front, p.back = p.back, p.front
	p.dirty = true
}

// Convert expands a 1-bit bitmap into dst.
//
// Bits are packed row-major, most significant bit first; pixel (x, y) of dst
// is bit y*width+x. Set bits become active and clear bits inactive, or the
// opposite when invert is true.
func Convert(dst *image565.Image, src []byte, active, inactive image565.Color, invert bool) error {
	r := dst.Bounds()
	w, h := r.Dx(), r.Dy()
	if need := (w*h + 7) / 8; len(src) < need {
		return fmt.Errorf("iconpipe: %dx%d icon needs %d bytes, got %d", w, h, need, len(src))
	}
	on, off := active, inactive
	if invert {
		on, off = off, on
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := off
			if src[i>>3]&(0x80>>uint(i&7)) != 0 {
				c = on
			}
			dst.SetRGB565(r.Min.X+x, r.Min.Y+y, c)
		}
	}
	return nil
}
