// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package iconcache is a content addressed store of fixed size 1-bit icon
// bitmaps.
//
// Each icon is one file named after its content hash, "<hash>.bin", holding
// exactly the bitmap bytes and no header. The set of cached hashes is read
// once from the directory by RebuildIndex and kept in memory afterward, so
// Exists never touches the flash.
package iconcache

import (
	"errors"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	logger "github.com/d2r2/go-logger"
	"tinygo.org/x/tinyfs"
)

var lg = logger.NewPackageLogger("iconcache", logger.InfoLevel)

const (
	// Suffix is appended to the hash to build the file name.
	Suffix     = ".bin"
	tempSuffix = ".tmp"
)

// DefaultSize is the size of a 64x64 1-bit bitmap.
const DefaultSize = 64 * 64 / 8

var (
	// ErrNotCached is returned by Load for a hash absent from the index.
	ErrNotCached = errors.New("iconcache: icon not cached")
	// ErrSize is returned when a bitmap is not exactly Opts.Size bytes.
	ErrSize = errors.New("iconcache: bitmap size mismatch")
	// ErrHash is returned for hashes that cannot be used as a file name.
	ErrHash = errors.New("iconcache: invalid hash")
)

// Opts configures a Cache.
type Opts struct {
	// Dir is the directory holding the icons. Empty means the root.
	Dir string
	// Size is the bitmap size in bytes. Zero means DefaultSize.
	Size int
}

// Cache is the icon store. It is safe for concurrent use.
type Cache struct {
	fs   tinyfs.Filesystem
	dir  string
	size int

	mu    sync.Mutex
	index map[string]struct{}
}

// New returns a Cache with an empty index. Call RebuildIndex to pick up the
// icons already stored.
func New(fs tinyfs.Filesystem, opts *Opts) *Cache {
	c := &Cache{
		fs:    fs,
		dir:   "/",
		size:  DefaultSize,
		index: map[string]struct{}{},
	}
	if opts != nil {
		if opts.Dir != "" {
			c.dir = path.Clean("/" + opts.Dir)
		}
		if opts.Size > 0 {
			c.size = opts.Size
		}
	}
	return c
}

// FileName returns the path of the icon with the given hash inside dir.
func FileName(dir, hash string) string {
	return path.Join("/", dir, hash+Suffix)
}

// Size returns the expected bitmap size in bytes.
func (c *Cache) Size() int {
	return c.size
}

// Exists reports whether hash is in the index.
func (c *Cache) Exists(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[hash]
	return ok
}

// Len returns the number of cached icons.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Hashes returns the cached hashes in lexical order.
func (c *Cache) Hashes() []string {
	c.mu.Lock()
	out := make([]string, 0, len(c.index))
	for h := range c.index {
		out = append(out, h)
	}
	c.mu.Unlock()
	sort.Strings(out)
	return out
}

// Save stores bitmap under hash. Saving a hash already cached is a no-op,
// the content is never rewritten.
func (c *Cache) Save(hash string, bitmap []byte) error {
	if !validHash(hash) {
		lg.Errorf("rejecting icon with invalid hash %q", hash)
		return ErrHash
	}
	if len(bitmap) != c.size {
		lg.Errorf("rejecting icon %s: %d bytes, want %d", hash, len(bitmap), c.size)
		return ErrSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[hash]; ok {
		return nil
	}
	if err := c.ensureDir(); err != nil {
		return err
	}
	if err := c.atomicWrite(FileName(c.dir, hash), bitmap); err != nil {
		lg.Errorf("saving icon %s: %s", hash, err)
		return err
	}
	c.index[hash] = struct{}{}
	lg.Debugf("saved icon %s", hash)
	return nil
}

// Load returns the bitmap stored under hash. A file of the wrong size or a
// read failure yields an error and never a partial bitmap.
func (c *Cache) Load(hash string) ([]byte, error) {
	if !c.Exists(hash) {
		return nil, ErrNotCached
	}
	f, err := c.fs.Open(FileName(c.dir, hash))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// One extra byte detects oversized files.
	buf := make([]byte, c.size+1)
	n, err := io.ReadFull(f, buf)
	switch {
	case err == io.ErrUnexpectedEOF && n == c.size:
		return buf[:n], nil
	case err == nil, err == io.ErrUnexpectedEOF, err == io.EOF:
		lg.Errorf("icon %s is corrupted: size mismatch", hash)
		return nil, ErrSize
	default:
		return nil, err
	}
}

// RebuildIndex replaces the index with the icons found in storage. Leftovers
// of interrupted writes are removed.
func (c *Cache) RebuildIndex() error {
	entries, err := c.readDir()
	if err != nil {
		if isNotExist(err) {
			c.mu.Lock()
			c.index = map[string]struct{}{}
			c.mu.Unlock()
			return nil
		}
		return err
	}
	index := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, tempSuffix) {
			c.fs.Remove(path.Join(c.dir, name))
			continue
		}
		if !strings.HasSuffix(name, Suffix) {
			continue
		}
		if h := strings.TrimSuffix(name, Suffix); validHash(h) {
			index[h] = struct{}{}
		}
	}
	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
	lg.Infof("%d icons in cache", len(index))
	return nil
}

// Purge removes every cached icon from storage and empties the index.
func (c *Cache) Purge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := c.readDir()
	if err != nil && !isNotExist(err) {
		return err
	}
	var first error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, Suffix) || strings.HasSuffix(name, tempSuffix)) {
			continue
		}
		if err := c.fs.Remove(path.Join(c.dir, name)); err != nil && first == nil {
			first = err
		}
	}
	c.index = map[string]struct{}{}
	return first
}

func (c *Cache) readDir() ([]os.FileInfo, error) {
	f, err := c.fs.Open(c.dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if !f.IsDir() {
		return nil, errors.New("iconcache: " + c.dir + " is not a directory")
	}
	return f.Readdir(-1)
}

func (c *Cache) ensureDir() error {
	if c.dir == "/" {
		return nil
	}
	if err := c.fs.Mkdir(c.dir, 0o755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

// atomicWrite writes data to a temporary file then renames it, so a power
// loss never leaves a truncated icon under its final name.
func (c *Cache) atomicWrite(name string, data []byte) error {
	tmp := name + tempSuffix
	c.fs.Remove(tmp)

	f, err := c.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		c.fs.Remove(tmp)
		return err
	}
	if s, ok := f.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			f.Close()
			c.fs.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		c.fs.Remove(tmp)
		return err
	}
	// LittleFS rename does not replace.
	c.fs.Remove(name)
	if err := c.fs.Rename(tmp, name); err != nil {
		c.fs.Remove(tmp)
		return err
	}
	return nil
}

func validHash(h string) bool {
	return h != "" && h != "." && h != ".." && !strings.ContainsAny(h, "/\\\x00")
}

// isExist checks if an error is "already exists". LittleFS errors do not
// always match os.IsExist.
func isExist(err error) bool {
	return os.IsExist(err) || strings.Contains(err.Error(), "already exists")
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "No directory entry")
}
