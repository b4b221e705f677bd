// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package flashfs mounts the LittleFS filesystem that holds the icon cache.
//
// On a microcontroller the block device is the onboard flash. On a host it
// is an ImageDevice: a regular file with the same erase semantics, so the
// exact same image can be inspected or flashed later.
package flashfs

import (
	"errors"
	"fmt"
	"os"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

// Mount mounts the LittleFS filesystem stored on dev. If mounting fails and
// format is true, the device is formatted and mounted again.
func Mount(dev tinyfs.BlockDevice, format bool) (*littlefs.LFS, error) {
	lfs := littlefs.New(dev)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})
	err := lfs.Mount()
	if err == nil {
		return lfs, nil
	}
	if !format {
		return nil, fmt.Errorf("flashfs: mount: %w", err)
	}
	if err := lfs.Format(); err != nil {
		return nil, fmt.Errorf("flashfs: format: %w", err)
	}
	if err := lfs.Mount(); err != nil {
		return nil, fmt.Errorf("flashfs: mount after format: %w", err)
	}
	return lfs, nil
}

// erased is the value of a flash byte after erase.
const erased = 0xFF

// ImageDevice is a tinyfs.BlockDevice backed by a file.
type ImageDevice struct {
	f         *os.File
	size      int64
	blockSize int64
}

// OpenImage opens or creates the flash image at path. A new or shorter file
// is extended to size bytes of erased flash. size must be a multiple of
// blockSize.
func OpenImage(path string, size, blockSize int64) (*ImageDevice, error) {
	if blockSize <= 0 || size <= 0 || size%blockSize != 0 {
		return nil, fmt.Errorf("flashfs: size %d is not a multiple of block size %d", size, blockSize)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("flashfs: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flashfs: %w", err)
	}
	d := &ImageDevice{f: f, size: size, blockSize: blockSize}
	if cur := st.Size(); cur < size {
		start := cur / blockSize
		if err := d.EraseBlocks(start, size/blockSize-start); err != nil {
			f.Close()
			return nil, err
		}
	}
	return d, nil
}

// ReadAt implements io.ReaderAt.
func (d *ImageDevice) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(buf)) > d.size {
		return 0, errors.New("flashfs: read out of bounds")
	}
	return d.f.ReadAt(buf, off)
}

// WriteAt implements io.WriterAt.
func (d *ImageDevice) WriteAt(buf []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(buf)) > d.size {
		return 0, errors.New("flashfs: write out of bounds")
	}
	return d.f.WriteAt(buf, off)
}

// Size implements tinyfs.BlockDevice.
func (d *ImageDevice) Size() int64 {
	return d.size
}

// WriteBlockSize implements tinyfs.BlockDevice.
func (d *ImageDevice) WriteBlockSize() int64 {
	return 256
}

// EraseBlockSize implements tinyfs.BlockDevice.
func (d *ImageDevice) EraseBlockSize() int64 {
	return d.blockSize
}

// EraseBlocks implements tinyfs.BlockDevice.
func (d *ImageDevice) EraseBlocks(start, n int64) error {
	if start < 0 || (start+n)*d.blockSize > d.size {
		return errors.New("flashfs: erase out of bounds")
	}
	blank := make([]byte, d.blockSize)
	for i := range blank {
		blank[i] = erased
	}
	for b := start; b < start+n; b++ {
		if _, err := d.f.WriteAt(blank, b*d.blockSize); err != nil {
			return fmt.Errorf("flashfs: erase: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the image file.
func (d *ImageDevice) Close() error {
	if err := d.f.Sync(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

var _ tinyfs.BlockDevice = &ImageDevice{}
