// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package flashfs

import (
	"os"
	"path/filepath"
	"testing"

	"tinygo.org/x/tinyfs"
)

func TestMountFormatsBlankDevice(t *testing.T) {
	dev := tinyfs.NewMemoryDevice(256, 4096, 64)
	if _, err := Mount(dev, false); err == nil {
		t.Fatal("Mount() of a blank device without format succeeded")
	}
	lfs, err := Mount(dev, true)
	if err != nil {
		t.Fatalf("Mount() failed: %v", err)
	}
	if err := lfs.Unmount(); err != nil {
		t.Fatal(err)
	}
	// Formatted once, mountable without format from now on.
	lfs, err = Mount(dev, false)
	if err != nil {
		t.Fatalf("Mount() of a formatted device failed: %v", err)
	}
	lfs.Unmount()
}

func TestImageDevicePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	dev, err := OpenImage(path, 64*4096, 4096)
	if err != nil {
		t.Fatal(err)
	}
	lfs, err := Mount(dev, true)
	if err != nil {
		t.Fatal(err)
	}
	f, err := lfs.OpenFile("/hello.bin", os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	f.Close()
	lfs.Unmount()
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}

	dev, err = OpenImage(path, 64*4096, 4096)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	lfs, err = Mount(dev, false)
	if err != nil {
		t.Fatalf("Mount() of the reopened image failed: %v", err)
	}
	defer lfs.Unmount()
	f, err = lfs.Open("/hello.bin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf := make([]byte, 5)
	if _, err := f.Read(buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "hello" {
		t.Errorf("read %q, want %q", buf, "hello")
	}
}

func TestOpenImageRejectsBadGeometry(t *testing.T) {
	if _, err := OpenImage(filepath.Join(t.TempDir(), "x.img"), 1000, 4096); err == nil {
		t.Fatal("OpenImage() accepted a size that is not a multiple of the block size")
	}
}
