// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/GermanBionicSystems/navhud/image565"
)

func openStream(t *testing.T, s *Sink, target string) (*multipart.Reader, string) {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	t.Cleanup(srv.CloseClientConnections)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+target, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	mt, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mt != "multipart/x-mixed-replace" {
		t.Fatalf("Content-Type %q, %v", resp.Header.Get("Content-Type"), err)
	}
	return multipart.NewReader(resp.Body, params["boundary"]), params["boundary"]
}

func nextImage(t *testing.T, mr *multipart.Reader) (image.Image, string) {
	t.Helper()
	part, err := mr.NextPart()
	if err != nil {
		t.Fatalf("NextPart() failed: %v", err)
	}
	defer part.Close()
	ct := part.Header.Get("Content-Type")
	decode := png.Decode
	if ct == "image/jpeg" {
		decode = jpeg.Decode
	}
	img, err := decode(part)
	if err != nil {
		t.Fatalf("decoding %s failed: %v", ct, err)
	}
	return img, ct
}

func TestStream(t *testing.T) {
	s := New(&Opts{Width: 8, Height: 4})
	mr, boundary := openStream(t, s, "/")
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(boundary) {
		t.Errorf("boundary %q", boundary)
	}

	img, ct := nextImage(t, mr)
	if ct != "image/png" {
		t.Errorf("Content-Type %q", ct)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 8, 4) {
		t.Errorf("Bounds() = %v", got)
	}
	if r, g, b, _ := img.At(1, 2).RGBA(); r|g|b != 0 {
		t.Errorf("initial pixel not black")
	}

	if err := s.FlushWindow(1, 2, 2, 2, []byte{0xF8, 0x00, 0x00, 0x1F}); err != nil {
		t.Fatal(err)
	}
	img, _ = nextImage(t, mr)
	if r, g, b, _ := img.At(1, 2).RGBA(); r != 0xFFFF || g != 0 || b != 0 {
		t.Errorf("pixel (1,2) = %d,%d,%d, want red", r, g, b)
	}
	if r, g, b, _ := img.At(2, 2).RGBA(); r != 0 || g != 0 || b != 0xFFFF {
		t.Errorf("pixel (2,2) = %d,%d,%d, want blue", r, g, b)
	}

	if err := s.Halt(); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.NextPart(); err == nil {
		t.Error("stream continued after Halt()")
	}
}

func TestStreamJPEG(t *testing.T) {
	s := New(&Opts{Width: 16, Height: 16})
	src := image565.New(s.Bounds())
	src.Fill(image565.Green)
	if err := s.Draw(s.Bounds(), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	mr, _ := openStream(t, s, "/?format=jpeg")
	img, ct := nextImage(t, mr)
	if ct != "image/jpeg" {
		t.Errorf("Content-Type %q", ct)
	}
	if _, g, _, _ := img.At(8, 8).RGBA(); g < 0xE000 {
		t.Errorf("green channel %#x", g)
	}
}

func TestRequestStatus(t *testing.T) {
	for _, tc := range []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/?format=bmp", http.StatusBadRequest},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	} {
		t.Run(fmt.Sprint(tc.method, tc.target), func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(&Opts{Width: 4, Height: 4}).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			if rec.Code != tc.want {
				t.Errorf("status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestFlushWindowInvalid(t *testing.T) {
	s := New(&Opts{Width: 4, Height: 4})
	for _, w := range [][4]int{{0, 0, 4, 0}, {2, 0, 1, 0}, {0, -1, 0, 0}} {
		if err := s.FlushWindow(w[0], w[1], w[2], w[3], make([]byte, 64)); err == nil {
			t.Errorf("FlushWindow(%v) succeeded", w)
		}
	}
	if err := s.FlushWindow(0, 0, 3, 3, make([]byte, 31)); err == nil {
		t.Error("short buffer accepted")
	}
}

func TestParseFormat(t *testing.T) {
	for s, want := range map[string]Format{"png": PNG, "jpg": JPEG, "jpeg": JPEG} {
		if got, err := ParseFormat(s); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v", s, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("ParseFormat(gif) succeeded")
	}
}
