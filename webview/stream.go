// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
)

type viewer struct {
	refresh chan struct{}
	stop    chan struct{}
}

// newBoundary returns a random RFC 2046 multipart boundary.
func newBoundary() string {
	var b [32]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// partWriter writes an endless multipart body, one image per part. Each part
// is closed by its boundary line so browsers show it without waiting for
// the next one.
type partWriter struct {
	w        *bufio.Writer
	boundary string
	started  bool
}

func (p *partWriter) write(contentType string, body []byte) error {
	if !p.started {
		fmt.Fprintf(p.w, "--%s\r\n", p.boundary)
		p.started = true
	}
	fmt.Fprintf(p.w, "Content-Type: %s\r\nContent-Length: %d\r\n\r\n", contentType, len(body))
	p.w.Write(body)
	fmt.Fprintf(p.w, "\r\n--%s\r\n", p.boundary)
	return p.w.Flush()
}

// ServeHTTP streams the frames until the viewer disconnects or Halt is
// called.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f := s.format
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = ParseFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	pw := partWriter{w: bufio.NewWriter(w), boundary: newBoundary()}
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": pw.boundary}))

	v := &viewer{refresh: make(chan struct{}, 1), stop: make(chan struct{}, 1)}
	s.mu.Lock()
	s.viewers[v] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.viewers, v)
		s.mu.Unlock()
	}()

	for {
		b, err := s.frame(f)
		if err != nil {
			return
		}
		// There is no way to report an error inside an image stream, the
		// request just ends.
		if err := pw.write(f.contentType(), b); err != nil {
			return
		}
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		select {
		case <-v.refresh:
		case <-v.stop:
			return
		case <-r.Context().Done():
			return
		}
	}
}
