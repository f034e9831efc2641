// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// DefaultCompressMinSize is the smallest body worth compressing.
const DefaultCompressMinSize = 1024

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// compressibleContentTypes are the non text/* types worth gzipping: the
// sitemap, the health JSON, app.js and the cover placeholder.
var compressibleContentTypes = []string{
	"application/javascript",
	"application/json",
	"application/xml",
	"image/svg+xml",
}

// Compress gzips responses of at least minSize bytes when the client
// accepts gzip and the content type is textual. The body is held until the
// handler returns; pages are rendered into a buffer anyway.
func Compress(minSize int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			sw := &selectiveWriter{ResponseWriter: w, minSize: minSize}
			next.ServeHTTP(sw, r)
			sw.finish()
		})
	}
}

// selectiveWriter holds the status and body until finish.
type selectiveWriter struct {
	http.ResponseWriter
	minSize    int
	buffer     []byte
	statusCode int
}

func (sw *selectiveWriter) WriteHeader(statusCode int) {
	if sw.statusCode == 0 {
		sw.statusCode = statusCode
	}
}

func (sw *selectiveWriter) Write(b []byte) (int, error) {
	sw.buffer = append(sw.buffer, b...)
	return len(b), nil
}

func (sw *selectiveWriter) finish() {
	h := sw.Header()
	compress := len(sw.buffer) >= sw.minSize &&
		h.Get("Content-Encoding") == "" &&
		isCompressible(h.Get("Content-Type"))

	if compress {
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
	}

	if sw.statusCode != 0 {
		sw.ResponseWriter.WriteHeader(sw.statusCode)
	}
	if len(sw.buffer) == 0 {
		return
	}

	if !compress {
		_, _ = sw.ResponseWriter.Write(sw.buffer)
		return
	}

	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(sw.ResponseWriter)
	_, _ = gz.Write(sw.buffer)
	_ = gz.Close()
	gzipWriterPool.Put(gz)
}

// isCompressible accepts text/* and the textual application types.
func isCompressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || slices.Contains(compressibleContentTypes, mediaType)
}
