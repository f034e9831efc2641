// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging prepares uploaded pictures before they are forwarded to
// the backend: every cover and profile picture becomes a fixed-size JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Error represents an error type for image processing.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrDecode means the upload is not an image we can read.
	ErrDecode Error = "image could not be decoded"
	// ErrEncode means the resized image could not be written.
	ErrEncode Error = "image could not be encoded"
	// ErrFormat means the image type is not allowed for this upload.
	ErrFormat Error = "image format not allowed"
)

// Default target size and quality for covers and profile pictures.
const (
	DefaultWidth   = 200
	DefaultHeight  = 250
	DefaultQuality = 80
)

// MaxPixels bounds width x height of an upload. Decoding allocates in
// proportion to the pixel count, not the file size.
const MaxPixels = 40_000_000

// ProcessedImage is the re-encoded upload.
type ProcessedImage struct {
	Data     []byte
	Filename string
	MimeType string
	Width    int
	Height   int
}

// Preprocessor resizes images to exactly Width x Height. The aspect ratio
// is not preserved.
type Preprocessor struct {
	Width   int
	Height  int
	Quality int
	// Formats limits accepted input formats; nil accepts every decodable one.
	Formats []string
}

// NewPreprocessor returns a Preprocessor with the default size and quality.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{Width: DefaultWidth, Height: DefaultHeight, Quality: DefaultQuality}
}

// NewProfilePreprocessor only accepts PNG and JPEG input.
func NewProfilePreprocessor() *Preprocessor {
	p := NewPreprocessor()
	p.Formats = []string{"jpeg", "png"}
	return p
}

// Process decodes r, applies the EXIF orientation, stretches the image to
// the target size and encodes it as JPEG. The original filename is kept.
func (p *Preprocessor) Process(r io.Reader, filename string) (*ProcessedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w: %w", ErrDecode, err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrDecode
	}
	if !p.allows(format) {
		return nil, fmt.Errorf("%w: %s", ErrFormat, format)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d is too large", ErrDecode, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if format == "jpeg" {
		img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	}

	resized := imaging.Resize(img, p.Width, p.Height, imaging.Lanczos)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, resized, &jpeg.Options{Quality: p.quality()}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return &ProcessedImage{
		Data:     out.Bytes(),
		Filename: safeFilename(filename),
		MimeType: MimeTypeJPEG,
		Width:    resized.Bounds().Dx(),
		Height:   resized.Bounds().Dy(),
	}, nil
}

func (p *Preprocessor) allows(format string) bool {
	if len(p.Formats) == 0 {
		return true
	}
	for _, f := range p.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func (p *Preprocessor) quality() int {
	if p.Quality <= 0 || p.Quality > 100 {
		return DefaultQuality
	}
	return p.Quality
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// safeFilename keeps the base name of the upload.
func safeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" || name == "" {
		return "image.jpg"
	}
	return name
}
