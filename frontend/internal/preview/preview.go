// Package preview turns an uploaded image into something the page can display.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"runtime"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/itchan-dev/emojiprofile/shared/domain"
	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
)

const jpegQuality = 85

// browser-displayable formats that can be shown as uploaded
var passthrough = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

type Preview struct {
	MimeType string
	Data     []byte
	Width    int
	Height   int
}

type Decoder struct {
	maxDimension   int
	maxDecodedSize int64
	slots          chan struct{}
}

// New returns a decoder producing previews of at most maxDimension per side.
// Images whose RGBA pixel buffer would exceed maxDecodedSize bytes are rejected before decoding.
func New(maxDimension int, maxDecodedSize int64) *Decoder {
	return &Decoder{
		maxDimension:   maxDimension,
		maxDecodedSize: maxDecodedSize,
		slots:          make(chan struct{}, runtime.NumCPU()),
	}
}

// Decode validates that file is a readable image and returns a preview no larger than maxDimension
// on either side. Small displayable images are returned as-is.
func (d *Decoder) Decode(ctx context.Context, file domain.SelectedFile) (Preview, error) {
	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	case <-ctx.Done():
		return Preview{}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return Preview{}, fmt.Errorf("%w: %s: %v", internal_errors.ErrDecodeFailure, file.Name, err)
	}
	// A crafted header can claim huge dimensions in a tiny file
	if int64(cfg.Width)*int64(cfg.Height)*4 > d.maxDecodedSize {
		return Preview{}, fmt.Errorf("%w: %s: image too large: %dx%d pixels, decoded size would exceed %d bytes limit",
			internal_errors.ErrDecodeFailure, file.Name, cfg.Width, cfg.Height, d.maxDecodedSize)
	}

	if mimeType, ok := passthrough[format]; ok && cfg.Width <= d.maxDimension && cfg.Height <= d.maxDimension {
		return Preview{MimeType: mimeType, Data: file.Data, Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return Preview{}, fmt.Errorf("%w: %s: %v", internal_errors.ErrDecodeFailure, file.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}

	w, h := fit(cfg.Width, cfg.Height, d.maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	mimeType := "image/png"
	if format == "jpeg" {
		mimeType = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return Preview{}, fmt.Errorf("encoding preview: %w", err)
	}

	return Preview{MimeType: mimeType, Data: buf.Bytes(), Width: w, Height: h}, nil
}

// fit scales (w, h) down to fit in a limit x limit box, keeping the aspect ratio.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
