package render

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

const (
	DefaultJPEGQuality = 80
	DefaultWebPQuality = 80
)

// Codec encodes images in the container named by the output extension.
type Codec struct {
	JPEGQuality int
	WebPQuality int
}

func (c Codec) Encode(w io.Writer, img image.Image, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return c.encodeWebP(w, img)
	}

	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("unsupported output format %s: %w", filepath.Ext(path), err)
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(quality(c.JPEGQuality, DefaultJPEGQuality)))
}

func (c Codec) encodeWebP(w io.Writer, img image.Image) error {
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality(c.WebPQuality, DefaultWebPQuality)))
	if err != nil {
		return fmt.Errorf("webp options: %w", err)
	}
	return webp.Encode(w, img, opts)
}

func quality(q, def int) int {
	if q <= 0 || q > 100 {
		return def
	}
	return q
}
