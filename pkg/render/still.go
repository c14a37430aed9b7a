package render

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
)

// StillRenderer decodes each input once and resamples it per output. Pixels
// are used as stored; EXIF orientation is not applied, so the decoded width
// is the width the prober reported.
type StillRenderer struct {
	Codec Codec
}

func NewStillRenderer(codec Codec) *StillRenderer {
	return &StillRenderer{Codec: codec}
}

func (r *StillRenderer) Open(ctx context.Context, task planner.FileTask) (Source, error) {
	img, err := imaging.Open(task.Input.InputPath)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &stillSource{img: img, codec: r.Codec}, nil
}

type stillSource struct {
	img   image.Image
	codec Codec
}

func (s *stillSource) Render(ctx context.Context, out planner.PlannedOutput) error {
	img := s.img
	if out.Resize {
		img = imaging.Resize(s.img, out.Width, 0, imaging.Lanczos)
	}

	// encode next to the destination and rename, so a failed render never
	// leaves a file that looks up to date
	f, err := os.CreateTemp(filepath.Dir(out.Path), "."+filepath.Base(out.Path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmp := f.Name()

	if err := s.codec.Encode(f, img, out.Path); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp, out.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
