// Package render turns one planned output into a file on disk. Still raster
// formats are decoded and encoded in process; animated formats are handed to
// an external resize utility.
package render

import (
	"context"
	"fmt"

	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
)

// Renderer prepares the per-file state shared by every output of a task.
type Renderer interface {
	Open(ctx context.Context, task planner.FileTask) (Source, error)
}

// Source renders individual outputs of one opened input. Render must be safe
// for concurrent use.
type Source interface {
	Render(ctx context.Context, out planner.PlannedOutput) error
}

// Set holds one renderer per format.
type Set struct {
	Still    Renderer
	Animated Renderer
}

// ForFormat selects the renderer for a format.
func (s Set) ForFormat(format planner.Format) (Renderer, error) {
	var r Renderer
	switch format {
	case planner.FormatStill:
		r = s.Still
	case planner.FormatAnimated:
		r = s.Animated
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if r == nil {
		return nil, fmt.Errorf("no renderer configured for %s images", format)
	}
	return r, nil
}
