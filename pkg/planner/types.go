package planner

import (
	"context"
	"path/filepath"
	"strings"
)

type Prober interface {
	Width(ctx context.Context, path string) (int, error)
}

type Format string

const (
	FormatStill    Format = "still"
	FormatAnimated Format = "animated"
)

// FormatFromPath classifies a file by extension.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		return FormatAnimated
	}
	return FormatStill
}

type InputSpec struct {
	InputPath string
	InputDir  string
	OutputDir string
}

// SizeSpec is one planned width before its output path is resolved.
type SizeSpec struct {
	Width  int
	Resize bool
}

// PlannedOutput is one derivative file. Resize is false for the pass-through
// copy, whose Width equals the source's native width.
type PlannedOutput struct {
	Width  int
	Resize bool
	Path   string
}

type FileTask struct {
	Input       InputSpec
	NativeWidth int
	Format      Format
	Outputs     []PlannedOutput
}

// OutputPaths returns the planned output paths in plan order.
func (t FileTask) OutputPaths() []string {
	paths := make([]string, len(t.Outputs))
	for i, out := range t.Outputs {
		paths[i] = out.Path
	}
	return paths
}
