package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
)

// PlanSizes keeps the configured widths strictly below nativeWidth, in
// configured order, and appends the pass-through entry. A nil configured
// slice means the sizes were never configured; an empty one is valid.
func PlanSizes(nativeWidth int, configured []int) ([]SizeSpec, error) {
	if configured == nil {
		return nil, errs.Configf("No outputSizes configured")
	}

	sizes := make([]SizeSpec, 0, len(configured)+1)
	for _, w := range configured {
		if w < nativeWidth {
			sizes = append(sizes, SizeSpec{Width: w, Resize: true})
		}
	}
	sizes = append(sizes, SizeSpec{Width: nativeWidth, Resize: false})

	return sizes, nil
}

// ResolveOutputPath mirrors inputPath from inputDir into outputDir. A width of
// zero yields the pass-through name; any other width adds a "-<width>" suffix
// before the extension.
func ResolveOutputPath(inputPath, inputDir, outputDir string, width int) (string, error) {
	if inputDir == "" {
		return "", errs.Configf("No input directory configured")
	}
	if outputDir == "" {
		return "", errs.Configf("No output directory configured")
	}

	root := filepath.Clean(inputDir)
	dir := filepath.Dir(inputPath)

	var rel string
	switch {
	case dir == root:
	case strings.HasPrefix(dir, root+string(filepath.Separator)):
		rel = dir[len(root)+1:]
	case root == "." && !filepath.IsAbs(dir) && !strings.HasPrefix(dir, ".."):
		rel = dir
	default:
		return "", fmt.Errorf("input %s is not under input directory %s", inputPath, inputDir)
	}

	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)
	if width != 0 {
		base += "-" + strconv.Itoa(width)
	}

	return filepath.Join(filepath.Clean(outputDir), rel, base+ext), nil
}

// NewFileTask plans every output of one input.
func NewFileTask(input InputSpec, nativeWidth int, configured []int) (FileTask, error) {
	sizes, err := PlanSizes(nativeWidth, configured)
	if err != nil {
		return FileTask{}, err
	}

	task := FileTask{
		Input:       input,
		NativeWidth: nativeWidth,
		Format:      FormatFromPath(input.InputPath),
		Outputs:     make([]PlannedOutput, 0, len(sizes)),
	}
	for _, size := range sizes {
		suffix := 0
		if size.Resize {
			suffix = size.Width
		}
		path, err := ResolveOutputPath(input.InputPath, input.InputDir, input.OutputDir, suffix)
		if err != nil {
			return FileTask{}, err
		}
		task.Outputs = append(task.Outputs, PlannedOutput{
			Width:  size.Width,
			Resize: size.Resize,
			Path:   path,
		})
	}

	return task, nil
}

// OutputDirectories returns every distinct directory the tasks write into.
func OutputDirectories(tasks []FileTask) []string {
	seen := make(map[string]struct{})
	for _, task := range tasks {
		for _, out := range task.Outputs {
			seen[filepath.Dir(out.Path)] = struct{}{}
		}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
