package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
)

const DefaultAnimatedCommand = "gifsicle"

type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// AnimatedRenderer resizes multi-frame images with an external utility.
type AnimatedRenderer struct {
	Command string
	Runner  CommandRunner
}

func NewAnimatedRenderer(command string, runner CommandRunner) *AnimatedRenderer {
	if command == "" {
		command = DefaultAnimatedCommand
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &AnimatedRenderer{Command: command, Runner: runner}
}

func (r *AnimatedRenderer) Open(ctx context.Context, task planner.FileTask) (Source, error) {
	return &animatedSource{renderer: r, inputPath: task.Input.InputPath}, nil
}

type animatedSource struct {
	renderer  *AnimatedRenderer
	inputPath string
}

func (s *animatedSource) Render(ctx context.Context, out planner.PlannedOutput) error {
	if err := s.renderer.Runner.Run(ctx, s.renderer.Command, Args(s.inputPath, out)...); err != nil {
		// drop whatever the utility wrote before failing
		if rmErr := os.Remove(out.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("%w (remove partial output: %v)", err, rmErr)
		}
		return err
	}
	return nil
}

// Args builds the resize utility's argument list for one output.
func Args(inputPath string, out planner.PlannedOutput) []string {
	args := []string{"--output", out.Path}
	if out.Resize {
		args = append(args, "--resize-width", strconv.Itoa(out.Width))
	}
	return append(args, inputPath)
}
