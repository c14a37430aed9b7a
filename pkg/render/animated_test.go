package render

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		out  planner.PlannedOutput
		want []string
	}{
		{
			name: "resize",
			out:  planner.PlannedOutput{Width: 500, Resize: true, Path: "out/gif-500.gif"},
			want: []string{"--output", "out/gif-500.gif", "--resize-width", "500", "in/gif.gif"},
		},
		{
			name: "pass-through",
			out:  planner.PlannedOutput{Width: 750, Path: "out/gif.gif"},
			want: []string{"--output", "out/gif.gif", "in/gif.gif"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Args("in/gif.gif", tt.out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnimatedRenderer(t *testing.T) {
	runner := &recordingRunner{}
	r := NewAnimatedRenderer("", runner)
	if r.Command != DefaultAnimatedCommand {
		t.Errorf("Command = %q, want %q", r.Command, DefaultAnimatedCommand)
	}

	task := planner.FileTask{Input: planner.InputSpec{InputPath: "in/gif.gif"}}
	src, err := r.Open(context.Background(), task)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := src.Render(context.Background(), planner.PlannedOutput{Width: 500, Resize: true, Path: "out/gif-500.gif"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := [][]string{{"gifsicle", "--output", "out/gif-500.gif", "--resize-width", "500", "in/gif.gif"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestAnimatedRendererPropagatesFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 1")}
	src, _ := NewAnimatedRenderer("gifsicle", runner).Open(context.Background(), planner.FileTask{})
	if err := src.Render(context.Background(), planner.PlannedOutput{Path: "out/x.gif"}); err == nil {
		t.Error("Render() error = nil, want runner error")
	}
}

// partialRunner writes some bytes to the --output path and then fails.
type partialRunner struct{}

func (partialRunner) Run(ctx context.Context, name string, args ...string) error {
	if err := os.WriteFile(args[1], []byte("GIF8"), 0644); err != nil {
		return err
	}
	return errors.New("exit status 1")
}

func TestAnimatedRendererRemovesPartialOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "gif-500.gif")
	src, _ := NewAnimatedRenderer("gifsicle", partialRunner{}).Open(context.Background(), planner.FileTask{})

	if err := src.Render(context.Background(), planner.PlannedOutput{Width: 500, Resize: true, Path: out}); err == nil {
		t.Fatal("Render() error = nil, want runner error")
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("partial output still present (stat error = %v)", err)
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	if err := (ExecRunner{}).Run(context.Background(), "false"); err == nil {
		t.Error("Run(false) error = nil, want error")
	}
}

func TestExecRunnerMissingCommand(t *testing.T) {
	if err := (ExecRunner{}).Run(context.Background(), "strict-image-resize-no-such-command"); err == nil {
		t.Error("Run() error = nil, want spawn error")
	}
}

func TestSetForFormat(t *testing.T) {
	still := NewStillRenderer(Codec{})
	set := Set{Still: still}

	if r, err := set.ForFormat(planner.FormatStill); err != nil || r != Renderer(still) {
		t.Errorf("ForFormat(still) = %v, %v", r, err)
	}
	if _, err := set.ForFormat(planner.FormatAnimated); err == nil {
		t.Error("ForFormat(animated) error = nil, want error for unconfigured renderer")
	}
	if _, err := set.ForFormat(planner.Format("svg")); err == nil {
		t.Error("ForFormat(svg) error = nil, want error")
	}
}
