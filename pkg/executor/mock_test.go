package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
	"github.com/yuya-takeyama/strict-image-resize/pkg/render"
)

// mockRenderer records rendered paths and tracks peak concurrency.
type mockRenderer struct {
	openErr   map[string]error
	renderErr map[string]error
	delay     time.Duration

	mu       sync.Mutex
	opened   []string
	rendered []string

	inFlight int32
	peak     int32
}

func (m *mockRenderer) Open(ctx context.Context, task planner.FileTask) (render.Source, error) {
	m.mu.Lock()
	m.opened = append(m.opened, task.Input.InputPath)
	m.mu.Unlock()

	if err := m.openErr[task.Input.InputPath]; err != nil {
		return nil, err
	}
	return &mockSource{renderer: m}, nil
}

type mockSource struct {
	renderer *mockRenderer
}

func (s *mockSource) Render(ctx context.Context, out planner.PlannedOutput) error {
	m := s.renderer
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&m.peak, peak, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.rendered = append(m.rendered, out.Path)
	m.mu.Unlock()

	return m.renderErr[out.Path]
}

// mockLogger counts calls for assertions.
type mockLogger struct {
	mu          sync.Mutex
	renderCalls int
	errorCalls  []string
}

func (m *mockLogger) Render(inputPath, outputPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderCalls++
}

func (m *mockLogger) Skip(inputPath string) {}

func (m *mockLogger) Upload(localPath, s3Path string) {}

func (m *mockLogger) Error(operation, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, fmt.Sprintf("%s %s", operation, path))
}

func (m *mockLogger) Debug(message string) {}

func task(input string, format planner.Format, outputs ...string) planner.FileTask {
	t := planner.FileTask{
		Input:  planner.InputSpec{InputPath: input},
		Format: format,
	}
	for i, out := range outputs {
		t.Outputs = append(t.Outputs, planner.PlannedOutput{Width: 100 * (i + 1), Resize: i < len(outputs)-1, Path: out})
	}
	return t
}
