package planner

import (
	"context"
	"fmt"
	"sync"
)

// mockProber returns fixed widths keyed by path.
type mockProber struct {
	widths map[string]int
}

func (m *mockProber) Width(ctx context.Context, path string) (int, error) {
	if w, ok := m.widths[path]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("unsupported image: %s", path)
}

// mockLogger records calls for assertions.
type mockLogger struct {
	mu         sync.Mutex
	errorCalls []errorCall
	debugCalls []string
}

type errorCall struct {
	operation string
	path      string
	err       error
}

func (m *mockLogger) Render(inputPath, outputPath string) {}

func (m *mockLogger) Skip(inputPath string) {}

func (m *mockLogger) Upload(localPath, s3Path string) {}

func (m *mockLogger) Error(operation, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, errorCall{operation, path, err})
}

func (m *mockLogger) Debug(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugCalls = append(m.debugCalls, message)
}
