package planner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFileAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to set times on %s: %v", path, err)
	}
}

func TestOracleIsStale(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	input := filepath.Join(tmpDir, "in.png")
	writeFileAt(t, input, base)

	newer := filepath.Join(tmpDir, "newer.png")
	writeFileAt(t, newer, base.Add(time.Minute))
	same := filepath.Join(tmpDir, "same.png")
	writeFileAt(t, same, base)
	older := filepath.Join(tmpDir, "older.png")
	writeFileAt(t, older, base.Add(-time.Minute))
	missing := filepath.Join(tmpDir, "missing.png")

	tests := []struct {
		name    string
		outputs []string
		want    bool
	}{
		{name: "all outputs newer", outputs: []string{newer, newer}, want: false},
		{name: "equal mtime is fresh", outputs: []string{same}, want: false},
		{name: "one output older", outputs: []string{newer, older}, want: true},
		{name: "one output missing", outputs: []string{newer, missing}, want: true},
		{name: "no outputs", outputs: nil, want: false},
	}

	oracle := NewOracle(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oracle.IsStale(input, tt.outputs)
			if err != nil {
				t.Fatalf("IsStale() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOracleIsStaleMissingInput(t *testing.T) {
	oracle := NewOracle(nil)
	if _, err := oracle.IsStale(filepath.Join(t.TempDir(), "gone.png"), nil); err == nil {
		t.Error("IsStale() error = nil, want error for missing input")
	}
}

type fakeInfo struct {
	fs.FileInfo
	mtime time.Time
}

func (f fakeInfo) ModTime() time.Time { return f.mtime }

func TestOracleShortCircuits(t *testing.T) {
	now := time.Now()
	var statted []string
	stat := func(path string) (fs.FileInfo, error) {
		statted = append(statted, path)
		switch path {
		case "in.png":
			return fakeInfo{mtime: now}, nil
		case "out/in-500.png":
			return nil, os.ErrNotExist
		}
		return fakeInfo{mtime: now.Add(time.Hour)}, nil
	}

	stale, err := NewOracle(stat).IsStale("in.png", []string{"out/in-500.png", "out/in.png"})
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Error("IsStale() = false, want true")
	}
	if len(statted) != 2 {
		t.Errorf("stat calls = %v, want input and first output only", statted)
	}
}

func TestOracleFilterStale(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	fresh := filepath.Join(tmpDir, "fresh.png")
	writeFileAt(t, fresh, base)
	freshOut := filepath.Join(tmpDir, "fresh-out.png")
	writeFileAt(t, freshOut, base.Add(time.Minute))

	stale := filepath.Join(tmpDir, "stale.png")
	writeFileAt(t, stale, base)

	tasks := []FileTask{
		{Input: InputSpec{InputPath: stale}, Outputs: []PlannedOutput{{Path: filepath.Join(tmpDir, "never-rendered.png")}}},
		{Input: InputSpec{InputPath: fresh}, Outputs: []PlannedOutput{{Path: freshOut}}},
		{Input: InputSpec{InputPath: filepath.Join(tmpDir, "deleted.png")}, Outputs: []PlannedOutput{{Path: freshOut}}},
	}

	oracle := NewOracle(nil)
	got, failures := oracle.FilterStale(context.Background(), tasks)
	if len(got) != 1 || got[0].Input.InputPath != stale {
		t.Errorf("FilterStale() = %+v, want only %s", got, stale)
	}
	if len(failures) != 1 {
		t.Errorf("FilterStale() failures = %v, want one", failures)
	}

	verdicts := oracle.Check(context.Background(), tasks[:2])
	if verdicts[0].Reason != ReasonOutputMissing {
		t.Errorf("verdict reason = %q, want %q", verdicts[0].Reason, ReasonOutputMissing)
	}
	if verdicts[1].Reason != ReasonUpToDate {
		t.Errorf("verdict reason = %q, want %q", verdicts[1].Reason, ReasonUpToDate)
	}
}

func TestOracleCheckCanceled(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.png")
	writeFileAt(t, input, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []FileTask{
		{Input: InputSpec{InputPath: input}, Outputs: []PlannedOutput{{Path: filepath.Join(dir, "a-500.png")}}},
		{Input: InputSpec{InputPath: input}, Outputs: []PlannedOutput{{Path: filepath.Join(dir, "b.png")}}},
	}

	for i, v := range NewOracle(nil).Check(ctx, tasks) {
		if !errors.Is(v.Err, context.Canceled) {
			t.Errorf("verdicts[%d].Err = %v, want context.Canceled", i, v.Err)
		}
		if v.Stale {
			t.Errorf("verdicts[%d].Stale = true for an unchecked task", i)
		}
	}

	stale, failures := NewOracle(nil).FilterStale(ctx, tasks)
	if len(stale) != 0 || len(failures) != 2 {
		t.Errorf("FilterStale() = %d stale, %d failures, want 0 and 2", len(stale), len(failures))
	}
}
