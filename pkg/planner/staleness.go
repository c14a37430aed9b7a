package planner

import (
	"context"
	"io/fs"
	"os"
	"sync"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
)

type StatFunc func(path string) (fs.FileInfo, error)

const (
	ReasonOutputMissing = "output missing"
	ReasonInputNewer    = "input newer"
	ReasonUpToDate      = "up to date"
)

// Oracle decides staleness from modification times alone.
type Oracle struct {
	stat StatFunc
}

// NewOracle creates an oracle. A nil stat uses os.Stat.
func NewOracle(stat StatFunc) *Oracle {
	if stat == nil {
		stat = os.Stat
	}
	return &Oracle{stat: stat}
}

// IsStale reports whether any output must be regenerated. The first missing
// or older output wins. Only a failure to stat the input is an error.
func (o *Oracle) IsStale(inputPath string, outputPaths []string) (bool, error) {
	stale, _, err := o.check(inputPath, outputPaths)
	return stale, err
}

func (o *Oracle) check(inputPath string, outputPaths []string) (bool, string, error) {
	in, err := o.stat(inputPath)
	if err != nil {
		return false, "", err
	}

	for _, path := range outputPaths {
		out, err := o.stat(path)
		if err != nil {
			return true, ReasonOutputMissing, nil
		}
		if in.ModTime().After(out.ModTime()) {
			return true, ReasonInputNewer, nil
		}
	}

	return false, ReasonUpToDate, nil
}

// Verdict is the staleness decision for one task.
type Verdict struct {
	Task   FileTask
	Stale  bool
	Reason string
	Err    error
}

// Check evaluates every task concurrently. Verdicts keep the task order. Tasks
// not yet checked when ctx is done carry ctx.Err().
func (o *Oracle) Check(ctx context.Context, tasks []FileTask) []Verdict {
	verdicts := make([]Verdict, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t FileTask) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				verdicts[idx] = Verdict{Task: t, Err: err}
				return
			}
			stale, reason, err := o.check(t.Input.InputPath, t.OutputPaths())
			verdicts[idx] = Verdict{
				Task:   t,
				Stale:  stale,
				Reason: reason,
				Err:    errs.Wrap(errs.ErrProbe, t.Input.InputPath, err),
			}
		}(i, task)
	}
	wg.Wait()

	return verdicts
}

// FilterStale keeps the tasks that need regeneration, in input order.
func (o *Oracle) FilterStale(ctx context.Context, tasks []FileTask) ([]FileTask, []error) {
	var stale []FileTask
	var failures []error
	for _, v := range o.Check(ctx, tasks) {
		switch {
		case v.Err != nil:
			failures = append(failures, v.Err)
		case v.Stale:
			stale = append(stale, v.Task)
		}
	}
	return stale, failures
}
