package executor

import (
	"context"
	"sync"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/logger"
	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
	"github.com/yuya-takeyama/strict-image-resize/pkg/render"
)

type Executor struct {
	renderers   render.Set
	logger      logger.Logger
	concurrency int
}

// NewExecutor creates an executor. A concurrency of zero or less lets every
// file and every output run at once.
func NewExecutor(renderers render.Set, logger logger.Logger, concurrency int) *Executor {
	return &Executor{
		renderers:   renderers,
		logger:      logger,
		concurrency: concurrency,
	}
}

type Result struct {
	Input  planner.InputSpec
	Output planner.PlannedOutput
	Error  error
}

// Execute renders every planned output of every task and returns one result
// per output, grouped by task in input order. A failure never cancels
// sibling work.
func (e *Executor) Execute(ctx context.Context, tasks []planner.FileTask) []Result {
	offsets := make([]int, len(tasks))
	total := 0
	for i, task := range tasks {
		offsets[i] = total
		total += len(task.Outputs)
	}
	results := make([]Result, total)

	var sem chan struct{}
	if e.concurrency > 0 {
		sem = make(chan struct{}, e.concurrency)
	}
	acquire := func() func() {
		if sem == nil {
			return func() {}
		}
		sem <- struct{}{}
		return func() { <-sem }
	}

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(t planner.FileTask, results []Result) {
			defer wg.Done()
			e.executeTask(ctx, t, results, acquire)
		}(task, results[offsets[i]:offsets[i]+len(task.Outputs)])
	}
	wg.Wait()

	return results
}

func (e *Executor) executeTask(ctx context.Context, task planner.FileTask, results []Result, acquire func() func()) {
	for i, out := range task.Outputs {
		results[i] = Result{Input: task.Input, Output: out}
	}

	src, err := e.open(ctx, task, acquire)
	if err != nil {
		e.logger.Error("render", task.Input.InputPath, err)
		for i := range results {
			results[i].Error = errs.Wrap(errs.ErrRender, task.Input.InputPath, err)
		}
		return
	}

	var wg sync.WaitGroup
	for i, out := range task.Outputs {
		wg.Add(1)
		go func(idx int, out planner.PlannedOutput) {
			defer wg.Done()

			release := acquire()
			defer release()

			e.logger.Render(task.Input.InputPath, out.Path)
			if err := src.Render(ctx, out); err != nil {
				e.logger.Error("render", out.Path, err)
				results[idx].Error = errs.Wrap(errs.ErrRender, out.Path, err)
			}
		}(i, out)
	}
	wg.Wait()
}

// open holds a slot only while preparing the source so that the outputs it
// fans out to can acquire their own.
func (e *Executor) open(ctx context.Context, task planner.FileTask, acquire func() func()) (render.Source, error) {
	r, err := e.renderers.ForFormat(task.Format)
	if err != nil {
		return nil, err
	}

	release := acquire()
	defer release()
	return r.Open(ctx, task)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
