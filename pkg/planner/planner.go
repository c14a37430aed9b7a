package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/logger"
)

type Planner struct {
	prober      Prober
	logger      logger.Logger
	concurrency int
}

// NewPlanner creates a planner. A concurrency of zero or less probes every
// input at once.
func NewPlanner(prober Prober, logger logger.Logger, concurrency int) *Planner {
	return &Planner{
		prober:      prober,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Plan probes every input and builds its task. Inputs that cannot be probed
// are left out of the returned tasks and reported in the error slice instead.
func (p *Planner) Plan(ctx context.Context, inputs []InputSpec, sizes []int) ([]FileTask, []error) {
	if sizes == nil {
		return nil, []error{errs.Configf("No outputSizes configured")}
	}

	type planned struct {
		task FileTask
		err  error
	}
	results := make([]planned, len(inputs))

	var sem chan struct{}
	if p.concurrency > 0 {
		sem = make(chan struct{}, p.concurrency)
	}
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in InputSpec) {
			defer wg.Done()

			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			width, err := p.prober.Width(ctx, in.InputPath)
			if err != nil {
				results[idx].err = errs.Wrap(errs.ErrProbe, in.InputPath, err)
				return
			}

			task, err := NewFileTask(in, width, sizes)
			if err != nil {
				results[idx].err = errs.Wrap(errs.ErrProbe, in.InputPath, err)
				return
			}
			results[idx].task = task
		}(i, input)
	}
	wg.Wait()

	var tasks []FileTask
	var failures []error
	for _, r := range results {
		if r.err != nil {
			p.logger.Error("probe", "", r.err)
			failures = append(failures, r.err)
			continue
		}
		p.logger.Debug(fmt.Sprintf("planned %s: width %d, %d outputs", r.task.Input.InputPath, r.task.NativeWidth, len(r.task.Outputs)))
		tasks = append(tasks, r.task)
	}

	return tasks, failures
}
