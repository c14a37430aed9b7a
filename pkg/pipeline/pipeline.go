// Package pipeline drives one incremental resize run: discovery, planning,
// directory provisioning, staleness filtering and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuya-takeyama/strict-image-resize/internal/walker"
	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/executor"
	"github.com/yuya-takeyama/strict-image-resize/pkg/logger"
	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
	"github.com/yuya-takeyama/strict-image-resize/pkg/render"
)

// DefaultExts are the input extensions used when Options.Exts is nil.
var DefaultExts = []string{"jpg", "webp", "png", "jpeg", "gif"}

type Options struct {
	InputDir  string
	OutputDir string
	// OutputSizes lists target widths. Nil means not configured and fails
	// validation; an empty slice renders only the pass-through copy.
	OutputSizes []int
	Exts        []string
	Excludes    []string
	// Concurrency bounds in-flight probes, directory creations and renders.
	// Zero leaves them unbounded.
	Concurrency int
	DryRun      bool

	JPEGQuality     int
	WebPQuality     int
	AnimatedCommand string

	Logger        logger.Logger
	Prober        planner.Prober
	CommandRunner render.CommandRunner
}

// Validate reports missing required options before any I/O happens.
func (o *Options) Validate() error {
	if o.OutputSizes == nil {
		return errs.Configf("No outputSizes configured")
	}
	if o.InputDir == "" {
		return errs.Configf("No input directory configured")
	}
	if o.OutputDir == "" {
		return errs.Configf("No output directory configured")
	}
	if o.Concurrency < 0 {
		return errs.Configf("concurrency must not be negative")
	}
	return nil
}

// Report describes what a run planned and did.
type Report struct {
	Tasks    []planner.FileTask
	Verdicts []planner.Verdict
	Stale    []planner.FileTask
	Results  []executor.Result
	Failures []error
}

// Rendered returns the outputs that were written successfully.
func (r *Report) Rendered() []executor.Result {
	var out []executor.Result
	for _, res := range r.Results {
		if res.Error == nil {
			out = append(out, res)
		}
	}
	return out
}

// Run executes one pass. Configuration, discovery and provisioning errors
// abort the run. Per-file probe, stat and render failures do not; they are
// collected in Report.Failures and joined into the returned error once every
// other file has finished.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = &logger.NullLogger{}
	}
	exts := opts.Exts
	if exts == nil {
		exts = DefaultExts
	}
	prober := opts.Prober
	if prober == nil {
		prober = render.ImageProber{}
	}

	w, err := walker.NewWalker(opts.InputDir, exts, opts.Excludes)
	if err != nil {
		return nil, err
	}
	paths, err := w.Walk()
	if err != nil {
		return nil, err
	}
	log.Debug(fmt.Sprintf("found %d input files under %s", len(paths), opts.InputDir))

	inputs := make([]planner.InputSpec, len(paths))
	for i, path := range paths {
		inputs[i] = planner.InputSpec{
			InputPath: path,
			InputDir:  opts.InputDir,
			OutputDir: opts.OutputDir,
		}
	}

	report := &Report{}

	tasks, failures := planner.NewPlanner(prober, log, opts.Concurrency).Plan(ctx, inputs, opts.OutputSizes)
	report.Tasks = tasks
	report.Failures = append(report.Failures, failures...)

	if !opts.DryRun {
		if err := executor.Provision(ctx, tasks, opts.Concurrency); err != nil {
			return report, err
		}
	}

	report.Verdicts = planner.NewOracle(nil).Check(ctx, tasks)
	for _, v := range report.Verdicts {
		switch {
		case v.Err != nil:
			log.Error("stat", v.Task.Input.InputPath, v.Err)
			report.Failures = append(report.Failures, v.Err)
		case v.Stale:
			report.Stale = append(report.Stale, v.Task)
		default:
			log.Skip(v.Task.Input.InputPath)
		}
	}

	if opts.DryRun {
		for _, task := range report.Stale {
			for _, out := range task.Outputs {
				log.Render(task.Input.InputPath, out.Path)
			}
		}
		return report, errors.Join(report.Failures...)
	}

	renderers := render.Set{
		Still: render.NewStillRenderer(render.Codec{
			JPEGQuality: opts.JPEGQuality,
			WebPQuality: opts.WebPQuality,
		}),
		Animated: render.NewAnimatedRenderer(opts.AnimatedCommand, opts.CommandRunner),
	}
	report.Results = executor.NewExecutor(renderers, log, opts.Concurrency).Execute(ctx, report.Stale)
	for _, failed := range executor.Failed(report.Results) {
		report.Failures = append(report.Failures, failed.Error)
	}

	return report, errors.Join(report.Failures...)
}
