package executor

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/planner"
)

// Provision creates every output directory of every task. It returns only
// after all creations finished, so callers may render without racing a
// sibling's pending mkdir. Existing directories are not an error.
func Provision(ctx context.Context, tasks []planner.FileTask, limit int) error {
	dirs := planner.OutputDirectories(tasks)

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, dir := range dirs {
		dir := dir
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errs.Wrap(errs.ErrProvisioning, dir, fmt.Errorf("create directory: %w", err))
			}
			return nil
		})
	}

	return g.Wait()
}
