// Package taskrunner executes a solver's wave-ordered task queue,
// running every task within a wave concurrently (bounded by an
// internal/workpool.Pool) and moving to the next wave only once the
// current one finishes (spec.md §4.5/§5).
//
// Grounded on the teacher's pkg/apply/taskrunner.baseRunner.run, which
// drives a single task queue off a channel-select loop emitting
// ActionGroup Started/Finished events around each task; tc's version
// trades the teacher's one-task-at-a-time channel loop for a bounded
// fan-out per wave, since tc's tasks have no separate status-poller to
// interleave with.
package taskrunner

import (
	"context"
	"fmt"

	"github.com/tc-functors/tc/internal/workpool"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/deploy/task"
)

// Runner executes a plan of task waves against a shared task.Context.
type Runner struct {
	Pool *workpool.Pool
}

// New returns a Runner bounded to the given pool.
func New(pool *workpool.Pool) *Runner {
	return &Runner{Pool: pool}
}

// Run executes every wave in order, returning the first error any task
// in any wave produced. A wave's tasks always run to completion even
// after one of them fails, matching the solver's independence
// guarantee within a wave; the runner does not proceed to the next
// wave once a failure has been observed.
func (r *Runner) Run(ctx context.Context, waves [][]task.Task, tc *task.Context) error {
	for waveIdx, wave := range waves {
		groupName := fmt.Sprintf("wave-%d", waveIdx)
		for _, t := range wave {
			tc.Emit(event.Event{Type: event.ActionGroupType, ActionGroupEvent: event.ActionGroupEvent{
				GroupName: t.Name(), Action: t.Action(), Type: event.Started,
			}})
		}

		err := r.Pool.Run(ctx, len(wave), func(ctx context.Context, i int) error {
			return wave[i].Run(ctx, tc)
		})

		for _, t := range wave {
			tc.Emit(event.Event{Type: event.ActionGroupType, ActionGroupEvent: event.ActionGroupEvent{
				GroupName: t.Name(), Action: t.Action(), Type: event.Finished,
			}})
		}

		if err != nil {
			tc.Emit(event.Event{Type: event.ErrorType, ErrorEvent: event.ErrorEvent{Err: err}})
			return fmt.Errorf("%s: %w", groupName, err)
		}
	}
	return nil
}
