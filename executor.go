package toolbake

import (
	"context"
	"errors"
	"sync"
	"time"
)

// executor invokes the handler for one instance: previous invocation's
// cleanup, then the handler body with the frozen snapshot and an ordered
// progress channel, then the final result apply. Pushes and the final apply
// share one mutex-ordered path so a later push always wins over an earlier
// one and the final result is applied last, never concurrently.
type executor struct {
	inst *Instance

	applyMu     sync.Mutex // orders progress applies and the final apply
	prevCleanup func()     // resource side-channel of the previous invocation
}

// run executes one invocation end to end. The returned error is also what
// lands in the InvocationSummary; it never escapes to the host shell (the
// scheduler discards it after hooks fire).
func (e *executor) run(ctx context.Context, inv Invocation) (err error) {
	inst := e.inst
	opts := inst.platform.opts

	timeout := inst.tool.timeout(opts.timeout)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	summary := InvocationSummary{
		InstanceID: inst.id,
		Tool:       inst.tool.name,
		Trigger:    inv.Trigger,
	}
	start := time.Now()
	// The after-invocation hook always fires with the final summary. The
	// recover defer is registered after it so it runs first on panic and sets
	// summary.Err before the hook reads it.
	defer func() {
		dur := time.Since(start)
		if summary.Err != nil {
			inst.reportFailure(ctx, summary.Err)
		}
		if opts.onAfter != nil {
			opts.onAfter(ctx, summary, dur)
		}
	}()
	var settled bool
	if opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				// A goroutine the panicked handler leaked must not be able to
				// push into a failed invocation.
				e.applyMu.Lock()
				settled = true
				e.applyMu.Unlock()
				summary.Err = &HandlerError{Tool: inst.tool.name, Err: &panicError{p: p}}
				err = summary.Err
			}
		}()
	}

	if opts.onBefore != nil {
		opts.onBefore(ctx, inst.id, inv)
	}

	// Resources of the superseded run are released before this run's result
	// lands, exactly once.
	e.runPrevCleanup()

	push := func(partial Values) error {
		e.applyMu.Lock()
		defer e.applyMu.Unlock()
		if settled {
			return ErrPushAfterSettle
		}
		if applyErr := inst.applyAndRender(partial); applyErr != nil {
			return applyErr
		}
		summary.Pushes++
		recordUpdated(&summary, partial)
		return nil
	}

	result, handlerErr := inst.handler(ctx, inv, push)

	e.applyMu.Lock()
	settled = true
	if handlerErr != nil {
		e.applyMu.Unlock()
		if errors.Is(handlerErr, ErrInstanceClosed) {
			// The handler observed teardown (e.g. a push failed); not a failure.
			return nil
		}
		summary.Err = &HandlerError{Tool: inst.tool.name, Err: handlerErr}
		return summary.Err
	}
	applyErr := inst.applyAndRender(result.Values)
	if applyErr == nil && result.Cleanup != nil {
		e.prevCleanup = result.Cleanup
	}
	e.applyMu.Unlock()

	if applyErr != nil {
		// The result never landed; release its resources right away rather
		// than stash a cleanup for state that does not exist.
		if result.Cleanup != nil {
			result.Cleanup()
		}
		if errors.Is(applyErr, ErrInstanceClosed) {
			// Torn down mid-flight: computed but discarded, not a failure.
			return nil
		}
		summary.Err = applyErr
		return summary.Err
	}
	recordUpdated(&summary, result.Values)
	return nil
}

// runPrevCleanup invokes the stored cleanup side-channel value exactly once.
func (e *executor) runPrevCleanup() {
	e.applyMu.Lock()
	cleanup := e.prevCleanup
	e.prevCleanup = nil
	e.applyMu.Unlock()
	if cleanup != nil {
		cleanup()
	}
}

func recordUpdated(summary *InvocationSummary, partial Values) {
	for id := range partial {
		found := false
		for _, u := range summary.Updated {
			if u == id {
				found = true
				break
			}
		}
		if !found {
			summary.Updated = append(summary.Updated, id)
		}
	}
}
