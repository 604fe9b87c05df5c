package toolbake

import (
	"context"
	"sync"
)

// Instance is one live mounted tool: it owns a widget value store, a
// dependency loader cache, the handler closure with its retained state, and
// the mounted fragments. Created by Platform.Open; destroyed by Close, at
// which point all fragments are unmounted and loader resources released.
type Instance struct {
	id       string
	tool     *ToolDefinition
	handler  Handler
	platform *Platform
	store    *Store
	loader   *Loader
	frags    *fragmentManager
	sched    *scheduler
	exec     *executor

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// ID returns the instance identifier assigned at Open.
func (in *Instance) ID() string { return in.id }

// Tool returns the name of the tool this instance runs.
func (in *Instance) Tool() string { return in.tool.name }

// BindContainer attaches a host container node to a label widget. Fragments
// for the widget render into it; until a container is bound, fragment values
// are stored but not mounted.
func (in *Instance) BindContainer(widgetID string, c Container) error {
	cw, ok := in.tool.widget(widgetID)
	if !ok {
		return &ValueError{Widget: widgetID, Reason: "no such widget", Err: ErrWidgetNotFound}
	}
	if cw.def.Kind != KindLabel {
		return &ValueError{
			Widget: widgetID,
			Reason: "containers bind to label widgets only",
			Err:    ErrInvalidWidgetValue,
		}
	}
	in.frags.bind(widgetID, c)
	return nil
}

// Get returns the current value for a widget id.
func (in *Instance) Get(id string) (Value, bool) { return in.store.Get(id) }

// Set commits a widget value from the host (a file picked, text typed, a
// gesture's settled position). It validates like any apply but is not a
// trigger and does not render fragments; call Trigger for immediate-class
// widgets afterwards.
func (in *Instance) Set(id string, v Value) error {
	return in.store.Apply(Values{id: v})
}

// Init fires the initial-load invocation (Trigger == TriggerInit).
func (in *Instance) Init() error {
	return in.sched.trigger(TriggerInit)
}

// Trigger schedules a handler invocation for an immediate-class widget event
// (file selection, button press, discrete select). It returns once the
// invocation is queued, not once it settles; invocations are strictly
// serialized per instance and queued triggers coalesce, last write wins.
func (in *Instance) Trigger(widgetID string) error {
	if _, ok := in.tool.widget(widgetID); !ok {
		return &ValueError{Widget: widgetID, Reason: "no such widget", Err: ErrWidgetNotFound}
	}
	return in.sched.trigger(widgetID)
}

// Close tears the instance down: the queued invocation (if any) is dropped,
// a running one finishes but its result is discarded, fragments are
// unmounted with their cleanups run, and loader resources are released.
// The instance context is cancelled so a cooperative handler may exit early.
// Close never blocks on a running handler; Platform.Shutdown does the
// waiting.
func (in *Instance) Close() {
	in.closeOnce.Do(func() {
		in.sched.close()
		in.store.close()
		in.cancel()
		in.frags.unmountAll()
		in.exec.runPrevCleanup()
		in.loader.close()
	})
}

// snapshot builds the frozen input snapshot for the next invocation: the
// store's input-kind values with each mounted container's side-state folded
// into the matching widget's Value.Interactive.
func (in *Instance) snapshot() Values {
	vals := in.store.Snapshot()
	for id, st := range in.frags.states() {
		v, ok := vals[id]
		if !ok {
			continue
		}
		v.Interactive = st
		vals[id] = v
	}
	return vals
}

// applyAndRender merges a partial update into the store and (re)mounts any
// label widget the update touched. A store rejection blocks the whole apply;
// a fragment behavior error is reported through the failure channel and does
// not prevent sibling widgets from rendering.
func (in *Instance) applyAndRender(partial Values) error {
	if err := in.store.Apply(partial); err != nil {
		return err
	}
	for id, v := range partial {
		if v.Kind != KindLabel {
			continue
		}
		if err := in.frags.mount(id, v.Fragment); err != nil {
			in.reportFailure(in.ctx, err)
		}
	}
	return nil
}

func (in *Instance) reportFailure(ctx context.Context, err error) {
	if fn := in.platform.opts.onFailure; fn != nil {
		fn(ctx, err)
	}
}
