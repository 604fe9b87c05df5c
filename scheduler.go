package toolbake

import "sync"

// scheduler serializes handler invocations for one instance: at most one
// handler body is in flight at any time, because handlers rely on unguarded
// retained state. Triggers fired while running coalesce into a single pending
// slot (last write wins); the snapshot is taken when the invocation starts,
// so a coalesced run always sees full current state, never a stale delta.
type scheduler struct {
	inst *Instance

	mu      sync.Mutex
	running bool
	pending *string // coalesced trigger id, nil when the queue is empty
	closed  bool
}

func newScheduler(inst *Instance) *scheduler {
	return &scheduler{inst: inst}
}

// trigger enqueues an immediate-class invocation. If one is already running,
// the request is queued (replacing any queued predecessor) and starts only
// after the current one settles. The call itself never blocks on handler
// execution.
func (s *scheduler) trigger(widgetID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrInstanceClosed
	}
	if s.running {
		id := widgetID
		s.pending = &id
		s.mu.Unlock()
		return nil
	}
	if err := s.inst.platform.beginRun(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.running = true
	s.mu.Unlock()
	go s.runLoop(widgetID)
	return nil
}

// runLoop drains the pending slot: it runs the triggering invocation, then
// the coalesced one if a trigger arrived meanwhile, until the slot is empty.
// Teardown drops the pending slot; the invocation already running finishes
// and its result is discarded by the closed store.
func (s *scheduler) runLoop(trigger string) {
	defer s.inst.platform.endRun()
	for {
		inv := Invocation{Trigger: trigger, Inputs: s.inst.snapshot()}
		_ = s.inst.exec.run(s.inst.ctx, inv)

		s.mu.Lock()
		if s.pending != nil && !s.closed {
			trigger = *s.pending
			s.pending = nil
			s.mu.Unlock()
			continue
		}
		s.running = false
		s.mu.Unlock()
		return
	}
}

// close cancels any queued (not yet started) invocation.
func (s *scheduler) close() {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	s.mu.Unlock()
}
