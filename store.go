package toolbake

import (
	"fmt"
	"slices"
	"sync"
)

// Store is the widget value store of one instance: typed key/value state with
// partial-merge apply semantics. Apply calls are ordered by the executor's
// single apply path; reads are synchronous under the store lock and reflect
// the latest applied state.
type Store struct {
	mu     sync.Mutex
	tool   *ToolDefinition
	values map[string]Value
	closed bool
}

func newStore(tool *ToolDefinition) *Store {
	return &Store{
		tool:   tool,
		values: make(map[string]Value, len(tool.widgets)),
	}
}

// Get returns the current value for a widget id.
func (s *Store) Get(id string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[id]
	return v, ok
}

// Apply merges a partial update key by key: each present key overwrites the
// stored value, absent keys are untouched. Every value is validated against
// its widget's declared kind and constraint schema before anything is
// mutated; one bad value blocks the whole call with a ValueError and leaves
// the store unchanged. After instance teardown Apply fails with
// ErrInstanceClosed so a finished-but-superseded result is discarded.
func (s *Store) Apply(partial Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrInstanceClosed
	}
	for id, v := range partial {
		cw, ok := s.tool.widget(id)
		if !ok {
			return &ValueError{Widget: id, Reason: "no such widget", Err: ErrWidgetNotFound}
		}
		if err := validateValue(cw, v); err != nil {
			return err
		}
	}
	for id, v := range partial {
		s.values[id] = v
	}
	return nil
}

// Snapshot returns a copy of the current values of all input-kind widgets.
// Reference payloads the runtime may touch later (Files, Interactive) are
// copied; file data and fragments are shared and treated as immutable.
func (s *Store) Snapshot() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Values)
	for id, v := range s.values {
		if cw, ok := s.tool.widget(id); ok && cw.def.Kind.IsInput() {
			out[id] = v
		}
	}
	return out.clone()
}

func (s *Store) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// validateValue checks a Value against the widget's declared kind, select
// options, and compiled constraint schema.
func validateValue(cw *compiledWidget, v Value) error {
	def := cw.def
	if v.Kind != def.Kind {
		return &ValueError{
			Widget: def.ID,
			Reason: fmt.Sprintf("kind mismatch: widget is %s, value is %s", def.Kind, v.Kind),
			Err:    ErrInvalidWidgetValue,
		}
	}
	switch def.Kind {
	case KindSelect:
		if len(def.Options) > 0 && !slices.Contains(def.Options, v.Text) {
			return &ValueError{
				Widget: def.ID,
				Reason: fmt.Sprintf("%q is not one of the select options", v.Text),
				Err:    ErrInvalidWidgetValue,
			}
		}
	case KindProgress:
		if v.Progress < 0 || v.Progress > 100 {
			return &ValueError{
				Widget: def.ID,
				Reason: fmt.Sprintf("progress %d out of range 0..100", v.Progress),
				Err:    ErrInvalidWidgetValue,
			}
		}
	case KindLabel:
		if v.Fragment == nil {
			return &ValueError{
				Widget: def.ID,
				Reason: "label value must carry a fragment",
				Err:    ErrInvalidWidgetValue,
			}
		}
		if err := validateFragment(def.ID, v.Fragment); err != nil {
			return err
		}
	}
	if cw.constraint != nil {
		if err := cw.constraint.Validate(scalarJSON(v)); err != nil {
			return &ValueError{Widget: def.ID, Reason: err.Error(), Err: ErrInvalidWidgetValue}
		}
	}
	return nil
}

func validateFragment(widgetID string, f *Fragment) error {
	hasScript := f.Script != ""
	hasAttach := f.Attach != nil
	if hasScript == hasAttach {
		return &ValueError{
			Widget: widgetID,
			Reason: "fragment must set exactly one of script and attach",
			Err:    ErrInvalidWidgetValue,
		}
	}
	return nil
}

// scalarJSON maps a scalar Value to the JSON-shaped Go value the schema
// validator expects.
func scalarJSON(v Value) any {
	switch v.Kind {
	case KindText, KindSelect:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}
