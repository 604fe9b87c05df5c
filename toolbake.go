package toolbake

import "context"

// TriggerInit is the Trigger value of the initial-load invocation, fired by
// Instance.Init before the user has touched any widget.
const TriggerInit = ""

// Kind identifies the shape of a widget's value. Input kinds feed the handler
// snapshot; KindProgress is output-only. KindLabel is both: handlers write a
// Fragment into it, and its interactive side-state is folded back into the
// next snapshot.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindSelect
	KindFile
	KindFiles
	KindProgress
	KindLabel
)

var kindNames = [...]string{"text", "number", "bool", "select", "file", "files", "progress", "label"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsInput reports whether widgets of this kind appear in the input snapshot.
func (k Kind) IsInput() bool { return k != KindProgress }

// scalar kinds may carry a constraint schema (see WidgetDefinition.Constraint).
func (k Kind) isScalar() bool {
	return k == KindText || k == KindNumber || k == KindBool || k == KindSelect
}

// FileRef is an opaque handle to a file the host handed to a file widget.
// Data is shared, never copied; treat it as immutable once stored.
type FileRef struct {
	Name      string
	MediaType string
	Data      []byte
}

// Fragment is a handler-produced interactive UI payload for a label widget.
// Exactly one of Script and Attach must be set. Attach receives the bound
// Container and may return a cleanup function; the runtime guarantees cleanup
// runs exactly once, before the next mount or on instance teardown. Script is
// executed by the host-provided ScriptRunner (see WithScriptRunner); without
// one, mounting a Script fragment fails with ErrFragmentBehavior.
type Fragment struct {
	Content string
	Script  string
	Attach  func(c Container) (cleanup func(), err error)
}

// Value is the tagged value of one widget. Kind selects which payload field
// is meaningful; use the constructors (TextValue, FileValue, ...) rather than
// building Value literals. Interactive carries side-state captured off a
// mounted fragment's container; the runtime fills it when building snapshots
// and handlers read it to see the last settled gesture state.
type Value struct {
	Kind        Kind
	Text        string
	Number      float64
	Bool        bool
	File        *FileRef
	Files       []*FileRef
	Progress    int
	Fragment    *Fragment
	Interactive map[string]string
}

func TextValue(s string) Value    { return Value{Kind: KindText, Text: s} }
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Number: f} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func SelectValue(s string) Value  { return Value{Kind: KindSelect, Text: s} }
func FileValue(f *FileRef) Value  { return Value{Kind: KindFile, File: f} }
func FilesValue(f ...*FileRef) Value {
	return Value{Kind: KindFiles, Files: f}
}

// ProgressValue reports completion in percent; Apply rejects values outside 0..100.
func ProgressValue(pct int) Value { return Value{Kind: KindProgress, Progress: pct} }

// FragmentValue wraps a Fragment for a label widget.
func FragmentValue(f *Fragment) Value { return Value{Kind: KindLabel, Fragment: f} }

// Values is a partial mapping from widget id to Value. Applying it merges key
// by key: present keys overwrite, absent keys leave stored values untouched.
type Values map[string]Value

// clone copies the map and the per-value reference payloads the runtime may
// mutate later (Files slice, Interactive map). File data and Fragments are
// shared by reference and treated as immutable.
func (v Values) clone() Values {
	out := make(Values, len(v))
	for id, val := range v {
		if val.Files != nil {
			val.Files = append([]*FileRef(nil), val.Files...)
		}
		if val.Interactive != nil {
			st := make(map[string]string, len(val.Interactive))
			for k, s := range val.Interactive {
				st[k] = s
			}
			val.Interactive = st
		}
		out[id] = val
	}
	return out
}

// Invocation is the immutable snapshot a handler is called with. Trigger is
// the widget id that caused this invocation, or TriggerInit for the initial
// load. Inputs holds every input-kind widget's current Value, with interactive
// side-state already folded in.
type Invocation struct {
	Trigger string
	Inputs  Values
}

// Result is what a handler settles with. Values is a partial update (absent
// keys keep their stored value, so an unrelated widget is never re-rendered).
// Cleanup, if set, is the resource side-channel: the executor runs it before
// the *next* invocation's result is applied (or on instance teardown), so
// ephemeral resources from a superseded run are released exactly once.
type Result struct {
	Values  Values
	Cleanup func()
}

// Handler implements a tool's behavior against widget state. push may be
// called any number of times with a partial update before the handler
// returns; each push is applied to the store immediately and in call order,
// and the final Result.Values is applied last. push fails with
// ErrPushAfterSettle once the handler has returned. Handlers are trusted
// code; errors and panics are caught at the executor boundary and reported
// through the platform failure hook, never crashing the host.
type Handler func(ctx context.Context, inv Invocation, push func(Values) error) (Result, error)

// HandlerFactory builds the handler closure for one Instance. It runs once at
// Open; local variables it captures become the instance's retained state,
// surviving across invocations until teardown and never touched by the
// runtime. env exposes per-instance capabilities (dependency acquisition).
type HandlerFactory func(env *Env) Handler

// InvocationSummary is passed to the after-invocation hook
// (WithOnAfterInvoke) when an invocation finishes, success or failure.
// Pushes counts progress pushes that were applied; Updated lists the widget
// ids written by pushes and the final result, in first-write order.
type InvocationSummary struct {
	InstanceID string
	Tool       string
	Trigger    string
	Err        error
	Pushes     int
	Updated    []string
}
