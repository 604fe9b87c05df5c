package toolbake

import (
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// WidgetDefinition is the static description of one widget: a named, typed
// input or output slot. Immutable for the life of every instance.
type WidgetDefinition struct {
	ID    string
	Kind  Kind
	Label string
	// Options restricts a KindSelect widget to the listed values.
	Options []string
	// Constraint is an optional raw JSON Schema applied to the widget's
	// scalar value on every apply (e.g. {"minimum": 0} for a number).
	// It is deep-copied and compiled once at definition time.
	Constraint map[string]any
}

// compiledWidget pairs a definition with its resolved constraint validator.
type compiledWidget struct {
	def        WidgetDefinition
	constraint *jsonschema.Resolved
}

// ToolDefinition describes one tool: its widgets and the factory producing
// the handler closure for each opened instance. Built by NewToolDefinition;
// immutable afterwards.
type ToolDefinition struct {
	name        string
	description string
	widgets     []WidgetDefinition
	byID        map[string]*compiledWidget
	factory     HandlerFactory
	opts        toolOptions
}

// NewToolDefinition validates the widget list and compiles constraint
// schemas. Widget ids must be unique and non-empty; factory must be non-nil;
// constraints are allowed on scalar kinds only (text, number, bool, select).
func NewToolDefinition(
	name, description string,
	widgets []WidgetDefinition,
	factory HandlerFactory,
	opts ...ToolOption,
) (*ToolDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name must not be empty")
	}
	if factory == nil {
		return nil, fmt.Errorf("tool %q: handler factory must not be nil", name)
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	td := &ToolDefinition{
		name:        name,
		description: description,
		widgets:     append([]WidgetDefinition(nil), widgets...),
		byID:        make(map[string]*compiledWidget, len(widgets)),
		factory:     factory,
		opts:        o,
	}
	for i := range td.widgets {
		w := &td.widgets[i]
		if w.ID == "" {
			return nil, fmt.Errorf("tool %q: widget %d has empty id", name, i)
		}
		if _, dup := td.byID[w.ID]; dup {
			return nil, fmt.Errorf("tool %q: duplicate widget id %q", name, w.ID)
		}
		if len(w.Options) > 0 && w.Kind != KindSelect {
			return nil, fmt.Errorf("tool %q: widget %q: options are only valid on select widgets", name, w.ID)
		}
		cw := &compiledWidget{def: *w}
		if w.Constraint != nil {
			if !w.Kind.isScalar() {
				return nil, fmt.Errorf("tool %q: widget %q: constraint schema is only valid on scalar widgets", name, w.ID)
			}
			schemaCopy, err := deepCopySchema(w.Constraint)
			if err != nil {
				return nil, fmt.Errorf("tool %q: widget %q: copy constraint: %w", name, w.ID, err)
			}
			stripSchemaIDs(schemaCopy)
			resolved, err := compileRawSchema(schemaCopy)
			if err != nil {
				return nil, fmt.Errorf("tool %q: widget %q: compile constraint: %w", name, w.ID, err)
			}
			w.Constraint = schemaCopy
			cw.def.Constraint = schemaCopy
			cw.constraint = resolved
		}
		td.byID[w.ID] = cw
	}
	return td, nil
}

func (td *ToolDefinition) Name() string        { return td.name }
func (td *ToolDefinition) Description() string { return td.description }

// Widgets returns a copy of the widget definitions in declaration order.
func (td *ToolDefinition) Widgets() []WidgetDefinition {
	return append([]WidgetDefinition(nil), td.widgets...)
}

// Describe returns a JSON Schema map of the tool's input widgets, for the
// shell to render a form or export the tool. The returned top-level map is a
// fresh copy; nested nodes of constraint schemas are shared and must not be
// mutated.
func (td *ToolDefinition) Describe() map[string]any {
	props := make(map[string]any)
	for _, w := range td.widgets {
		if !w.Kind.IsInput() {
			continue
		}
		props[w.ID] = kindSchema(w)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func (td *ToolDefinition) widget(id string) (*compiledWidget, bool) {
	cw, ok := td.byID[id]
	return cw, ok
}

func (td *ToolDefinition) timeout(fallback time.Duration) time.Duration {
	if td.opts.timeout > 0 {
		return td.opts.timeout
	}
	return fallback
}

func (td *ToolDefinition) Tags() []string  { return append([]string(nil), td.opts.tags...) }
func (td *ToolDefinition) Version() string { return td.opts.version }
