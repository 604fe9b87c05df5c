package toolbake

import (
	"encoding/json"
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

// InputDecoder turns the scalar portion of an input snapshot into a typed
// struct T, validated against a JSON Schema generated from T's tags. Handlers
// that want typed arguments instead of picking Values apart by hand build one
// once (in the factory, so it lives in retained state) and call Decode per
// invocation. Validation failures come back as ValueError so they flow
// through the same channel as any other bad value.
type InputDecoder[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
}

// NewInputDecoder creates an InputDecoder for struct type T. Field names
// match widget ids through json tags; `description` and `enum` tags enrich
// the schema the same way they do in ToolDefinition.Describe.
func NewInputDecoder[T any]() (*InputDecoder[T], error) {
	schemaMap, resolved, err := generateSchema[T]()
	if err != nil {
		return nil, err
	}
	return &InputDecoder[T]{
		schemaMap: schemaMap,
		resolved:  resolved,
	}, nil
}

// Schema returns a shallow copy of the generated JSON Schema (top-level keys
// only). Nested maps are shared; callers must not mutate them.
func (d *InputDecoder[T]) Schema() map[string]any {
	return maps.Clone(d.schemaMap)
}

// Decode extracts the scalar widget values from inputs, validates them
// against the schema, and unmarshals into T. If T implements Validatable
// (value or pointer receiver), its Validate runs afterwards. File, files, and
// label values are skipped; handlers read those from the snapshot directly.
func (d *InputDecoder[T]) Decode(inputs Values) (T, error) {
	var zero T
	scalars := make(map[string]any, len(inputs))
	for id, v := range inputs {
		if j := scalarJSON(v); j != nil {
			scalars[id] = j
		}
	}
	data, err := json.Marshal(scalars)
	if err != nil {
		return zero, &ValueError{Reason: "encode inputs: " + err.Error(), Err: ErrInvalidWidgetValue}
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return zero, &ValueError{Reason: "decode inputs: " + err.Error(), Err: ErrInvalidWidgetValue}
	}
	if err := validateAgainstSchema(d.resolved, parsed); err != nil {
		return zero, err
	}
	var args T
	if err := json.Unmarshal(data, &args); err != nil {
		return zero, &ValueError{Reason: "decode inputs: " + err.Error(), Err: ErrInvalidWidgetValue}
	}
	if err := runCustomValidation(args); err != nil {
		if IsValueError(err) {
			return zero, err
		}
		return zero, &ValueError{Reason: err.Error(), Err: ErrInvalidWidgetValue}
	}
	return args, nil
}
