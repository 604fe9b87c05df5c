package toolbake

import "reflect"

// Validatable is implemented by argument structs that need custom business
// validation. Called after schema validation and unmarshaling in
// InputDecoder.Decode.
type Validatable interface {
	Validate() error
}

// schemaValidator validates a JSON-like value (e.g. map[string]any).
// *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// validateAgainstSchema runs schema validation on an already-parsed value.
func validateAgainstSchema(validate schemaValidator, v any) error {
	if err := validate.Validate(v); err != nil {
		return &ValueError{Reason: err.Error(), Err: ErrInvalidWidgetValue}
	}
	return nil
}

// validateCustom runs Validatable if args implements it.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// runCustomValidation runs Validatable.Validate() on args; if args does not
// implement Validatable, it tries &args for value types (pointer receiver).
// Never calls Validate twice for the same receiver.
func runCustomValidation[T any](args T) error {
	if err := validateCustom(any(args)); err != nil {
		return err
	}
	if _, ok := any(args).(Validatable); ok {
		return nil
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}
