package schema

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
)

// FieldError describes one violated constraint.
type FieldError struct {
	// Field is the JSON path of the offending value, e.g. "variants[0].price.amount".
	Field string
	// Constraint is the violated rule: "required", "gt", "amount", "type", ...
	Constraint string
	Param      string
	Message    string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + " " + f.Message
}

// ValidationError reports that a payload does not conform to the data model.
// Callers must not use any part of a payload that failed validation.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Entity)
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.String())
	}
	return b.String()
}

// Has reports whether field violated constraint.
func (e *ValidationError) Has(field, constraint string) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Constraint == constraint {
			return true
		}
	}
	return false
}

// FromDecodeError converts a JSON decoding failure of an entity into a
// *ValidationError when the payload had a value of the wrong type or was
// malformed. Other errors are wrapped unchanged.
func FromDecodeError(entity string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Entity: entity, Fields: []FieldError{{
			Field:      typeErr.Field,
			Constraint: "type",
			Param:      typeErr.Type.String(),
			Message:    "must be " + kindName(typeErr.Type) + ", got " + typeErr.Value,
		}}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ValidationError{Entity: entity, Fields: []FieldError{{
			Constraint: "json",
			Message:    "malformed JSON: " + syntaxErr.Error(),
		}}}
	}

	return errors.Wrapf(err, "decode %s", entity)
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
