// Package schema validates commerce API payloads and normalized snapshots.
//
// Field constraints are declared with `validate` struct tags on the wire and
// domain types; cross-field invariants (derived color/size axes, non-negative
// money) are registered here as struct-level rules. Validation never mutates
// its input and never performs I/O.
package schema

import (
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// Validator checks values against their declared schema.
// It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the storefront rules registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	// Registration only fails on empty tag names.
	_ = v.RegisterValidation("amount", isAmount)

	v.RegisterStructValidation(moneyRule, catalog.Money{})
	v.RegisterStructValidation(variantRule, catalog.Variant{})
	v.RegisterStructValidation(productRule, catalog.Product{})
	v.RegisterStructValidation(merchandiseRule, catalog.Merchandise{})

	return &Validator{v: v}
}

// Validate checks value, a struct or pointer to struct, and returns a
// *ValidationError naming every violated field. entity labels the error.
func (s *Validator) Validate(entity string, value any) error {
	err := s.v.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrapf(err, "validate %s", entity)
	}

	out := &ValidationError{Entity: entity, Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:      trimRoot(fe.Namespace()),
			Constraint: fe.Tag(),
			Param:      fe.Param(),
			Message:    describe(fe.Tag(), fe.Param()),
		})
	}
	return out
}

// jsonFieldName reports fields by their JSON name so errors match the payload.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// isAmount accepts non-negative decimal strings such as "19.99".
func isAmount(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}

// trimRoot drops the top-level type name from a validator namespace.
func trimRoot(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func describe(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "gt":
		if param == "0" {
			return "must be a positive integer"
		}
		return "must be greater than " + param
	case "gte":
		if param == "0" {
			return "must be a non-negative integer"
		}
		return "must be greater than or equal to " + param
	case "amount":
		return "must be a non-negative decimal string"
	case tagNonNegative:
		return "must not be negative"
	case tagDerived:
		return "does not match the " + param + " option"
	case tagMember:
		return "is not one of the product's " + param + " values"
	default:
		return "failed " + tag + " constraint"
	}
}
