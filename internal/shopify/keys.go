package shopify

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/merch-storefront/internal/schema"
)

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// checkKeyCase reports object keys in data that only match a field of t
// case-insensitively, e.g. "Handle" for "handle". encoding/json accepts them,
// the API never sends them.
func checkKeyCase(entity string, data []byte, t reflect.Type) error {
	w := keyWalker{}
	if err := w.walk(jx.DecodeBytes(data), t, ""); err != nil && w.bad == nil {
		return errors.Wrapf(err, "decode %s", entity)
	}
	if w.bad != nil {
		return &schema.ValidationError{Entity: entity, Fields: []schema.FieldError{*w.bad}}
	}
	return nil
}

var errKeyCase = errors.New("key case mismatch")

type keyWalker struct {
	bad *schema.FieldError
}

func (w *keyWalker) walk(d *jx.Decoder, t reflect.Type, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return d.Skip()
	}

	switch d.Next() {
	case jx.Object:
		if t.Kind() != reflect.Struct {
			return d.Skip()
		}
		fields := jsonFields(t)
		return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			name := string(key)
			if ft, ok := fields[name]; ok {
				return w.walk(d, ft, joinPath(path, name))
			}
			for want := range fields {
				if strings.EqualFold(want, name) {
					w.bad = &schema.FieldError{
						Field:      joinPath(path, name),
						Constraint: "key",
						Param:      want,
						Message:    "must be spelled " + strconv.Quote(want),
					}
					return errKeyCase
				}
			}
			return d.Skip()
		})
	case jx.Array:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return d.Skip()
		}
		i := 0
		return d.Arr(func(d *jx.Decoder) error {
			err := w.walk(d, t.Elem(), path+"["+strconv.Itoa(i)+"]")
			i++
			return err
		})
	default:
		return d.Skip()
	}
}

// jsonFields maps the JSON names of t's exported fields to their types.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = f.Type
	}
	return out
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
