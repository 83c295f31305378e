// Package serialize turns typed resource property structs into the generic
// maps that make up a CloudFormation template.
//
// Property names come from json tags, so a field such as Type_ tagged "Type"
// is emitted as Type. Zero values are dropped. Intrinsics and other
// json.Marshaler values are emitted through their MarshalJSON. Numbers become
// int64, uint64 or float64 so that templates compare equal regardless of the
// Go field type.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Resource serializes the property struct v. It returns nil for anything
// that is not a struct or a pointer to one.
func Resource(v any) (map[string]any, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, nil
	}
	return structProperties(rv)
}

// Value serializes an arbitrary property or output value (intrinsic, struct,
// slice or scalar) to its JSON-compatible form.
func Value(v any) (any, error) {
	return convert(reflect.ValueOf(v))
}

func structProperties(rv reflect.Value) (map[string]any, error) {
	props := make(map[string]any)
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := propertyName(field)
		if name == "-" {
			continue
		}

		fv := rv.Field(i)
		if omitted(fv) {
			continue
		}

		out, err := convert(fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if out != nil {
			props[name] = out
		}
	}

	return props, nil
}

// propertyName is the json tag name, or the Go field name when untagged.
func propertyName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}
	return name
}

// omitted reports whether a field is left out of the properties. Structs are
// kept unless they report IsZero themselves.
func omitted(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		if z, ok := v.Interface().(interface{ IsZero() bool }); ok {
			return z.IsZero()
		}
		return false
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	default:
		return false
	}
}

func convert(v reflect.Value) (any, error) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, nil
	}

	if v.Type().Implements(marshalerType) {
		return viaJSON(v.Interface())
	}

	switch v.Kind() {
	case reflect.Struct:
		return structProperties(v)

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		items := make([]any, v.Len())
		for i := range items {
			item, err := convert(v.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		m := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			item, err := convert(iter.Value())
			if err != nil {
				return nil, err
			}
			m[fmt.Sprint(iter.Key().Interface())] = item
		}
		return m, nil

	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		return viaJSON(v.Interface())
	}
}

// viaJSON round-trips v through encoding/json into generic values.
func viaJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
