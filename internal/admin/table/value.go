package table

import (
	"reflect"
	"strings"
)

// Value evaluates a column expression against a row. The expression is a
// dotted path whose first segment must be the model's item name; the
// remaining segments traverse struct fields and string-keyed maps, through
// pointers and interfaces. The second return is false when the path does not
// resolve, which sorting treats as an undefined cell.
func (m *Model) Value(row any, expr string) (any, bool) {
	segments := strings.Split(expr, ".")
	if len(segments) == 0 || segments[0] != m.itemName {
		return nil, false
	}

	v := reflect.ValueOf(row)
	for _, segment := range segments[1:] {
		var ok bool
		v, ok = resolveSegment(v, segment)
		if !ok {
			return nil, false
		}
	}

	return normalise(v)
}

func resolveSegment(v reflect.Value, segment string) (reflect.Value, bool) {
	v, ok := indirect(v)
	if !ok {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		key := reflect.ValueOf(segment).Convert(v.Type().Key())
		elem := v.MapIndex(key)
		if !elem.IsValid() {
			return reflect.Value{}, false
		}
		return elem, true
	case reflect.Struct:
		if field := v.FieldByName(segment); field.IsValid() {
			return field, true
		}
		// Exported fields are conventionally capitalised; expressions
		// use lower-case names.
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if strings.EqualFold(t.Field(i).Name, segment) && t.Field(i).IsExported() {
				return v.Field(i), true
			}
		}
		return reflect.Value{}, false
	default:
		return reflect.Value{}, false
	}
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func normalise(v reflect.Value) (any, bool) {
	v, ok := indirect(v)
	if !ok {
		return nil, false
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		if !v.CanInterface() {
			return nil, false
		}
		return v.Interface(), true
	}
}
