package lang

import (
	"fmt"
	"math"
	"reflect"
)

// ConvertInputData normalizes host data into language values: every integer
// width becomes int64 (unsigned values beyond its range become float64),
// every float width float64, slices become lists,
// arrays become tuples, and maps become string-keyed dictionaries. Values
// that are already language values are returned unchanged.
func ConvertInputData(v any) any {
	switch t := v.(type) {
	case nil, bool, int64, float64, string, Tuple, *Set, Seq, Callable, MappingRule:
		return v
	case int:
		return int64(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ConvertInputData(item)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ConvertInputData(item)
		}

		return out
	}

	if v == NoValue {
		return v
	}

	return convertReflect(reflect.ValueOf(v))
}

func convertReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u)
		}

		return int64(u)
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}

		out := make([]any, rv.Len())
		for i := range out {
			out[i] = ConvertInputData(rv.Index(i).Interface())
		}

		return out
	case reflect.Array:
		out := make(Tuple, rv.Len())
		for i := range out {
			out[i] = ConvertInputData(rv.Index(i).Interface())
		}

		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}

		out := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().Interface()

			s, ok := key.(string)
			if !ok {
				s = fmt.Sprint(ConvertInputData(key))
			}

			out[s] = ConvertInputData(iter.Value().Interface())
		}

		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}

		return ConvertInputData(rv.Elem().Interface())
	default:
		return rv.Interface()
	}
}

// ConvertOutputData prepares an evaluation result for the host: sequences
// are drained (at most opts.LimitIterators elements), tuples and sets become
// lists as opts requests, recursively. Callables and other opaque values
// are returned unchanged.
func ConvertOutputData(v any, opts Options) (any, error) {
	switch t := v.(type) {
	case Seq:
		limited, err := LimitIterable(t, opts.LimitIterators)
		if err != nil {
			return nil, err
		}

		items, err := Collect(limited)
		if err != nil {
			return nil, err
		}

		return convertItems(items, opts)
	case Tuple:
		items, err := convertItems(t, opts)
		if err != nil || !opts.ConvertTuplesToLists {
			return Tuple(items), err
		}

		return items, nil
	case *Set:
		items, err := convertItems(t.items, opts)
		if err != nil || !opts.ConvertSetsToLists {
			return NewSet(items...), err
		}

		return items, nil
	case []any:
		return convertItems(t, opts)
	case map[string]any:
		out := make(map[string]any, len(t))

		for k, item := range t {
			c, err := ConvertOutputData(item, opts)
			if err != nil {
				return nil, err
			}

			out[k] = c
		}

		return out, nil
	case MappingRule:
		k, err := ConvertOutputData(t.Key, opts)
		if err != nil {
			return nil, err
		}

		val, err := ConvertOutputData(t.Value, opts)
		if err != nil {
			return nil, err
		}

		return MappingRule{Key: k, Value: val}, nil
	default:
		return v, nil
	}
}

func convertItems(items []any, opts Options) ([]any, error) {
	out := make([]any, len(items))

	for i, item := range items {
		c, err := ConvertOutputData(item, opts)
		if err != nil {
			return nil, err
		}

		out[i] = c
	}

	return out, nil
}
