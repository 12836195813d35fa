package lang

import (
	"iter"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// NoValue marks an absent value: an omitted argument, a missing context
// entry, or "leave $ untouched" in [Statement.Evaluate].
var NoValue any = noValue{}

type noValue struct{}

func (noValue) String() string { return "<no value>" }

// Seq is a lazily produced sequence. A producer reports failure by yielding
// a nil value with a non-nil error and then stopping.
type Seq = iter.Seq2[any, error]

// Tuple is an immutable list, produced when host input data is frozen.
type Tuple []any

// MappingRule is the evaluated form of a "key => value" pair.
type MappingRule struct {
	Key   any
	Value any
}

// ContextResult is returned by payloads of definitions declared with
// ReturnsContext to thread an updated context back to the caller.
type ContextResult struct {
	Value   any
	Context Context
}

// Kind is a bitmask classifying language values.
type Kind uint16

const (
	KindNull Kind = 1 << iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindDict
	KindSet
	KindIterator
	KindCallable
	KindOther

	KindNumber   = KindInt | KindFloat
	KindIterable = KindList | KindSet | KindIterator
	KindAny      = KindNull | KindBool | KindNumber | KindString | KindList |
		KindDict | KindSet | KindIterator | KindCallable | KindOther
)

// KindOf classifies v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []any, Tuple:
		return KindList
	case map[string]any:
		return KindDict
	case *Set:
		return KindSet
	case Seq:
		return KindIterator
	case Callable:
		return KindCallable
	default:
		return KindOther
	}
}

// String returns the names of the kinds set in k joined by "|".
func (k Kind) String() string {
	names := []string{
		"null", "bool", "int", "float", "string", "list", "dict", "set",
		"iterator", "callable", "other",
	}

	if k == KindAny {
		return "any"
	}

	var part []string

	for i, name := range names {
		if k&(1<<i) != 0 {
			part = append(part, name)
		}
	}

	return strings.Join(part, "|")
}

// Set is an insertion-ordered collection of distinct values.
type Set struct {
	index map[string]int
	items []any
}

// NewSet returns a set holding the distinct values of items.
func NewSet(items ...any) *Set {
	s := &Set{index: make(map[string]int, len(items))}

	for _, v := range items {
		s.Add(v)
	}

	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set) Add(v any) bool {
	key := hashKey(v)
	if _, ok := s.index[key]; ok {
		return false
	}

	s.index[key] = len(s.items)
	s.items = append(s.items, v)

	return true
}

// Has reports whether v is a member of s.
func (s *Set) Has(v any) bool {
	_, ok := s.index[hashKey(v)]

	return ok
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order.
func (s *Set) Items() []any { return slices.Clone(s.items) }

// All iterates the members in insertion order.
func (s *Set) All() iter.Seq[any] { return slices.Values(s.items) }

// hashKey encodes v so that values equal under [Equal] share a key.
func hashKey(v any) string {
	var buf strings.Builder

	writeKey(&buf, v)

	return buf.String()
}

func writeKey(buf *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		buf.WriteByte('n')
	case bool:
		buf.WriteString("b" + strconv.FormatBool(t))
	case int64:
		buf.WriteString("i" + strconv.FormatInt(t, 10))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<63 {
			buf.WriteString("i" + strconv.FormatInt(int64(t), 10))
		} else {
			buf.WriteString("f" + strconv.FormatFloat(t, 'g', -1, 64))
		}
	case string:
		buf.WriteString("s" + strconv.Quote(t))
	case []any:
		writeListKey(buf, t)
	case Tuple:
		writeListKey(buf, t)
	case map[string]any:
		buf.WriteByte('{')

		for _, k := range sortedKeys(t) {
			buf.WriteString(strconv.Quote(k))
			buf.WriteByte(':')
			writeKey(buf, t[k])
			buf.WriteByte(',')
		}

		buf.WriteByte('}')
	case *Set:
		keys := make([]string, 0, t.Len())
		for k := range t.index {
			keys = append(keys, k)
		}

		slices.Sort(keys)
		buf.WriteString("<" + strings.Join(keys, ",") + ">")
	default:
		buf.WriteString("p" + strconv.Quote(Format(v)))
	}
}

func writeListKey(buf *strings.Builder, items []any) {
	buf.WriteByte('[')

	for _, item := range items {
		writeKey(buf, item)
		buf.WriteByte(',')
	}

	buf.WriteByte(']')
}

// Equal reports whether a and b are the same language value. Numbers compare
// by value across int and float; lists and tuples compare element-wise.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64, float64:
		if !isNumber(b) {
			return false
		}

		return compareNumbers(a, b) == 0
	case bool:
		y, ok := b.(bool)

		return ok && x == y
	case string:
		y, ok := b.(string)

		return ok && x == y
	case []any, Tuple:
		xs, _ := listItems(a)

		ys, ok := listItems(b)
		if !ok || len(xs) != len(ys) {
			return false
		}

		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}

		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}

		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}

		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.Len() != y.Len() {
			return false
		}

		for k := range x.index {
			if _, ok := y.index[k]; !ok {
				return false
			}
		}

		return true
	default:
		if a == nil || b == nil {
			return false
		}

		ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)

		return ta == tb && ta.Comparable() && a == b
	}
}

// Compare orders a and b. It reports false when the values are not mutually
// ordered (for example a string and a number).
func Compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64, float64:
		if !isNumber(b) {
			return 0, false
		}

		return compareNumbers(a, b), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}

		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}

		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case []any, Tuple:
		xs, _ := listItems(a)

		ys, ok := listItems(b)
		if !ok {
			return 0, false
		}

		for i := 0; i < len(xs) && i < len(ys); i++ {
			c, ok := Compare(xs[i], ys[i])
			if !ok {
				return 0, false
			}

			if c != 0 {
				return c, true
			}
		}

		return compareInts(len(xs), len(ys)), true
	default:
		return 0, false
	}
}

func compareNumbers(a, b any) int {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			return compareInts(x, y)
		}
	}

	x, y := toFloat(a), toFloat(b)

	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compareInts[T int | int64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return math.NaN()
	}
}

// Truthy reports the boolean interpretation of v: null, false, zero, and
// empty strings and collections are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case Tuple:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case *Set:
		return t.Len() > 0
	default:
		return v != NoValue
	}
}

// Len returns the length of a value with a known finite size.
func Len(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return len([]rune(t)), true
	case []any:
		return len(t), true
	case Tuple:
		return len(t), true
	case map[string]any:
		return len(t), true
	case *Set:
		return t.Len(), true
	default:
		return 0, false
	}
}

func listItems(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case Tuple:
		return t, true
	default:
		return nil, false
	}
}

// Iterate returns a sequence over the elements of v. Lists, tuples and sets
// yield their members, dictionaries their keys in sorted order, and
// sequences are returned as is. It reports false for other values.
func Iterate(v any) (Seq, bool) {
	var items []any

	switch t := v.(type) {
	case Seq:
		return t, true
	case []any:
		items = t
	case Tuple:
		items = t
	case *Set:
		items = t.items
	case map[string]any:
		for _, k := range sortedKeys(t) {
			items = append(items, k)
		}
	default:
		return nil, false
	}

	return func(yield func(any, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}, true
}

// Collect drains the iterable v into a list.
func Collect(v any) ([]any, error) {
	if items, ok := listItems(v); ok {
		return items, nil
	}

	seq, ok := Iterate(v)
	if !ok {
		return nil, ErrArgumentValue.Describe("%s is not iterable", KindOf(v))
	}

	var out []any

	for item, err := range seq {
		if err != nil {
			return nil, err
		}

		out = append(out, item)
	}

	return out, nil
}
