package lang

import (
	"errors"
	"iter"
	"log/slog"
	"runtime"
	"sync"
)

// Unlimited disables an iteration or memory quota.
const Unlimited = -1

// Sample is one term of a memory estimate: Count copies of Value.
type Sample struct {
	Value any
	Count int
}

// LimitIterable caps v at max elements. Values of known length are checked
// immediately; sequences are wrapped so that producing element max+1 fails
// with [ErrCollectionTooLarge]. A negative max disables the limit.
func LimitIterable(v any, limit int) (any, error) {
	if limit < 0 {
		return v, nil
	}

	seq, ok := v.(Seq)
	if !ok {
		if n, known := Len(v); known && KindOf(v) != KindString && n > limit {
			return nil, tooLarge(limit)
		}

		return v, nil
	}

	return limitSeq(seq, limit), nil
}

func limitSeq(seq Seq, limit int) Seq {
	return func(yield func(any, error) bool) {
		count := 0

		for item, err := range seq {
			if err != nil {
				yield(nil, err)

				return
			}

			if count >= limit {
				yield(nil, tooLarge(limit))

				return
			}

			count++

			if !yield(item, nil) {
				return
			}
		}
	}
}

func tooLarge(limit int) error {
	return ErrCollectionTooLarge.
		Describe("more than %d elements", limit).
		With(slog.Int("limit", limit))
}

// LimitMemoryUsage sums the estimated size of the samples and fails with
// [ErrMemoryQuotaExceeded] as soon as the running total exceeds quota.
// A quota of zero or less disables the check.
func LimitMemoryUsage(quota int, samples ...Sample) error {
	if quota <= 0 {
		return nil
	}

	total := 0

	for _, s := range samples {
		total += s.Count * SizeOf(s.Value)
		if total > quota {
			return ErrMemoryQuotaExceeded.
				Describe("estimated %d bytes exceeds quota of %d", total, quota).
				With(slog.Int("quota", quota), slog.Int("estimate", total))
		}
	}

	return nil
}

// Size estimate constants, in bytes.
const (
	sizeHeader  = 16 // Every value
	sizeScalar  = 8  // Payload of a number
	sizeSlot    = 8  // One element reference in a list
	sizeEntry   = 16 // One key/value reference pair in a dictionary or set
	sizeBuiltin = 64 // Opaque values: sequences, callables, host objects
)

// SizeOf estimates the memory retained by v. The estimate is shallow: a
// container accounts for its element references, not the elements they
// refer to, so the cost of building a collection grows linearly with its
// length regardless of what it holds.
func SizeOf(v any) int {
	switch t := v.(type) {
	case nil, bool, noValue:
		return sizeHeader
	case int64, float64:
		return sizeHeader + sizeScalar
	case string:
		return sizeHeader + len(t)
	case []any:
		return sizeHeader + sizeScalar + sizeSlot*len(t)
	case Tuple:
		return sizeHeader + sizeScalar + sizeSlot*len(t)
	case map[string]any:
		return 3*sizeHeader + sizeEntry*len(t)
	case *Set:
		return 3*sizeHeader + sizeEntry*t.Len()
	default:
		return sizeBuiltin
	}
}

// memo is the shared state of a memorized sequence.
type memo struct {
	mu     sync.Mutex
	source Seq
	quota  int
	buffer []any
	failed error
	done   bool
	next   func() (any, error, bool)
	stop   func()
}

// release ends the pull of the source. Later pulls only replay the buffer.
func (m *memo) release() {
	if m.stop != nil {
		m.stop()
	}

	m.next, m.stop = nil, nil
}

// pull returns element i, producing it from the source if it is not yet
// buffered.
func (m *memo) pull(i int) (any, error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < len(m.buffer) {
		return m.buffer[i], nil, true
	}

	if m.failed != nil {
		return nil, m.failed, true
	}

	if m.done {
		return nil, nil, false
	}

	if m.next == nil {
		m.next, m.stop = iter.Pull2(iter.Seq2[any, error](m.source))
		// A traversal abandoned midway leaves the source suspended until
		// the memo is collected.
		runtime.AddCleanup(m, func(stop func()) { stop() }, m.stop)
	}

	item, err, ok := m.next()

	switch {
	case !ok:
		m.done = true
		m.release()

		return nil, nil, false
	case err != nil:
		m.failed = err
		m.release()

		return nil, err, true
	}

	m.buffer = append(m.buffer, item)

	if err := LimitMemoryUsage(m.quota, Sample{Count: 1, Value: m.buffer}); err != nil {
		m.failed = err
		m.release()

		return nil, err, true
	}

	return item, nil, true
}

// Memorize returns a sequence that can be traversed any number of times while
// pulling each element of seq at most once. Elements are buffered as they
// are first produced; quota bounds the buffer as in [LimitMemoryUsage].
func Memorize(seq Seq, quota int) Seq {
	m := &memo{source: seq, quota: quota}

	return func(yield func(any, error) bool) {
		for i := 0; ; i++ {
			item, err, ok := m.pull(i)
			if !ok {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(item, nil) {
				return
			}
		}
	}
}

// Generate returns a sequence driven by produce, which is called repeatedly
// until it fails. A bare [ErrStopIteration] ends the sequence normally; any
// other failure, including a stop signal wrapped by a nested call, is
// yielded as the sequence's error.
func Generate(produce func() (any, error)) Seq {
	return func(yield func(any, error) bool) {
		for {
			item, err := produce()
			if err != nil {
				if !errors.Is(err, ErrStopIteration) || errors.Is(err, ErrWrapped) {
					yield(nil, err)
				}

				return
			}

			if !yield(item, nil) {
				return
			}
		}
	}
}

// Values returns a sequence over items.
func Values(items ...any) Seq {
	return func(yield func(any, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
