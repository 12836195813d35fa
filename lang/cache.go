package lang

import (
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// parseCache stores parsed statements keyed by the xxh3 hash of their
// source. Each engine owns its cache; copies made with [Engine.Copy] share
// it since they share the grammar.
type parseCache struct {
	entries sync.Map // map[uint64]*cacheEntry
}

// cacheEntry tracks parsing state for one source.
type cacheEntry struct {
	once   sync.Once
	source string
	stmt   *Statement
	err    error
}

func hashString(source string) string {
	return strconv.FormatUint(xxh3.HashString(source), 16)
}

// load returns the statement cached for source, parsing it with parse on a
// miss. hit reports whether the entry existed. Sources whose hashes collide
// with a cached entry are parsed without caching.
func (c *parseCache) load(
	source string,
	parse func() (*Statement, error),
) (stmt *Statement, hit bool, err error) {
	entry := &cacheEntry{source: source}

	value, hit := c.entries.LoadOrStore(xxh3.HashString(source), entry)

	cached, ok := value.(*cacheEntry)
	if !ok || cached.source != source {
		stmt, err := parse()

		return stmt, false, err
	}

	cached.once.Do(func() { cached.stmt, cached.err = parse() })

	return cached.stmt, hit, cached.err
}

// clear removes every cached statement.
func (c *parseCache) clear() {
	c.entries.Clear()
}

// ClearCache removes all statements cached by e.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.clear()
	}
}
