// Package engine ties the analysis components together behind the three
// tool operations: analyze_query, optimize_query and suggest_indexes.
// An Engine owns a bounded parse cache and carries no other state, so
// one value serves the CLI, the REPL and the HTTP layer concurrently.
package engine

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"sqlsage/internal/sqlast"
)

// DefaultCacheSize bounds the parse cache when the caller does not.
const DefaultCacheSize = 128

// Options configures an Engine. The zero value is usable.
type Options struct {
	// CacheSize bounds the parse cache. Non-positive selects
	// DefaultCacheSize.
	CacheSize int

	// Schema holds optional "table.column" type hints that sharpen
	// implicit-cast detection.
	Schema map[string]string
}

// Engine evaluates queries. Cached parse results are shared across
// calls; every transformation clones before changing a tree, so the
// sharing is safe.
type Engine struct {
	cache  *lru.Cache[string, *sqlast.Result]
	schema map[string]string
}

func New(opts Options) *Engine {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *sqlast.Result](size)
	if err != nil {
		// lru rejects only non-positive sizes, ruled out above
		panic(err)
	}
	return &Engine{cache: cache, schema: opts.Schema}
}

// parse resolves the dialect and returns the cached tree when the same
// query text was seen under the same requested dialect.
func (e *Engine) parse(sql, dialect string) (*sqlast.Result, error) {
	d, err := sqlast.ParseDialect(dialect)
	if err != nil {
		return nil, err
	}

	key := fingerprint(d, sql)
	if res, ok := e.cache.Get(key); ok {
		return res, nil
	}

	res, err := sqlast.Parse(sql, d)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, res)
	return res, nil
}

func fingerprint(dialect sqlast.Dialect, sql string) string {
	h := sha256.New()
	h.Write([]byte(dialect))
	h.Write([]byte("\n"))
	h.Write([]byte(sql))
	return hex.EncodeToString(h.Sum(nil))
}
