package syntax

import (
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for pattern matching.
var (
	errNilLanguage = errors.New("tree-sitter language is nil")
	errNilQueryArg = errors.New("query or tree is nil")
)

var matchers sync.Map

// Match is one pattern match: capture names mapped to node views of the
// generation the match was taken from.
type Match map[string]*Node

// PatternMatcher compiles tree-sitter S-expression patterns for one dialect
// and caches the compiled queries.
type PatternMatcher struct {
	cache  map[string]*sitter.Query
	lang   *sitter.Language
	mu     sync.RWMutex
	hits   int64
	misses int64
}

// NewPatternMatcher creates a PatternMatcher with an empty cache.
func NewPatternMatcher(lang *sitter.Language) *PatternMatcher {
	return &PatternMatcher{
		cache: make(map[string]*sitter.Query),
		lang:  lang,
	}
}

// MatcherFor returns the shared PatternMatcher of a dialect.
func MatcherFor(dialect Dialect) (*PatternMatcher, error) {
	if cached, ok := matchers.Load(dialect); ok {
		pm, castOK := cached.(*PatternMatcher)
		if castOK {
			return pm, nil
		}
	}

	lang := dialect.language()
	if lang == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	actual, _ := matchers.LoadOrStore(dialect, NewPatternMatcher(lang))

	pm, ok := actual.(*PatternMatcher)
	if !ok {
		return nil, errPoolType
	}

	return pm, nil
}

// CompileAndCache compiles a pattern and caches the result.
func (pm *PatternMatcher) CompileAndCache(pattern string) (*sitter.Query, error) {
	pm.mu.RLock()

	if cachedQuery, ok := pm.cache[pattern]; ok {
		pm.hits++
		pm.mu.RUnlock()

		return cachedQuery, nil
	}

	pm.mu.RUnlock()

	if pm.lang == nil {
		return nil, errNilLanguage
	}

	compiled, err := sitter.NewQuery(pm.lang, []byte(pattern))
	if err != nil {
		return nil, fmt.Errorf("tree-sitter query compilation failed: %w", err)
	}

	pm.mu.Lock()
	pm.cache[pattern] = compiled
	pm.misses++
	pm.mu.Unlock()

	return compiled, nil
}

// CacheStats returns the number of cache hits and misses.
func (pm *PatternMatcher) CacheStats() (hits, misses int64) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return pm.hits, pm.misses
}

// Match runs a pattern over the current generation and returns every match in
// document order. Captures of anonymous tokens are left out.
func (t *Tree) Match(pattern string) ([]Match, error) {
	pm, err := MatcherFor(t.dialect)
	if err != nil {
		return nil, err
	}

	query, err := pm.CompileAndCache(pattern)
	if err != nil {
		return nil, err
	}

	if query == nil || t.ts == nil {
		return nil, errNilQueryArg
	}

	cursor := sitter.NewQueryCursor()
	matches := cursor.Matches(query, t.ts.RootNode(), t.src)

	var out []Match

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		captured := make(Match, len(match.Captures))

		for _, capture := range match.Captures {
			if view := t.nodeFor(capture.Node); view != nil {
				captured[query.CaptureNameForID(capture.Index)] = view
			}
		}

		out = append(out, captured)
	}

	return out, nil
}
