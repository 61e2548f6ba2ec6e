package syntax

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	"github.com/alexaandru/go-sitter-forest/vue"
)

// Dialect selects the grammar used to parse a source file. It only affects how
// ambiguous syntax is read (JSX vs. angle-bracket type assertions, type annotations).
type Dialect string

// Supported dialects.
const (
	JavaScript Dialect = "javascript"
	TypeScript Dialect = "typescript"
	TSX        Dialect = "tsx"

	// Vue is the single-file component container grammar. It only locates
	// script blocks; ParseDialect and DialectForPath never return it.
	Vue Dialect = "vue"
)

// dialectAliases maps parser names used by codemod tooling to dialects.
var dialectAliases = map[string]Dialect{
	"javascript": JavaScript,
	"js":         JavaScript,
	"jsx":        JavaScript,
	"babylon":    JavaScript,
	"babel":      JavaScript,
	"flow":       JavaScript,
	"typescript": TypeScript,
	"ts":         TypeScript,
	"tsx":        TSX,
}

// extensionDialects maps file extensions to dialects.
var extensionDialects = map[string]Dialect{
	".js":  JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
	".jsx": JavaScript,
	".ts":  TypeScript,
	".mts": TypeScript,
	".cts": TypeScript,
	".tsx": TSX,
}

// languageFuncs maps dialects to their tree-sitter GetLanguage functions.
var languageFuncs = map[Dialect]func() unsafe.Pointer{
	JavaScript: javascript.GetLanguage,
	TypeScript: typescript.GetLanguage,
	TSX:        tsx.GetLanguage,
	Vue:        vue.GetLanguage,
}

var languageCache sync.Map

// ParseDialect resolves a dialect or parser alias. The empty string yields JavaScript.
func ParseDialect(name string) (Dialect, error) {
	if name == "" {
		return JavaScript, nil
	}

	dialect, ok := dialectAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}

	return dialect, nil
}

// DialectForPath returns the dialect implied by the file extension.
func DialectForPath(path string) (Dialect, bool) {
	dialect, ok := extensionDialects[strings.ToLower(filepath.Ext(path))]

	return dialect, ok
}

// String implements fmt.Stringer.
func (d Dialect) String() string {
	return string(d)
}

// language returns the tree-sitter Language for the dialect, or nil if unknown.
func (d Dialect) language() *sitter.Language {
	if cached, ok := languageCache.Load(d); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[d]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(d, lang)

	return lang
}
