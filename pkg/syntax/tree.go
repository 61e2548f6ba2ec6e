// Package syntax is the syntax tree facade of the migration engine. It parses
// JavaScript-family sources with tree-sitter, exposes the result as a tree of
// kind-tagged node views, and applies text-level edits that are re-parsed into
// a fresh tree generation.
package syntax

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for tree operations.
var (
	ErrUnknownDialect   = errors.New("unknown dialect")
	ErrSyntax           = errors.New("syntax error")
	ErrNoRootNode       = errors.New("parser returned no root node")
	ErrStaleNode        = errors.New("node belongs to an older tree generation")
	ErrOverlappingEdits = errors.New("overlapping edits")
	errPoolType         = errors.New("parser pool returned unexpected type")
)

// fieldsByType lists the grammar fields recorded for each node type.
var fieldsByType = map[string][]string{
	"import_statement":               {"source"},
	"import_specifier":               {"name", "alias"},
	"export_specifier":               {"name", "alias"},
	"export_statement":               {"declaration", "source"},
	"new_expression":                 {"constructor", "arguments"},
	"call_expression":                {"function", "arguments"},
	"member_expression":              {"object", "property"},
	"pair":                           {"key", "value"},
	"variable_declarator":            {"name", "value"},
	"function_declaration":           {"name", "parameters"},
	"generator_function_declaration": {"name", "parameters"},
	"class_declaration":              {"name"},
	"method_definition":              {"name"},
	"arrow_function":                 {"parameter", "parameters"},
	"catch_clause":                   {"parameter"},
}

var parserPools sync.Map

// Tree is one parsed source file. It is mutable through Edit and owned by a
// single transformation run; it is not safe for concurrent use.
type Tree struct {
	ts      *sitter.Tree
	root    *Node
	index   map[spanKey]*Node
	dialect Dialect
	src     []byte
	gen     uint64
}

// Snapshot is a saved tree state that Restore can return to.
type Snapshot struct {
	src []byte
	gen uint64
}

type spanKey struct {
	typ        string
	start, end int
}

// Parse parses src with the dialect's grammar. Sources containing syntax
// errors are rejected with ErrSyntax.
func Parse(ctx context.Context, src []byte, dialect Dialect) (*Tree, error) {
	tree := &Tree{dialect: dialect}

	err := tree.reset(ctx, bytes.Clone(src))
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// Dialect returns the dialect the tree was parsed with.
func (t *Tree) Dialect() Dialect {
	return t.dialect
}

// Root returns the program node of the current generation.
func (t *Tree) Root() *Node {
	return t.root
}

// Source returns a copy of the current source text.
func (t *Tree) Source() []byte {
	return bytes.Clone(t.src)
}

// Generation identifies the current committed state. It changes on every edit.
func (t *Tree) Generation() uint64 {
	return t.gen
}

// Find returns the nodes of the given kind in document order accepted by match.
func (t *Tree) Find(kind Kind, match func(*Node) bool) []*Node {
	return t.root.Find(kind, match)
}

// FindAll returns every node of the given kind in document order.
func (t *Tree) FindAll(kind Kind) []*Node {
	return t.root.Find(kind, nil)
}

// TopLevel returns the statements directly under the program node.
func (t *Tree) TopLevel() []*Node {
	return t.root.Children
}

// Snapshot captures the current state.
func (t *Tree) Snapshot() Snapshot {
	return Snapshot{src: t.src, gen: t.gen}
}

// Restore returns the tree to a snapshot. Nodes from before the call are stale.
func (t *Tree) Restore(snap Snapshot) error {
	if snap.gen == t.gen {
		return nil
	}

	return t.reset(context.Background(), snap.src)
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.ts != nil {
		t.ts.Close()
		t.ts = nil
	}
}

// owns reports whether n is a live view of this tree.
func (t *Tree) owns(n *Node) error {
	if n == nil || n.tree != t || n.gen != t.gen {
		return ErrStaleNode
	}

	return nil
}

// nodeFor maps a tree-sitter node of the current generation to its view.
func (t *Tree) nodeFor(tsNode sitter.Node) *Node {
	if tsNode.IsNull() {
		return nil
	}

	return t.index[spanKey{typ: tsNode.Type(), start: int(tsNode.StartByte()), end: int(tsNode.EndByte())}]
}

// reset parses src and, on success, commits it as the next generation.
func (t *Tree) reset(ctx context.Context, src []byte) error {
	lang := t.dialect.language()
	if lang == nil {
		return fmt.Errorf("%w: %q", ErrUnknownDialect, t.dialect)
	}

	tsParser, err := acquireParser(t.dialect, lang)
	if err != nil {
		return err
	}
	defer releaseParser(t.dialect, tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s source: %w", t.dialect, err)
	}

	tsRoot := tsTree.RootNode()
	if tsRoot.IsNull() {
		tsTree.Close()

		return ErrNoRootNode
	}

	gen := t.gen + 1
	b := &builder{tree: t, src: src, gen: gen, index: make(map[spanKey]*Node)}
	root := b.convert(tsRoot, nil)

	if b.firstError != nil {
		tsTree.Close()

		return fmt.Errorf("%w at %d:%d", ErrSyntax, b.firstError.Pos.Line, b.firstError.Pos.Column)
	}

	t.Close()

	t.ts = tsTree
	t.root = root
	t.index = b.index
	t.src = src
	t.gen = gen

	return nil
}

func acquireParser(dialect Dialect, lang *sitter.Language) (*sitter.Parser, error) {
	poolVal, _ := parserPools.LoadOrStore(dialect, &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	})

	pool, ok := poolVal.(*sync.Pool)
	if !ok {
		return nil, errPoolType
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	return tsParser, nil
}

func releaseParser(dialect Dialect, tsParser *sitter.Parser) {
	if poolVal, ok := parserPools.Load(dialect); ok {
		if pool, castOK := poolVal.(*sync.Pool); castOK {
			pool.Put(tsParser)
		}
	}
}

// builder converts a tree-sitter tree into node views.
type builder struct {
	tree       *Tree
	firstError *Node
	index      map[spanKey]*Node
	src        []byte
	gen        uint64
}

func (b *builder) convert(tsNode sitter.Node, parent *Node) *Node {
	start := tsNode.StartPoint()
	typ := tsNode.Type()

	n := &Node{
		Parent: parent,
		tree:   b.tree,
		src:    b.src,
		Type:   typ,
		Kind:   classify(typ),
		Start:  int(tsNode.StartByte()),
		End:    int(tsNode.EndByte()),
		Pos:    Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		gen:    b.gen,
	}

	if n.Kind == KindError && b.firstError == nil {
		b.firstError = n
	}

	b.index[spanKey{typ: typ, start: n.Start, end: n.End}] = n

	childCount := tsNode.NamedChildCount()
	n.Children = make([]*Node, 0, childCount)

	for idx := range childCount {
		n.Children = append(n.Children, b.convert(tsNode.NamedChild(idx), n))
	}

	b.attachFields(tsNode, n)

	return n
}

// attachFields records grammar fields by matching each field child to the
// already converted named child with the same span and type.
func (b *builder) attachFields(tsNode sitter.Node, n *Node) {
	names, ok := fieldsByType[n.Type]
	if !ok {
		return
	}

	for _, name := range names {
		fieldNode := tsNode.ChildByFieldName(name)
		if fieldNode.IsNull() {
			continue
		}

		fieldStart, fieldEnd, fieldType := int(fieldNode.StartByte()), int(fieldNode.EndByte()), fieldNode.Type()

		for _, child := range n.Children {
			if child.Start == fieldStart && child.End == fieldEnd && child.Type == fieldType {
				if n.fields == nil {
					n.fields = make(map[string]*Node, len(names))
				}

				n.fields[name] = child

				break
			}
		}
	}
}
