package transform

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// maxRenameAttempts bounds the numbered candidates tried after new<Name>.
const maxRenameAttempts = 16

// renamePrefix is prepended to a colliding name to derive an alternative.
const renamePrefix = "new"

// SpecifierType is the shape of a requested import specifier.
type SpecifierType uint8

// Specifier types.
const (
	SpecifierDefault SpecifierType = iota
	SpecifierNamed
)

// Specifier describes the binding an ImportRequest asks for. Local defaults
// to Imported; a default specifier must name its Local.
type Specifier struct {
	Imported string
	Local    string
	Type     SpecifierType
}

// ImportRequest describes a desired import independent of what the file
// currently contains.
type ImportRequest struct {
	Source    string
	Specifier Specifier
}

// Named is a shorthand for a named import request.
func Named(source, imported string) ImportRequest {
	return ImportRequest{Source: source, Specifier: Specifier{Type: SpecifierNamed, Imported: imported}}
}

// EnsureImport makes sure the requested specifier is imported and returns the
// local name it is bound to. An existing matching specifier is reused as is.
// Otherwise the local name is chosen so it does not collide with any name
// declared in the file, and the specifier is appended to an existing
// declaration of the source or a new declaration is inserted after the last
// import.
func EnsureImport(tree *syntax.Tree, req ImportRequest) (string, error) {
	if req.Source == "" {
		return "", ErrEmptySource
	}

	spec := req.Specifier
	if spec.Type == SpecifierDefault {
		spec.Imported = "default"
	}

	desired := spec.Local
	if desired == "" {
		desired = spec.Imported
	}

	if desired == "" || (spec.Type == SpecifierDefault && desired == "default") {
		return "", ErrEmptyName
	}

	bindings, err := ResolveImport(tree, req.Source)
	if err != nil {
		return "", err
	}

	if local, ok := existingLocal(bindings, spec); ok {
		return local, nil
	}

	local, err := FreeName(DeclaredNames(tree), desired)
	if err != nil {
		return "", err
	}

	err = tree.Edit(func(ed *syntax.Editor) error {
		insertSpecifier(ed, tree, req.Source, spec, local)

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("import %s from %q: %w", spec.Imported, req.Source, err)
	}

	return local, nil
}

func existingLocal(bindings []ImportBinding, spec Specifier) (string, bool) {
	if spec.Type == SpecifierDefault {
		return DefaultLocal(bindings)
	}

	return NamedLocal(bindings, spec.Imported)
}

// FreeName returns desired when it is not declared, otherwise the first free
// name of new<Desired>, new<Desired>2, new<Desired>3 and so on.
func FreeName(declared map[string]bool, desired string) (string, error) {
	if !declared[desired] {
		return desired, nil
	}

	base := renamePrefix + upperFirst(desired)
	candidate := base

	for attempt := 1; attempt <= maxRenameAttempts; attempt++ {
		if attempt > 1 {
			candidate = base + strconv.Itoa(attempt)
		}

		if !declared[candidate] {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s (last tried %s)", ErrCollisionUnresolved, desired, candidate)
}

func upperFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}

// DeclaredNames returns every name bound anywhere in the file: import
// locals, variables, functions, classes, parameters and type declarations.
// Scoping is ignored, so the set is a superset of the top-level bindings.
func DeclaredNames(tree *syntax.Tree) map[string]bool {
	names := make(map[string]bool)

	for _, decl := range allImportDecls(tree) {
		for _, b := range DeclBindings(decl) {
			names[b.Local] = true
		}
	}

	tree.Root().Walk(func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindVarDeclarator:
			collectPatternNames(n.Field("name"), names)
		case syntax.KindFunctionDecl, syntax.KindClassDecl:
			if name := n.Field("name"); name != nil {
				names[name.Text()] = true
			}
		case syntax.KindFormalParameters:
			collectPatternNames(n, names)
		default:
			collectOtherDeclaration(n, names)
		}

		return true
	})

	return names
}

// declarationTypes are grammar types whose first named child, when it is an
// identifier, is the declared name.
var declarationTypes = map[string]bool{
	"function_expression":        true,
	"function":                   true,
	"generator_function":         true,
	"function_signature":         true,
	"arrow_function":             true,
	"class":                      true,
	"abstract_class_declaration": true,
	"interface_declaration":      true,
	"type_alias_declaration":     true,
	"enum_declaration":           true,
	"module":                     true,
	"internal_module":            true,
	"import_alias":               true,
	"catch_clause":               true,
}

func collectOtherDeclaration(n *syntax.Node, names map[string]bool) {
	if !declarationTypes[n.Type] || len(n.Children) == 0 {
		return
	}

	first := n.Children[0]
	switch first.Kind {
	case syntax.KindIdentifier, syntax.KindTypeIdentifier:
		names[first.Text()] = true
	default:
		if n.Type == "catch_clause" {
			collectPatternNames(n.Field("parameter"), names)
		}
	}
}

// collectPatternNames records the identifiers a binding pattern introduces.
func collectPatternNames(pattern *syntax.Node, names map[string]bool) {
	pattern.Walk(func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindIdentifier, syntax.KindShorthandPattern:
			names[n.Text()] = true
		default:
		}

		return true
	})
}

// insertSpecifier queues the edit that binds local to spec from source.
func insertSpecifier(ed *syntax.Editor, tree *syntax.Tree, source string, spec Specifier, local string) {
	decls := ImportDecls(tree, source)

	if spec.Type == SpecifierDefault {
		if decl := extendableDefault(decls); decl != nil {
			prependDefault(ed, decl, local)

			return
		}

		insertDeclaration(ed, tree, source, local)

		return
	}

	text := syntax.ImportSpecifierText(spec.Imported, local)

	if decl, named := extendableNamed(decls); decl != nil {
		appendNamed(ed, decl, named, text)

		return
	}

	insertDeclaration(ed, tree, source, "{ "+text+" }")
}

// extendableNamed returns a value declaration of the source that can take
// another named specifier: one with a named list, a default-only clause or no
// clause. Type-only declarations never take value specifiers.
func extendableNamed(decls []*syntax.Node) (decl, named *syntax.Node) {
	var fallback *syntax.Node

	for _, d := range decls {
		if typeOnlyImport(d) {
			continue
		}

		clause := d.FirstChild(syntax.KindImportClause)
		if clause == nil {
			if fallback == nil {
				fallback = d
			}

			continue
		}

		if list := clause.FirstChild(syntax.KindNamedImports); list != nil {
			return d, list
		}

		if clause.FirstChild(syntax.KindNamespaceImport) == nil && fallback == nil {
			fallback = d
		}
	}

	return fallback, nil
}

// appendNamed adds a specifier to decl.
func appendNamed(ed *syntax.Editor, decl, named *syntax.Node, text string) {
	if named != nil {
		items := named.Items()
		if len(items) == 0 {
			ed.Replace(named, "{ "+text+" }")

			return
		}

		layout := syntax.LayoutOf(named)
		sep := ", "

		if layout.Multiline {
			sep = ",\n" + layout.Indent
		}

		ed.InsertAfter(items[len(items)-1], sep+text)

		return
	}

	clause := decl.FirstChild(syntax.KindImportClause)
	if clause != nil {
		ed.InsertAfter(clause, ", { "+text+" }")

		return
	}

	// Side-effect import.
	ed.InsertBefore(decl.Field("source"), "{ "+text+" } from ")
}

// extendableDefault returns a value declaration of the source without a
// default binding.
func extendableDefault(decls []*syntax.Node) *syntax.Node {
	for _, d := range decls {
		if typeOnlyImport(d) {
			continue
		}

		clause := d.FirstChild(syntax.KindImportClause)
		if clause == nil || clause.FirstChild(syntax.KindIdentifier) == nil {
			return d
		}
	}

	return nil
}

func prependDefault(ed *syntax.Editor, decl *syntax.Node, local string) {
	clause := decl.FirstChild(syntax.KindImportClause)
	if clause == nil {
		ed.InsertBefore(decl.Field("source"), local+" from ")

		return
	}

	ed.InsertBefore(clause, local+", ")
}

// insertDeclaration adds a new import declaration after the last import, or
// before the first statement of a file without imports.
func insertDeclaration(ed *syntax.Editor, tree *syntax.Tree, source, clause string) {
	quote, semi := importStyle(tree)
	text := "import " + clause + " from " + syntax.QuoteString(source, quote) + semi

	decls := allImportDecls(tree)
	if len(decls) > 0 {
		ed.InsertAfter(decls[len(decls)-1], "\n"+text)

		return
	}

	for _, stmt := range tree.TopLevel() {
		if stmt.Kind != syntax.KindComment {
			ed.InsertBefore(stmt, text+"\n")

			return
		}
	}

	ed.ReplaceRange(0, 0, text+"\n")
}

// importStyle returns the quote character and statement terminator used by
// the file's existing imports. Files without imports get single quotes and
// semicolons.
func importStyle(tree *syntax.Tree) (byte, string) {
	quote, semi := byte('\''), ";"

	decls := allImportDecls(tree)
	if len(decls) == 0 {
		return quote, semi
	}

	last := decls[len(decls)-1]
	if src := last.Field("source"); src != nil && strings.HasPrefix(src.Text(), `"`) {
		quote = '"'
	}

	if !strings.HasSuffix(last.Text(), ";") {
		semi = ""
	}

	return quote, semi
}
