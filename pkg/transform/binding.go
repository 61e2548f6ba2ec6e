// Package transform holds the rule-independent transformation machinery:
// binding resolution, import synthesis, import pruning and the rule wrapper.
package transform

import (
	"strings"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// BindingKind is the shape of an import specifier.
type BindingKind uint8

// Binding kinds.
const (
	BindingDefault BindingKind = iota
	BindingNamed
	BindingNamespace
)

// String implements fmt.Stringer.
func (k BindingKind) String() string {
	switch k {
	case BindingDefault:
		return "default"
	case BindingNamed:
		return "named"
	case BindingNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// ImportBinding is one local name bound by an import declaration. TypeOnly
// bindings come from import type or an inline type specifier and have no
// runtime value.
type ImportBinding struct {
	Source   string
	Imported string
	Local    string
	Kind     BindingKind
	TypeOnly bool
}

// ResolveImport returns the bindings every top-level import of moduleSource
// introduces, in document order. A module that is not imported yields an
// empty list.
func ResolveImport(tree *syntax.Tree, moduleSource string) ([]ImportBinding, error) {
	if moduleSource == "" {
		return nil, ErrEmptySource
	}

	var bindings []ImportBinding

	for _, decl := range ImportDecls(tree, moduleSource) {
		bindings = append(bindings, DeclBindings(decl)...)
	}

	return bindings, nil
}

// DefaultLocal returns the local name of the default value binding,
// treating { default as X } like a default specifier.
func DefaultLocal(bindings []ImportBinding) (string, bool) {
	for _, b := range bindings {
		if b.TypeOnly {
			continue
		}

		if b.Kind == BindingDefault || (b.Kind == BindingNamed && b.Imported == "default") {
			return b.Local, true
		}
	}

	return "", false
}

// NamedLocal returns the local name a named export is bound to as a value.
func NamedLocal(bindings []ImportBinding, imported string) (string, bool) {
	for _, b := range bindings {
		if !b.TypeOnly && b.Kind == BindingNamed && b.Imported == imported {
			return b.Local, true
		}
	}

	return "", false
}

// ImportDecls returns the top-level import declarations of a source.
func ImportDecls(tree *syntax.Tree, moduleSource string) []*syntax.Node {
	var decls []*syntax.Node

	for _, stmt := range tree.TopLevel() {
		if stmt.Kind != syntax.KindImportDecl {
			continue
		}

		if source, ok := stmt.Field("source").StringValue(); ok && source == moduleSource {
			decls = append(decls, stmt)
		}
	}

	return decls
}

// allImportDecls returns every top-level import declaration.
func allImportDecls(tree *syntax.Tree) []*syntax.Node {
	var decls []*syntax.Node

	for _, stmt := range tree.TopLevel() {
		if stmt.Kind == syntax.KindImportDecl {
			decls = append(decls, stmt)
		}
	}

	return decls
}

// DeclBindings returns the bindings one import declaration introduces.
func DeclBindings(decl *syntax.Node) []ImportBinding {
	source, _ := decl.Field("source").StringValue()

	clause := decl.FirstChild(syntax.KindImportClause)
	if clause == nil {
		return nil
	}

	var bindings []ImportBinding

	typeOnly := typeOnlyImport(decl)

	for _, part := range clause.Children {
		switch part.Kind {
		case syntax.KindIdentifier:
			bindings = append(bindings, ImportBinding{
				Source: source, Kind: BindingDefault, Imported: "default", Local: part.Text(), TypeOnly: typeOnly,
			})
		case syntax.KindNamespaceImport:
			if id := part.FirstChild(syntax.KindIdentifier); id != nil {
				bindings = append(bindings, ImportBinding{
					Source: source, Kind: BindingNamespace, Imported: "*", Local: id.Text(), TypeOnly: typeOnly,
				})
			}
		case syntax.KindNamedImports:
			for _, spec := range part.Children {
				if spec.Kind != syntax.KindImportSpecifier {
					continue
				}

				imported, local := specifierNames(spec)
				bindings = append(bindings, ImportBinding{
					Source: source, Kind: BindingNamed, Imported: imported, Local: local,
					TypeOnly: typeOnly || typeOnlySpecifier(spec),
				})
			}
		default:
		}
	}

	return bindings
}

// specifierNames returns the imported and local names of an import specifier.
func specifierNames(spec *syntax.Node) (imported, local string) {
	name := spec.Field("name")

	imported = name.Text()
	if value, ok := name.StringValue(); ok {
		imported = value
	}

	local = imported
	if alias := spec.Field("alias"); alias != nil {
		local = alias.Text()
	}

	return imported, local
}

// typeOnlyImport reports whether decl is an import type or import typeof
// declaration. The modifier is an anonymous token, so it is read from the
// text ahead of the import clause.
func typeOnlyImport(decl *syntax.Node) bool {
	clause := decl.FirstChild(syntax.KindImportClause)
	if clause == nil {
		return false
	}

	head := strings.Fields(decl.Text()[:clause.Start-decl.Start])

	return len(head) == 2 && isTypeModifier(head[1])
}

// typeOnlySpecifier reports whether spec carries an inline type modifier, as
// in import { type RouteConfig }.
func typeOnlySpecifier(spec *syntax.Node) bool {
	name := spec.Field("name")
	if name == nil {
		return false
	}

	return isTypeModifier(strings.TrimSpace(spec.Text()[:name.Start-spec.Start]))
}

func isTypeModifier(word string) bool {
	return word == "type" || word == "typeof"
}
