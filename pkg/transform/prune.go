package transform

import (
	"fmt"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// PruneIfUnused removes every import specifier binding local when nothing
// else in the file refers to it. Declarations left without specifiers are
// removed together with their line. It reports whether anything was removed.
func PruneIfUnused(tree *syntax.Tree, local string) (bool, error) {
	if local == "" {
		return false, ErrEmptyName
	}

	if References(tree, local) > 0 {
		return false, nil
	}

	var pruned bool

	err := tree.Edit(func(ed *syntax.Editor) error {
		for _, decl := range allImportDecls(tree) {
			if pruneDecl(ed, decl, local) {
				pruned = true
			}
		}

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("prune %s: %w", local, err)
	}

	return pruned, nil
}

// pruneDecl queues the removal of the parts of decl binding local.
func pruneDecl(ed *syntax.Editor, decl *syntax.Node, local string) bool {
	clause := decl.FirstChild(syntax.KindImportClause)
	if clause == nil {
		return false
	}

	var (
		deadParts []*syntax.Node
		deadSpecs []*syntax.Node
		liveParts int
	)

	for _, part := range clause.Items() {
		switch part.Kind {
		case syntax.KindIdentifier:
			if part.Text() == local {
				deadParts = append(deadParts, part)
			} else {
				liveParts++
			}
		case syntax.KindNamespaceImport:
			if part.FirstChild(syntax.KindIdentifier).IsIdentifier(local) {
				deadParts = append(deadParts, part)
			} else {
				liveParts++
			}
		case syntax.KindNamedImports:
			specs := part.Items()

			var dead []*syntax.Node

			for _, spec := range specs {
				if _, specLocal := specifierNames(spec); specLocal == local {
					dead = append(dead, spec)
				}
			}

			switch {
			case len(dead) == 0:
				liveParts++
			case len(dead) == len(specs):
				deadParts = append(deadParts, part)
			default:
				deadSpecs = append(deadSpecs, dead...)
				liveParts++
			}
		default:
			liveParts++
		}
	}

	if len(deadParts) == 0 && len(deadSpecs) == 0 {
		return false
	}

	if liveParts == 0 {
		ed.DeleteStatement(decl)

		return true
	}

	ed.DeleteListItems(deadSpecs...)
	ed.DeleteListItems(deadParts...)

	return true
}
