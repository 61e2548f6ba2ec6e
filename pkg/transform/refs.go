package transform

import (
	"fmt"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// referencesTo returns the nodes outside import declarations that refer to
// local: identifiers, shorthand properties, type names and JSX tag names.
func referencesTo(tree *syntax.Tree, local string) []*syntax.Node {
	var refs []*syntax.Node

	tree.Root().Walk(func(n *syntax.Node) bool {
		if n.Kind == syntax.KindImportDecl {
			return false
		}

		if n.Kind.IsReference() && n.Text() == local {
			refs = append(refs, n)
		}

		return true
	})

	return refs
}

// References counts the references to local outside import declarations.
func References(tree *syntax.Tree, local string) int {
	return len(referencesTo(tree, local))
}

// RenameReferences rewrites every reference to from so it refers to to.
// Shorthand properties keep their key: { from } becomes { from: to }.
// It returns the number of rewritten references.
func RenameReferences(tree *syntax.Tree, from, to string) (int, error) {
	if from == "" || to == "" {
		return 0, ErrEmptyName
	}

	if from == to {
		return 0, nil
	}

	refs := referencesTo(tree, from)
	if len(refs) == 0 {
		return 0, nil
	}

	err := tree.Edit(func(ed *syntax.Editor) error {
		for _, ref := range refs {
			if ref.Kind == syntax.KindShorthandProperty {
				ed.Replace(ref, syntax.PropertyText(from, to))

				continue
			}

			ed.Replace(ref, to)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return len(refs), nil
}
