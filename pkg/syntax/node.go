package syntax

import (
	"strings"
)

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

// Node is a view of one named syntax node at a single tree generation.
// Nodes are not stable across mutation: once the tree is edited, every node
// obtained before the edit is stale and must be re-queried.
type Node struct {
	Parent   *Node
	Children []*Node
	fields   map[string]*Node
	tree     *Tree
	src      []byte
	Type     string
	Pos      Position
	Start    int
	End      int
	gen      uint64
	Kind     Kind
}

// Field returns the child stored under a grammar field name, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}

	return n.fields[name]
}

// Text returns the source text the node spans in its own generation.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}

	return string(n.src[n.Start:n.End])
}

// Stale reports whether the tree has been edited since the node was produced.
func (n *Node) Stale() bool {
	return n.tree == nil || n.gen != n.tree.gen
}

// Walk visits the subtree in document order. Returning false from fn skips
// the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}

	if !fn(n) {
		return
	}

	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the nodes of the given kind inside the subtree (including n)
// accepted by match. A nil match accepts every node of the kind.
func (n *Node) Find(kind Kind, match func(*Node) bool) []*Node {
	var found []*Node

	n.Walk(func(candidate *Node) bool {
		if candidate.Kind == kind && (match == nil || match(candidate)) {
			found = append(found, candidate)
		}

		return true
	})

	return found
}

// Ancestor returns the closest enclosing node of the given kind, or nil.
func (n *Node) Ancestor(kind Kind) *Node {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == kind {
			return cur
		}
	}

	return nil
}

// Items returns the named children of a list node, skipping comments.
func (n *Node) Items() []*Node {
	items := make([]*Node, 0, len(n.Children))

	for _, child := range n.Children {
		if child.Kind != KindComment {
			items = append(items, child)
		}
	}

	return items
}

// FirstChild returns the first named child of the given kind, or nil.
func (n *Node) FirstChild(kind Kind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}

	return nil
}

// IsIdentifier reports whether the node is a plain identifier with the given name.
func (n *Node) IsIdentifier(name string) bool {
	return n != nil && n.Kind == KindIdentifier && n.Text() == name
}

// StringValue returns the literal value of a string node or of a template
// literal without substitutions.
func (n *Node) StringValue() (string, bool) {
	if n == nil {
		return "", false
	}

	text := n.Text()

	switch {
	case n.Kind == KindString:
	case n.Type == "template_string":
		for _, child := range n.Children {
			if child.Type == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}

	const quotePair = 2
	if len(text) < quotePair {
		return "", false
	}

	return unescape(text[1 : len(text)-1]), true
}

func unescape(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}

	var sb strings.Builder

	escaped := false

	for _, r := range raw {
		if escaped {
			sb.WriteRune(r)

			escaped = false

			continue
		}

		if r == '\\' {
			escaped = true

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
