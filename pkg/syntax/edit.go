package syntax

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// textEdit replaces src[start:end] with text. Coordinates are byte offsets of
// the generation the Editor was opened on.
type textEdit struct {
	text       string
	start, end int
	seq        int
}

// Editor queues edits against one tree generation. Edits are applied together
// when the Edit callback returns.
type Editor struct {
	tree  *Tree
	err   error
	edits []textEdit
}

// Edit runs fn with an Editor, applies the queued edits in one pass and
// re-parses the result. The tree only changes if fn succeeds and the edited
// source parses; otherwise the previous generation stays current.
// Every node obtained before a successful Edit is stale afterwards.
func (t *Tree) Edit(fn func(ed *Editor) error) error {
	ed := &Editor{tree: t}

	err := fn(ed)
	if err != nil {
		return err
	}

	if ed.err != nil {
		return ed.err
	}

	if len(ed.edits) == 0 {
		return nil
	}

	out, err := applyEdits(t.src, ed.edits)
	if err != nil {
		return err
	}

	err = t.reset(context.Background(), out)
	if err != nil {
		return fmt.Errorf("re-parse after edit: %w", err)
	}

	return nil
}

// Replace replaces the text of n.
func (ed *Editor) Replace(n *Node, text string) {
	if ed.check(n) {
		ed.ReplaceRange(n.Start, n.End, text)
	}
}

// InsertBefore inserts text right before n.
func (ed *Editor) InsertBefore(n *Node, text string) {
	if ed.check(n) {
		ed.ReplaceRange(n.Start, n.Start, text)
	}
}

// InsertAfter inserts text right after n.
func (ed *Editor) InsertAfter(n *Node, text string) {
	if ed.check(n) {
		ed.ReplaceRange(n.End, n.End, text)
	}
}

// ReplaceRange replaces the byte range [start, end) of the current source.
func (ed *Editor) ReplaceRange(start, end int, text string) {
	if ed.err != nil {
		return
	}

	if start < 0 || end < start || end > len(ed.tree.src) {
		ed.err = fmt.Errorf("%w: range [%d, %d) outside source", ErrOverlappingEdits, start, end)

		return
	}

	if start == end && text == "" {
		return
	}

	ed.edits = append(ed.edits, textEdit{start: start, end: end, text: text, seq: len(ed.edits)})
}

// DeleteStatement removes a statement together with its line when nothing
// else shares that line.
func (ed *Editor) DeleteStatement(n *Node) {
	if !ed.check(n) {
		return
	}

	src := ed.tree.src
	start, end := n.Start, n.End

	lineStart := start
	for lineStart > 0 && isBlank(src[lineStart-1]) {
		lineStart--
	}

	lineEnd := end
	for lineEnd < len(src) && isBlank(src[lineEnd]) {
		lineEnd++
	}

	atLineStart := lineStart == 0 || src[lineStart-1] == '\n'
	atLineEnd := lineEnd == len(src) || src[lineEnd] == '\n'

	if atLineStart && atLineEnd {
		start = lineStart
		end = min(lineEnd+1, len(src))
	}

	ed.ReplaceRange(start, end, "")
}

// DeleteListItems removes items from a comma separated list (object
// properties, named imports, call arguments) keeping the separators of the
// surviving items valid. All items must share the same parent.
func (ed *Editor) DeleteListItems(items ...*Node) {
	if len(items) == 0 {
		return
	}

	parent := items[0].Parent
	for _, item := range items {
		if !ed.check(item) {
			return
		}

		if item.Parent != parent {
			ed.err = fmt.Errorf("%w: list items have different parents", ErrOverlappingEdits)

			return
		}
	}

	all := parent.Items()
	doomed := make(map[*Node]bool, len(items))

	for _, item := range items {
		doomed[item] = true
	}

	for idx := 0; idx < len(all); {
		if !doomed[all[idx]] {
			idx++

			continue
		}

		first := idx
		for idx < len(all) && doomed[all[idx]] {
			idx++
		}

		last := idx - 1
		ed.deleteRun(parent, all, first, last)
	}
}

// deleteRun removes all[first..last], borrowing the separator of a neighbour.
// Comments that sit on their own line next to the run survive.
func (ed *Editor) deleteRun(parent *Node, all []*Node, first, last int) {
	src := ed.tree.src

	switch {
	case last+1 < len(all):
		end := all[last+1].Start

		for _, comment := range commentsBetween(parent, all[last].End, end) {
			if strings.Contains(string(src[all[last].End:comment.Start]), "\n") {
				end = comment.Start

				break
			}
		}

		ed.ReplaceRange(all[first].Start, end, "")
	case first > 0 && len(commentsBetween(parent, all[first-1].End, all[first].Start)) == 0:
		ed.ReplaceRange(all[first-1].End, all[last].End, "")
	case first > 0:
		// The previous item keeps its comma so the comments in between stay put.
		start, end := all[first].Start, skipComma(src, all[last].End)

		lineStart := start
		for lineStart > 0 && isBlank(src[lineStart-1]) {
			lineStart--
		}

		if lineStart > 0 && src[lineStart-1] == '\n' {
			start = lineStart - 1
		}

		ed.ReplaceRange(start, end, "")
	default:
		ed.ReplaceRange(all[first].Start, skipComma(src, all[last].End), "")
	}
}

// skipComma returns the offset just past the comma that follows end, or end
// when the next non-space byte is not a comma.
func skipComma(src []byte, end int) int {
	for pos := end; pos < len(src); pos++ {
		if src[pos] == ',' {
			return pos + 1
		}

		if !isSpace(src[pos]) {
			break
		}
	}

	return end
}

// commentsBetween returns the comment children of parent inside [from, to).
func commentsBetween(parent *Node, from, to int) []*Node {
	var comments []*Node

	for _, child := range parent.Children {
		if child.Kind == KindComment && child.Start >= from && child.End <= to {
			comments = append(comments, child)
		}
	}

	return comments
}

func (ed *Editor) check(n *Node) bool {
	if ed.err != nil {
		return false
	}

	err := ed.tree.owns(n)
	if err != nil {
		ed.err = err

		return false
	}

	return true
}

// applyEdits splices sorted, non-overlapping edits into src. Insertions at the
// start of a replaced range land before the replacement.
func applyEdits(src []byte, edits []textEdit) ([]byte, error) {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b textEdit) int {
		if a.start != b.start {
			return a.start - b.start
		}

		aInsert, bInsert := a.start == a.end, b.start == b.end
		if aInsert != bInsert {
			if aInsert {
				return -1
			}

			return 1
		}

		return a.seq - b.seq
	})

	out := make([]byte, 0, len(src))
	cursor := 0

	for _, e := range sorted {
		if e.start < cursor {
			return nil, fmt.Errorf("%w: edit at %d overlaps previous edit ending at %d", ErrOverlappingEdits, e.start, cursor)
		}

		out = append(out, src[cursor:e.start]...)
		out = append(out, e.text...)
		cursor = e.end
	}

	out = append(out, src[cursor:]...)

	return out, nil
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func isSpace(c byte) bool {
	return isBlank(c) || c == '\n'
}
