package syntax

import (
	"strings"
)

// ListLayout describes how the items of a bracketed list are laid out so a
// rebuilt list can follow the original formatting.
type ListLayout struct {
	Indent        string
	CloseIndent   string
	Multiline     bool
	TrailingComma bool
}

// LayoutOf inspects a bracketed list node (object, named imports, arguments).
func LayoutOf(list *Node) ListLayout {
	items := list.Items()
	if len(items) == 0 {
		return ListLayout{}
	}

	src := list.src
	first, last := items[0], items[len(items)-1]

	layout := ListLayout{
		Multiline: strings.Contains(string(src[list.Start:first.Start]), "\n"),
	}

	if !layout.Multiline {
		return layout
	}

	layout.Indent = leadingIndent(src, first.Start)
	layout.CloseIndent = leadingIndent(src, list.End-1)

	tail := strings.TrimSpace(string(src[last.End : list.End-1]))
	layout.TrailingComma = strings.HasPrefix(tail, ",")

	return layout
}

// leadingIndent returns the whitespace between the start of the line holding
// pos and the first non-blank character of that line.
func leadingIndent(src []byte, pos int) string {
	lineStart := pos
	for lineStart > 0 && src[lineStart-1] != '\n' {
		lineStart--
	}

	end := lineStart
	for end < len(src) && isBlank(src[end]) && end < pos {
		end++
	}

	return string(src[lineStart:end])
}

// ObjectText renders an object literal from property texts.
func ObjectText(props []string, layout ListLayout) string {
	if len(props) == 0 {
		return "{}"
	}

	var sb strings.Builder

	sb.WriteString("{")

	if layout.Multiline {
		sep := ",\n" + layout.Indent

		sb.WriteString("\n" + layout.Indent)
		sb.WriteString(strings.Join(props, sep))

		if layout.TrailingComma {
			sb.WriteString(",")
		}

		sb.WriteString("\n" + layout.CloseIndent)
	} else {
		sb.WriteString(" " + strings.Join(props, ", ") + " ")
	}

	sb.WriteString("}")

	return sb.String()
}

// CallText renders a call expression.
func CallText(callee string, args ...string) string {
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// PropertyText renders an object property.
func PropertyText(key, value string) string {
	return key + ": " + value
}

// ImportSpecifierText renders one named import specifier.
func ImportSpecifierText(imported, local string) string {
	if local == "" || local == imported {
		return imported
	}

	return imported + " as " + local
}

// QuoteString renders a string literal with the given quote character.
func QuoteString(value string, quote byte) string {
	q := string(quote)
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, q, `\`+q)

	return q + escaped + q
}
