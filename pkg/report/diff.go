package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines around each hunk.
const contextLines = 3

type lineOp struct {
	text string
	kind diffmatchpatch.Operation
}

// UnifiedDiff renders a line diff between before and after in unified
// format. Equal inputs yield the empty string.
func UnifiedDiff(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}

	ops := lineOps(string(before), string(after))

	var sb strings.Builder

	sb.WriteString(color.New(color.Bold).Sprintf("--- a/%s\n+++ b/%s\n", path, path))

	for _, h := range hunks(ops) {
		writeHunk(&sb, ops, h)
	}

	return sb.String()
}

func lineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var ops []lineOp

	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for line := range strings.SplitSeq(text, "\n") {
			ops = append(ops, lineOp{text: line, kind: d.Type})
		}
	}

	return ops
}

// hunk is a half-open range of ops.
type hunk struct {
	start, end int
}

// hunks groups changed ops with their context, merging groups whose
// context overlaps.
func hunks(ops []lineOp) []hunk {
	var out []hunk

	for i, op := range ops {
		if op.kind == diffmatchpatch.DiffEqual {
			continue
		}

		start := max(i-contextLines, 0)
		end := min(i+contextLines+1, len(ops))

		if n := len(out); n > 0 && start <= out[n-1].end {
			out[n-1].end = max(out[n-1].end, end)

			continue
		}

		out = append(out, hunk{start: start, end: end})
	}

	return out
}

func writeHunk(sb *strings.Builder, ops []lineOp, h hunk) {
	oldLine, newLine := 1, 1

	for _, op := range ops[:h.start] {
		if op.kind != diffmatchpatch.DiffInsert {
			oldLine++
		}

		if op.kind != diffmatchpatch.DiffDelete {
			newLine++
		}
	}

	oldCount, newCount := 0, 0

	for _, op := range ops[h.start:h.end] {
		if op.kind != diffmatchpatch.DiffInsert {
			oldCount++
		}

		if op.kind != diffmatchpatch.DiffDelete {
			newCount++
		}
	}

	sb.WriteString(color.CyanString("@@ -%d,%d +%d,%d @@", oldLine, oldCount, newLine, newCount))
	sb.WriteByte('\n')

	for _, op := range ops[h.start:h.end] {
		switch op.kind {
		case diffmatchpatch.DiffDelete:
			sb.WriteString(color.RedString("-%s", op.text))
		case diffmatchpatch.DiffInsert:
			sb.WriteString(color.GreenString("+%s", op.text))
		case diffmatchpatch.DiffEqual:
			fmt.Fprintf(sb, " %s", op.text)
		}

		sb.WriteByte('\n')
	}
}
