package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
	"github.com/Sumatoshi-tech/codeshift/pkg/report"
	"github.com/Sumatoshi-tech/codeshift/pkg/rules"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

func sampleSummary() *pipeline.Summary {
	return &pipeline.Summary{
		Files: []pipeline.FileResult{
			{
				Path:     "src/router.js",
				Status:   pipeline.FileChanged,
				Original: []byte("a\nb\nc\n"),
				Output:   []byte("a\nB\nc\n"),
				Rules: []pipeline.RuleOutcome{
					{Rule: "vue-router-v4", Status: "applied"},
					{Rule: "vuex-v4", Status: "unchanged"},
				},
				Diagnostics: []transform.Diagnostic{
					{Rule: "vue-router-v4", Msg: "unsupported pattern", Line: 4, Column: 11},
				},
				Size:     2048,
				Duration: time.Millisecond,
			},
			{Path: "src/util.js", Status: pipeline.FileUnchanged},
			{Path: "src/broken.js", Status: pipeline.FileFailed, Error: "syntax error at 2:5"},
		},
		Counts:   map[string]int{"changed": 1, "unchanged": 1, "failed": 1, "skipped": 0},
		Duration: 40 * time.Millisecond,
	}
}

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	got := report.UnifiedDiff("a.js", []byte("a\nb\nc\n"), []byte("a\nB\nc\n"))
	assert.Equal(t, "--- a/a.js\n+++ b/a.js\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", got)

	assert.Empty(t, report.UnifiedDiff("a.js", []byte("same\n"), []byte("same\n")))
}

func TestUnifiedDiff_SplitsDistantHunks(t *testing.T) {
	t.Parallel()

	before := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n"
	after := "one\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\ntwelve\n"

	got := report.UnifiedDiff("n.js", []byte(before), []byte(after))

	assert.Contains(t, got, "@@ -1,4 +1,4 @@\n-1\n+one\n 2\n 3\n 4\n")
	assert.Contains(t, got, "@@ -9,4 +9,4 @@\n 9\n 10\n 11\n-12\n+twelve\n")
}

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, sampleSummary(), report.Options{Format: report.FormatTable, Diff: true}))

	out := buf.String()
	assert.Contains(t, out, "--- a/src/router.js")
	assert.Contains(t, out, "src/router.js")
	assert.Contains(t, out, "vue-router-v4")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "src/router.js:4:11")
	assert.Contains(t, out, "syntax error at 2:5")
	assert.Contains(t, out, "1 unchanged not shown")
	assert.NotContains(t, out, "src/util.js")
	assert.Contains(t, out, "migrated 1 of 3 files (1 failed, 0 skipped, 1 diagnostics)")
}

func TestWrite_TableVerboseDryRun(t *testing.T) {
	t.Parallel()

	summary := sampleSummary()
	summary.DryRun = true

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, summary, report.Options{Verbose: true}))
	assert.Contains(t, buf.String(), "src/util.js")
	assert.Contains(t, buf.String(), "would migrate 1 of 3 files")
}

func TestWrite_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, &pipeline.Summary{}, report.Options{}))
	assert.Equal(t, "No files matched.\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, sampleSummary(), report.Options{Format: report.FormatJSON}))

	var decoded struct {
		Files []struct {
			Path        string `json:"path"`
			Status      string `json:"status"`
			Error       string `json:"error"`
			Diagnostics []struct {
				Line int `json:"line"`
			} `json:"diagnostics"`
		} `json:"files"`
		Counts map[string]int `json:"counts"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Files, 3)
	assert.Equal(t, "changed", decoded.Files[0].Status)
	assert.Equal(t, 4, decoded.Files[0].Diagnostics[0].Line)
	assert.Equal(t, "syntax error at 2:5", decoded.Files[2].Error)
	assert.Equal(t, 1, decoded.Counts["failed"])
	assert.NotContains(t, buf.String(), "Original")
}

func TestWrite_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, sampleSummary(), report.Options{Format: report.FormatYAML}))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "files")
	assert.Contains(t, buf.String(), "path: src/router.js")
}

func TestFormats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"table", "json", "yaml"} {
		require.NoError(t, report.ValidateFormat(format))
	}

	require.ErrorIs(t, report.ValidateFormat("xml"), report.ErrUnknownFormat)
	require.ErrorIs(t, report.Write(&bytes.Buffer{}, sampleSummary(), report.Options{Format: "xml"}), report.ErrUnknownFormat)
}

func TestWriteRules(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteRules(&buf, rules.All()))

	out := buf.String()
	assert.Contains(t, out, "vue-router-v4")
	assert.Contains(t, out, "4.0.0")
	assert.Contains(t, out, "defaultMode (string)")
	assert.Contains(t, out, `[default "hash"]`)
	assert.Contains(t, out, "vuex-create-logger")
}
