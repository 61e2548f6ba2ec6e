package transform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

func TestPruneIfUnused(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		local  string
		want   string
		pruned bool
	}{
		{
			name:   "whole declaration",
			src:    "import Router from 'vue-router';\nfoo();\n",
			local:  "Router",
			want:   "foo();\n",
			pruned: true,
		},
		{
			name:   "default next to named",
			src:    "import Router, { START_LOCATION } from 'vue-router';\nlog(START_LOCATION);\n",
			local:  "Router",
			want:   "import { START_LOCATION } from 'vue-router';\nlog(START_LOCATION);\n",
			pruned: true,
		},
		{
			name:   "last named specifier",
			src:    "import { a, b } from 'm';\na();\n",
			local:  "b",
			want:   "import { a } from 'm';\na();\n",
			pruned: true,
		},
		{
			name:   "aliased specifier",
			src:    "import { a, b as c } from 'm';\na();\n",
			local:  "c",
			want:   "import { a } from 'm';\na();\n",
			pruned: true,
		},
		{
			name:   "only named specifier next to default",
			src:    "import M, { a } from 'm';\nM();\n",
			local:  "a",
			want:   "import M from 'm';\nM();\n",
			pruned: true,
		},
		{
			name:   "namespace next to default",
			src:    "import M, * as ns from 'm';\nM();\n",
			local:  "ns",
			want:   "import M from 'm';\nM();\n",
			pruned: true,
		},
		{
			name:  "referenced",
			src:   "import Router from 'vue-router';\nconsole.log(Router);\n",
			local: "Router",
			want:  "import Router from 'vue-router';\nconsole.log(Router);\n",
		},
		{
			name:  "referenced through shorthand property",
			src:   "import store from './store';\nexport default { store };\n",
			local: "store",
			want:  "import store from './store';\nexport default { store };\n",
		},
		{
			name:   "property name is not a reference",
			src:    "import Router from 'vue-router';\nconst o = { Router: 1 };\no.Router;\n",
			local:  "Router",
			want:   "const o = { Router: 1 };\no.Router;\n",
			pruned: true,
		},
		{
			name:  "not imported",
			src:   "foo();\n",
			local: "Router",
			want:  "foo();\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := parseJS(t, tt.src)

			pruned, err := transform.PruneIfUnused(tree, tt.local)
			require.NoError(t, err)
			assert.Equal(t, tt.pruned, pruned)
			assert.Equal(t, tt.want, string(tree.Source()))
		})
	}
}

func TestPruneIfUnused_TypeReference(t *testing.T) {
	t.Parallel()

	tree, err := syntax.Parse(context.Background(),
		[]byte("import { Store } from 'vuex';\nlet s: Store<State>;\n"), syntax.TypeScript)
	require.NoError(t, err)

	defer tree.Close()

	pruned, err := transform.PruneIfUnused(tree, "Store")
	require.NoError(t, err)
	assert.False(t, pruned)
}

func TestPruneIfUnused_EmptyName(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "a;\n")

	_, err := transform.PruneIfUnused(tree, "")
	require.ErrorIs(t, err, transform.ErrEmptyName)
}

func TestRenameReferences(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import logger from 'x';\nlogger();\nconst o = { logger, other: logger };\n")

	renamed, err := transform.RenameReferences(tree, "logger", "createLogger")
	require.NoError(t, err)

	assert.Equal(t, 3, renamed)
	assert.Equal(t,
		"import logger from 'x';\ncreateLogger();\nconst o = { logger: createLogger, other: createLogger };\n",
		string(tree.Source()))
	assert.Equal(t, 0, transform.References(tree, "logger"))
}

func TestRenameReferences_SameName(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "a();\n")
	gen := tree.Generation()

	renamed, err := transform.RenameReferences(tree, "a", "a")
	require.NoError(t, err)
	assert.Zero(t, renamed)
	assert.Equal(t, gen, tree.Generation())
}
