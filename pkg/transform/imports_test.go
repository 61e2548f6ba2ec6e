package transform_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

func TestEnsureImport_Idempotent(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import Router from 'vue-router';\nconst x = 1;\n")
	req := transform.Named("vue-router", "createRouter")

	first, err := transform.EnsureImport(tree, req)
	require.NoError(t, err)

	second, err := transform.EnsureImport(tree, req)
	require.NoError(t, err)

	assert.Equal(t, "createRouter", first)
	assert.Equal(t, first, second)
	assert.Equal(t, "import Router, { createRouter } from 'vue-router';\nconst x = 1;\n", string(tree.Source()))
	assert.Len(t, transform.ImportDecls(tree, "vue-router"), 1)
}

func TestEnsureImport_ExtendsDeclaration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		req  transform.ImportRequest
		want string
	}{
		{
			name: "named list",
			src:  "import { a } from 'm';\n",
			req:  transform.Named("m", "b"),
			want: "import { a, b } from 'm';\n",
		},
		{
			name: "multiline named list",
			src:  "import {\n  a,\n} from 'm';\n",
			req:  transform.Named("m", "b"),
			want: "import {\n  a,\n  b,\n} from 'm';\n",
		},
		{
			name: "empty named list",
			src:  "import {} from 'm';\n",
			req:  transform.Named("m", "b"),
			want: "import { b } from 'm';\n",
		},
		{
			name: "side effect import",
			src:  "import 'm';\n",
			req:  transform.Named("m", "b"),
			want: "import { b } from 'm';\n",
		},
		{
			name: "default before named",
			src:  "import { a } from 'm';\n",
			req:  transform.ImportRequest{Source: "m", Specifier: transform.Specifier{Type: transform.SpecifierDefault, Local: "M"}},
			want: "import M, { a } from 'm';\n",
		},
		{
			name: "default into side effect import",
			src:  "import 'm';\n",
			req:  transform.ImportRequest{Source: "m", Specifier: transform.Specifier{Type: transform.SpecifierDefault, Local: "M"}},
			want: "import M from 'm';\n",
		},
		{
			name: "namespace only gets a sibling",
			src:  "import * as ns from 'm';\n",
			req:  transform.Named("m", "b"),
			want: "import * as ns from 'm';\nimport { b } from 'm';\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := parseJS(t, tt.src)

			_, err := transform.EnsureImport(tree, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(tree.Source()))
		})
	}
}

func TestEnsureImport_NewDeclaration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "after last import",
			src:  "import a from 'a';\n\nfoo();\n",
			want: "import a from 'a';\nimport { x } from 'm';\n\nfoo();\n",
		},
		{
			name: "follows quote and semicolon style",
			src:  "import a from \"a\"\nfoo()\n",
			want: "import a from \"a\"\nimport { x } from \"m\"\nfoo()\n",
		},
		{
			name: "no imports",
			src:  "foo();\n",
			want: "import { x } from 'm';\nfoo();\n",
		},
		{
			name: "after leading comment",
			src:  "// header\nfoo();\n",
			want: "// header\nimport { x } from 'm';\nfoo();\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := parseJS(t, tt.src)

			local, err := transform.EnsureImport(tree, transform.Named("m", "x"))
			require.NoError(t, err)
			assert.Equal(t, "x", local)
			assert.Equal(t, tt.want, string(tree.Source()))
		})
	}
}

func TestEnsureImport_SkipsTypeOnlyImports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		req   transform.ImportRequest
		local string
		want  string
	}{
		{
			name:  "import type declaration",
			src:   "import type { RouteConfig } from 'vue-router';\n",
			req:   transform.Named("vue-router", "createRouter"),
			local: "createRouter",
			want:  "import type { RouteConfig } from 'vue-router';\nimport { createRouter } from 'vue-router';\n",
		},
		{
			name:  "value declaration next to a type declaration",
			src:   "import VueRouter from 'vue-router';\nimport type { RouteConfig } from 'vue-router';\n",
			req:   transform.Named("vue-router", "createRouter"),
			local: "createRouter",
			want:  "import VueRouter, { createRouter } from 'vue-router';\nimport type { RouteConfig } from 'vue-router';\n",
		},
		{
			name:  "inline type specifier",
			src:   "import { type createRouter } from 'vue-router';\n",
			req:   transform.Named("vue-router", "createRouter"),
			local: "newCreateRouter",
			want:  "import { type createRouter, createRouter as newCreateRouter } from 'vue-router';\n",
		},
		{
			name: "default into type declaration",
			src:  "import type { Store } from 'vuex';\n",
			req: transform.ImportRequest{
				Source:    "vuex",
				Specifier: transform.Specifier{Type: transform.SpecifierDefault, Local: "Vuex"},
			},
			local: "Vuex",
			want:  "import type { Store } from 'vuex';\nimport Vuex from 'vuex';\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := parseTS(t, tt.src)

			local, err := transform.EnsureImport(tree, tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.local, local)
			assert.Equal(t, tt.want, string(tree.Source()))
		})
	}
}

func TestEnsureImport_RenamesOnCollision(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "const createRouter = 1;\n")

	local, err := transform.EnsureImport(tree, transform.Named("vue-router", "createRouter"))
	require.NoError(t, err)

	assert.Equal(t, "newCreateRouter", local)
	assert.Equal(t,
		"import { createRouter as newCreateRouter } from 'vue-router';\nconst createRouter = 1;\n",
		string(tree.Source()))

	again, err := transform.EnsureImport(tree, transform.Named("vue-router", "createRouter"))
	require.NoError(t, err)
	assert.Equal(t, local, again)
}

func TestEnsureImport_CollisionWithNestedBinding(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "function setup(createRouter) {\n  const newCreateRouter = createRouter;\n}\n")

	local, err := transform.EnsureImport(tree, transform.Named("vue-router", "createRouter"))
	require.NoError(t, err)
	assert.Equal(t, "newCreateRouter2", local)
}

func TestEnsureImport_InvalidRequest(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "a;\n")

	_, err := transform.EnsureImport(tree, transform.Named("", "x"))
	require.ErrorIs(t, err, transform.ErrEmptySource)

	_, err = transform.EnsureImport(tree, transform.Named("m", ""))
	require.ErrorIs(t, err, transform.ErrEmptyName)

	_, err = transform.EnsureImport(tree, transform.ImportRequest{
		Source: "m", Specifier: transform.Specifier{Type: transform.SpecifierDefault},
	})
	require.ErrorIs(t, err, transform.ErrEmptyName)

	assert.Equal(t, "a;\n", string(tree.Source()))
}

func TestFreeName(t *testing.T) {
	t.Parallel()

	name, err := transform.FreeName(map[string]bool{}, "createRouter")
	require.NoError(t, err)
	assert.Equal(t, "createRouter", name)

	name, err = transform.FreeName(map[string]bool{"createRouter": true, "newCreateRouter": true}, "createRouter")
	require.NoError(t, err)
	assert.Equal(t, "newCreateRouter2", name)
}

func TestFreeName_Exhausted(t *testing.T) {
	t.Parallel()

	declared := map[string]bool{"x": true, "newX": true}
	for n := 2; n < 100; n++ {
		declared["newX"+strconv.Itoa(n)] = true
	}

	_, err := transform.FreeName(declared, "x")
	require.ErrorIs(t, err, transform.ErrCollisionUnresolved)
}

func TestDeclaredNames(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import A, { b as B } from 'm';\n"+
		"const { c, d: D } = obj;\n"+
		"function f(p, [q]) {}\n"+
		"class K {}\n"+
		"try {} catch (err) {}\n")

	names := transform.DeclaredNames(tree)
	for _, want := range []string{"A", "B", "c", "D", "f", "p", "q", "K", "err"} {
		assert.True(t, names[want], want)
	}

	assert.False(t, names["b"])
	assert.False(t, names["obj"])
}
