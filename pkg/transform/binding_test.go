package transform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

func parseJS(t *testing.T, src string) *syntax.Tree {
	t.Helper()

	tree, err := syntax.Parse(context.Background(), []byte(src), syntax.JavaScript)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	return tree
}

func parseTS(t *testing.T, src string) *syntax.Tree {
	t.Helper()

	tree, err := syntax.Parse(context.Background(), []byte(src), syntax.TypeScript)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	return tree
}

func TestResolveImport(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import Router, { START_LOCATION as SL } from 'vue-router';\n"+
		"import * as ns from 'vue-router';\n"+
		"import other from 'other';\n")

	bindings, err := transform.ResolveImport(tree, "vue-router")
	require.NoError(t, err)

	assert.Equal(t, []transform.ImportBinding{
		{Source: "vue-router", Kind: transform.BindingDefault, Imported: "default", Local: "Router"},
		{Source: "vue-router", Kind: transform.BindingNamed, Imported: "START_LOCATION", Local: "SL"},
		{Source: "vue-router", Kind: transform.BindingNamespace, Imported: "*", Local: "ns"},
	}, bindings)
}

func TestResolveImport_NotImported(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import Vue from 'vue';\n")

	bindings, err := transform.ResolveImport(tree, "vue-router")
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestResolveImport_ExactSourceMatch(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import logger from 'vuex/dist/logger';\n")

	bindings, err := transform.ResolveImport(tree, "vuex")
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestResolveImport_EmptySource(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "a;\n")

	_, err := transform.ResolveImport(tree, "")
	require.ErrorIs(t, err, transform.ErrEmptySource)
}

func TestDefaultLocal(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import { default as VR, START_LOCATION } from 'vue-router';\n")

	bindings, err := transform.ResolveImport(tree, "vue-router")
	require.NoError(t, err)

	local, ok := transform.DefaultLocal(bindings)
	assert.True(t, ok)
	assert.Equal(t, "VR", local)

	local, ok = transform.NamedLocal(bindings, "START_LOCATION")
	assert.True(t, ok)
	assert.Equal(t, "START_LOCATION", local)

	_, ok = transform.NamedLocal(bindings, "createRouter")
	assert.False(t, ok)
}

func TestResolveImport_TypeOnly(t *testing.T) {
	t.Parallel()

	tree := parseTS(t, "import type VueRouter from 'vue-router';\n"+
		"import { type RouteConfig, START_LOCATION } from 'vue-router';\n"+
		"import type { NavigationGuard as Guard } from 'vue-router';\n")

	bindings, err := transform.ResolveImport(tree, "vue-router")
	require.NoError(t, err)

	assert.Equal(t, []transform.ImportBinding{
		{Source: "vue-router", Kind: transform.BindingDefault, Imported: "default", Local: "VueRouter", TypeOnly: true},
		{Source: "vue-router", Kind: transform.BindingNamed, Imported: "RouteConfig", Local: "RouteConfig", TypeOnly: true},
		{Source: "vue-router", Kind: transform.BindingNamed, Imported: "START_LOCATION", Local: "START_LOCATION"},
		{Source: "vue-router", Kind: transform.BindingNamed, Imported: "NavigationGuard", Local: "Guard", TypeOnly: true},
	}, bindings)

	_, ok := transform.DefaultLocal(bindings)
	assert.False(t, ok)

	_, ok = transform.NamedLocal(bindings, "RouteConfig")
	assert.False(t, ok)

	local, ok := transform.NamedLocal(bindings, "START_LOCATION")
	assert.True(t, ok)
	assert.Equal(t, "START_LOCATION", local)
}

func TestResolveImport_DefaultNamedType(t *testing.T) {
	t.Parallel()

	tree := parseJS(t, "import type from 'vue-router';\n")

	bindings, err := transform.ResolveImport(tree, "vue-router")
	require.NoError(t, err)

	local, ok := transform.DefaultLocal(bindings)
	assert.True(t, ok)
	assert.Equal(t, "type", local)
}

func TestBindingKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "default", transform.BindingDefault.String())
	assert.Equal(t, "named", transform.BindingNamed.String())
	assert.Equal(t, "namespace", transform.BindingNamespace.String())
}
