package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

func TestLayoutOf_Multiline(t *testing.T) {
	t.Parallel()

	tree := parse(t, "const o = {\n  a: 1,\n  b: 2,\n};\n")
	obj := tree.FindAll(syntax.KindObject)[0]

	layout := syntax.LayoutOf(obj)
	assert.Equal(t, syntax.ListLayout{Multiline: true, Indent: "  ", TrailingComma: true}, layout)
	assert.Equal(t, "{\n  x: 0,\n  a: 1,\n}", syntax.ObjectText([]string{"x: 0", "a: 1"}, layout))
}

func TestLayoutOf_Inline(t *testing.T) {
	t.Parallel()

	tree := parse(t, "f({ a: 1 });\n")
	obj := tree.FindAll(syntax.KindObject)[0]

	layout := syntax.LayoutOf(obj)
	assert.False(t, layout.Multiline)
	assert.Equal(t, "{ x: 0, a: 1 }", syntax.ObjectText([]string{"x: 0", "a: 1"}, layout))
	assert.Equal(t, "{}", syntax.ObjectText(nil, layout))
}

func TestSnippetBuilders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "createRouter({ routes })", syntax.CallText("createRouter", "{ routes }"))
	assert.Equal(t, "createWebHistory()", syntax.CallText("createWebHistory"))
	assert.Equal(t, "history: h", syntax.PropertyText("history", "h"))
	assert.Equal(t, "createRouter as newCreateRouter", syntax.ImportSpecifierText("createRouter", "newCreateRouter"))
	assert.Equal(t, "createRouter", syntax.ImportSpecifierText("createRouter", "createRouter"))
	assert.Equal(t, `'it\'s'`, syntax.QuoteString("it's", '\''))
	assert.Equal(t, `"vue"`, syntax.QuoteString("vue", '"'))
	assert.Equal(t, "{ a, b }", syntax.ObjectText([]string{"a", "b"}, syntax.ListLayout{}))
	assert.Equal(t, "{}", syntax.ObjectText(nil, syntax.ListLayout{}))
}
