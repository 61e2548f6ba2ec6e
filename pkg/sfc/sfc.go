// Package sfc locates the script blocks of Vue single-file components so the
// migration rules can run on each block as a standalone source.
package sfc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

const (
	typeScriptElement = "script_element"
	typeStartTag      = "start_tag"
	typeAttribute     = "attribute"
	typeAttrName      = "attribute_name"
	typeAttrValue     = "attribute_value"
	typeRawText       = "raw_text"

	attrLang  = "lang"
	attrSetup = "setup"
)

// Extension is the file extension of single-file components.
const Extension = ".vue"

// Block is one inline <script> element.
type Block struct {
	// Lang is the value of the lang attribute, empty for plain JavaScript.
	Lang string
	// Start and End delimit the script content in the component source.
	Start int
	End   int
	// Pos is the position of the first content byte.
	Pos syntax.Position
	// Setup is set for <script setup>.
	Setup bool
}

// Dialect returns the dialect named by the lang attribute.
func (b Block) Dialect() (syntax.Dialect, error) {
	return syntax.ParseDialect(b.Lang)
}

// Position maps a position inside the block content to the component file.
// A zero line means no position and is kept as is.
func (b Block) Position(line, column int) (int, int) {
	if line <= 0 {
		return 0, 0
	}

	if line == 1 {
		return b.Pos.Line, b.Pos.Column + column - 1
	}

	return b.Pos.Line + line - 1, column
}

// Blocks returns the inline script blocks of src in document order. Empty
// blocks and blocks with a src attribute have no content and are omitted.
func Blocks(ctx context.Context, src []byte) ([]Block, error) {
	tree, err := syntax.Parse(ctx, src, syntax.Vue)
	if err != nil {
		return nil, fmt.Errorf("parse component: %w", err)
	}
	defer tree.Close()

	var blocks []Block

	for _, el := range tree.Root().Children {
		if el.Type != typeScriptElement {
			continue
		}

		content := child(el, typeRawText)
		if content == nil {
			continue
		}

		block := Block{Start: content.Start, End: content.End, Pos: content.Pos}

		for _, attr := range children(child(el, typeStartTag), typeAttribute) {
			switch child(attr, typeAttrName).Text() {
			case attrLang:
				block.Lang = attrValue(attr)
			case attrSetup:
				block.Setup = true
			}
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Rewrite calls fn with the content of every script block and splices the
// returned text back. The rest of the component is copied unchanged.
func Rewrite(
	ctx context.Context, src []byte, fn func(block Block, content []byte) ([]byte, error),
) ([]byte, error) {
	blocks, err := Blocks(ctx, src)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer

	out.Grow(len(src))

	prev := 0

	for _, block := range blocks {
		replaced, fnErr := fn(block, src[block.Start:block.End])
		if fnErr != nil {
			return nil, fnErr
		}

		out.Write(src[prev:block.Start])
		out.Write(replaced)

		prev = block.End
	}

	out.Write(src[prev:])

	return out.Bytes(), nil
}

func child(n *syntax.Node, typ string) *syntax.Node {
	if n == nil {
		return nil
	}

	for _, c := range n.Children {
		if c.Type == typ {
			return c
		}
	}

	return nil
}

func children(n *syntax.Node, typ string) []*syntax.Node {
	if n == nil {
		return nil
	}

	var out []*syntax.Node

	for _, c := range n.Children {
		if c.Type == typ {
			out = append(out, c)
		}
	}

	return out
}

// attrValue returns the unquoted value of an attribute, quoted or not.
func attrValue(attr *syntax.Node) string {
	var value string

	attr.Walk(func(n *syntax.Node) bool {
		if n.Type == typeAttrValue {
			value = n.Text()

			return false
		}

		return value == ""
	})

	return value
}
