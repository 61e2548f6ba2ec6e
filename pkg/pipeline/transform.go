package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/codeshift/pkg/sfc"
	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// errAborted stops a component rewrite after a failed rule under PolicyAbort
// or PolicySkipFile. The rule error itself is kept on the result.
var errAborted = errors.New("rewrite aborted")

// transform applies the rules gated by deps to src.
func (r *Runner) transform(ctx context.Context, path string, src []byte, deps map[string]string) FileResult {
	ctx, span := r.tracer.Start(ctx, "codeshift.file", trace.WithAttributes(attribute.String("code.filepath", path)))
	defer span.End()

	result := FileResult{Path: path, Original: src, Output: src, Status: FileUnchanged}

	rules := r.applicable(deps)
	if len(rules) == 0 {
		result.Status = FileSkipped
		result.Error = "no rule applies to the declared package versions"

		return result
	}

	var out []byte

	var err error

	if strings.EqualFold(filepath.Ext(path), sfc.Extension) {
		result.Dialect = syntax.Vue
		out, err = r.component(ctx, src, rules, &result)
	} else {
		dialect, dialectErr := r.dialectFor(path)
		if dialectErr != nil {
			result.fail(FileFailed, dialectErr)

			return result
		}

		result.Dialect = dialect
		out, err = r.script(ctx, src, dialect, rules, &result, sfc.Block{Pos: syntax.Position{Line: 1, Column: 1}})
	}

	if err != nil {
		if errors.Is(err, errAborted) {
			err = result.Err
		}

		span.SetStatus(codes.Error, err.Error())
		result.fail(FileFailed, err)

		return result
	}

	result.Output = out
	if string(out) != string(src) {
		result.Status = FileChanged
	}

	if result.Err != nil {
		// PolicyContinue: other rules' edits are kept but the file still
		// reports the failure.
		result.Error = result.Err.Error()
		span.SetStatus(codes.Error, result.Error)
	}

	return result
}

func (r *Runner) applicable(deps map[string]string) []*transform.Plugin {
	rules := make([]*transform.Plugin, 0, len(r.cfg.Rules))

	for _, rule := range r.cfg.Rules {
		if rule.Applies(deps) {
			rules = append(rules, rule)
		}
	}

	return rules
}

func (r *Runner) dialectFor(path string) (syntax.Dialect, error) {
	if r.cfg.Dialect != "" {
		return r.cfg.Dialect, nil
	}

	dialect, ok := syntax.DialectForPath(path)
	if !ok {
		return "", fmt.Errorf("%w: no dialect for %q", syntax.ErrUnknownDialect, filepath.Ext(path))
	}

	return dialect, nil
}

// component rewrites every script block of a single-file component.
func (r *Runner) component(
	ctx context.Context, src []byte, rules []*transform.Plugin, result *FileResult,
) ([]byte, error) {
	return sfc.Rewrite(ctx, src, func(block sfc.Block, content []byte) ([]byte, error) {
		dialect, err := block.Dialect()
		if err != nil {
			return nil, fmt.Errorf("script block at %d:%d: %w", block.Pos.Line, block.Pos.Column, err)
		}

		out, err := r.script(ctx, content, dialect, rules, result, block)
		if err != nil {
			return nil, fmt.Errorf("script block at %d:%d: %w", block.Pos.Line, block.Pos.Column, err)
		}

		return out, nil
	})
}

// script parses one source and applies rules in order on the same tree.
// Diagnostic positions are mapped through block to the file.
func (r *Runner) script(
	ctx context.Context, src []byte, dialect syntax.Dialect, rules []*transform.Plugin,
	result *FileResult, block sfc.Block,
) ([]byte, error) {
	tree, err := syntax.Parse(ctx, src, dialect)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	for _, rule := range rules {
		ruleCtx, span := r.tracer.Start(ctx, "codeshift.rule", trace.WithAttributes(attribute.String("codeshift.rule", rule.Name())))

		res := rule.Apply(ruleCtx, transform.Invocation{
			Tree:    tree,
			Options: r.cfg.Options[rule.Name()],
			Logger:  r.logger,
		})

		span.SetAttributes(attribute.String("codeshift.status", res.Status.String()))

		for _, d := range res.Diagnostics {
			d.Line, d.Column = block.Position(d.Line, d.Column)
			result.Diagnostics = append(result.Diagnostics, d)
		}

		if r.cfg.Metrics != nil {
			r.cfg.Metrics.RecordRule(ruleCtx, rule.Name(), res.Status.String(), len(res.Diagnostics))
		}

		outcome := RuleOutcome{Rule: rule.Name(), Status: res.Status.String()}

		if res.Err != nil {
			span.SetStatus(codes.Error, res.Err.Error())
			outcome.Error = res.Err.Error()
		}

		span.End()

		result.Rules = append(result.Rules, outcome)

		if res.Err == nil {
			continue
		}

		result.Err = errors.Join(result.Err, fmt.Errorf("%w: %s: %w", ErrRuleFailed, rule.Name(), res.Err))

		if r.cfg.Policy != PolicyContinue {
			return nil, errAborted
		}
	}

	return tree.Source(), nil
}
