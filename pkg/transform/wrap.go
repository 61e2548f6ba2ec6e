package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// Status is the outcome of applying one rule to one tree.
type Status uint8

// Rule outcomes.
const (
	StatusUnchanged Status = iota
	StatusApplied
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Diagnostic is a problem a rule reported without failing, typically an
// unsupported call site it left untouched.
type Diagnostic struct {
	Err    error  `json:"-" yaml:"-"`
	Rule   string `json:"rule" yaml:"rule"`
	Msg    string `json:"message" yaml:"message"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// Result is the tagged outcome of Plugin.Apply.
type Result struct {
	Err         error
	Rule        string
	Diagnostics []Diagnostic
	Status      Status
}

// Context is what a rule body sees: the tree, the query facade over it, a
// diagnostic sink and a logger scoped to the rule.
type Context struct {
	Tree        *syntax.Tree
	Logger      *slog.Logger
	ctx         context.Context //nolint:containedctx // rule bodies are synchronous and scoped to one Apply call.
	rule        string
	diagnostics []Diagnostic
}

// Context returns the context.Context of the current Apply call.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Rule returns the name of the running rule.
func (c *Context) Rule() string {
	return c.rule
}

// Find returns nodes of the current tree generation.
func (c *Context) Find(kind syntax.Kind, match func(*syntax.Node) bool) []*syntax.Node {
	return c.Tree.Find(kind, match)
}

// Match runs a tree-sitter pattern over the current tree generation.
func (c *Context) Match(pattern string) ([]syntax.Match, error) {
	return c.Tree.Match(pattern)
}

// Report records a non-fatal problem.
func (c *Context) Report(err error) {
	d := Diagnostic{Err: err, Rule: c.rule, Msg: err.Error()}

	var located *Error
	if errors.As(err, &located) {
		located.Rule = c.rule
		d.Line, d.Column = located.Line, located.Column
	}

	c.diagnostics = append(c.diagnostics, d)
	c.Logger.WarnContext(c.ctx, "rule diagnostic", "line", d.Line, "column", d.Column, "error", d.Msg)
}

// RuleFunc is a rule body. It mutates c.Tree in place and returns an error
// only when the file cannot be transformed safely.
type RuleFunc func(c *Context, opts Options) error

// Invocation is the input of one Apply call.
type Invocation struct {
	Tree    *syntax.Tree
	Options Options
	Logger  *slog.Logger
}

// Plugin is a wrapped rule body with its metadata.
type Plugin struct {
	body        RuleFunc
	constraint  *semver.Constraints
	options     []OptionSpec
	name        string
	description string
	pkg         string
	dialect     syntax.Dialect
}

// Option configures a Plugin.
type Option func(*Plugin) error

// WithDescription sets the one line description shown by listings.
func WithDescription(desc string) Option {
	return func(p *Plugin) error {
		p.description = desc

		return nil
	}
}

// WithParser declares the dialect the rule prefers when the file extension
// does not decide.
func WithParser(dialect syntax.Dialect) Option {
	return func(p *Plugin) error {
		p.dialect = dialect

		return nil
	}
}

// WithPackage gates the rule on the version of a package the project depends
// on. The rule is skipped when the declared version is known and does not
// satisfy constraint.
func WithPackage(name, constraint string) Option {
	return func(p *Plugin) error {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return fmt.Errorf("package constraint %q: %w", constraint, err)
		}

		p.pkg = name
		p.constraint = c

		return nil
	}
}

// Wrap adapts a rule body into a Plugin.
func Wrap(name string, body RuleFunc, opts ...Option) (*Plugin, error) {
	p := &Plugin{name: name, body: body, dialect: syntax.JavaScript}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
	}

	return p, nil
}

// MustWrap is like Wrap but panics on an invalid option.
func MustWrap(name string, body RuleFunc, opts ...Option) *Plugin {
	p, err := Wrap(name, body, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

// Name returns the rule name.
func (p *Plugin) Name() string { return p.name }

// Description returns the rule description.
func (p *Plugin) Description() string { return p.description }

// Parser returns the preferred dialect.
func (p *Plugin) Parser() syntax.Dialect { return p.dialect }

// Package returns the gating package and constraint, if any.
func (p *Plugin) Package() (name, constraint string) {
	if p.constraint == nil {
		return "", ""
	}

	return p.pkg, p.constraint.String()
}

// Applies reports whether the rule should run for a project whose manifest
// declares deps (package name to version range). Unknown or unparsable
// versions do not block the rule.
func (p *Plugin) Applies(deps map[string]string) bool {
	if p.constraint == nil {
		return true
	}

	declared, ok := deps[p.pkg]
	if !ok {
		return true
	}

	v, err := semver.NewVersion(strings.TrimLeft(strings.TrimSpace(declared), "^~=>v "))
	if err != nil {
		return true
	}

	return p.constraint.Check(v)
}

// Apply runs the rule body on inv.Tree. When the body fails the tree is
// restored to its state before the call, so a failed rule leaves no partial
// edits behind.
func (p *Plugin) Apply(ctx context.Context, inv Invocation) Result {
	logger := inv.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Context{
		Tree:   inv.Tree,
		Logger: logger.With("rule", p.name),
		ctx:    ctx,
		rule:   p.name,
	}

	snap := inv.Tree.Snapshot()
	gen := inv.Tree.Generation()

	err := p.body(c, inv.Options)
	if err != nil {
		var located *Error
		if errors.As(err, &located) && located.Rule == "" {
			located.Rule = p.name
		}

		restoreErr := inv.Tree.Restore(snap)
		if restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("restore tree: %w", restoreErr))
		}

		return Result{Rule: p.name, Status: StatusFailed, Err: err, Diagnostics: c.diagnostics}
	}

	status := StatusUnchanged
	if inv.Tree.Generation() != gen {
		status = StatusApplied
	}

	c.Logger.DebugContext(ctx, "rule finished", "status", status.String(), "diagnostics", len(c.diagnostics))

	return Result{Rule: p.name, Status: status, Diagnostics: c.diagnostics}
}
