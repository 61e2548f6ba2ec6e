package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// Sentinel errors for transformation failures.
var (
	// ErrUnsupportedPattern marks a call site whose shape the rule cannot rewrite.
	// It is recorded per occurrence and does not stop the rule.
	ErrUnsupportedPattern = errors.New("unsupported pattern")
	// ErrInvalidConfigValue marks a literal configuration value outside the
	// rule's policy table. It aborts the rule for the whole file.
	ErrInvalidConfigValue = errors.New("invalid config value")
	// ErrCollisionUnresolved is returned when no free local name could be derived.
	ErrCollisionUnresolved = errors.New("binding name collision could not be resolved")
	// ErrEmptySource is returned for an empty module source.
	ErrEmptySource = errors.New("module source must not be empty")
	// ErrEmptyName is returned for an import request without an imported name.
	ErrEmptyName = errors.New("imported name must not be empty")
	// ErrUnknownOption is returned for a rule option the rule does not declare.
	ErrUnknownOption = errors.New("unknown rule option")
	// ErrOptionType is returned for an option value of the wrong type.
	ErrOptionType = errors.New("rule option has the wrong type")
)

// ErrorKind classifies an Error.
type ErrorKind uint8

// Error kinds.
const (
	KindUnsupportedPattern ErrorKind = iota
	KindInvalidConfigValue
	KindCollisionUnresolved
)

var errorKindSentinels = [...]error{
	KindUnsupportedPattern:  ErrUnsupportedPattern,
	KindInvalidConfigValue:  ErrInvalidConfigValue,
	KindCollisionUnresolved: ErrCollisionUnresolved,
}

// Error is a located transformation error.
type Error struct {
	Rule   string
	Value  string
	Detail string
	Line   int
	Column int
	Kind   ErrorKind
}

// Unsupported builds an unsupported pattern error located at n.
func Unsupported(n *syntax.Node, detail string) *Error {
	return newError(KindUnsupportedPattern, n, "", detail)
}

// InvalidConfig builds an invalid config value error located at n.
func InvalidConfig(n *syntax.Node, value, detail string) *Error {
	return newError(KindInvalidConfigValue, n, value, detail)
}

func newError(kind ErrorKind, n *syntax.Node, value, detail string) *Error {
	e := &Error{Kind: kind, Value: value, Detail: detail}
	if n != nil {
		e.Line, e.Column = n.Pos.Line, n.Pos.Column
	}

	return e
}

// Error implements error.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Rule != "" {
		sb.WriteString(e.Rule)
		sb.WriteString(": ")
	}

	sb.WriteString(e.sentinel().Error())

	if e.Value != "" {
		fmt.Fprintf(&sb, " %q", e.Value)
	}

	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	if e.Line > 0 {
		fmt.Fprintf(&sb, " at %d:%d", e.Line, e.Column)
	}

	return sb.String()
}

// Is matches the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	if int(e.Kind) < len(errorKindSentinels) {
		return errorKindSentinels[e.Kind]
	}

	return ErrUnsupportedPattern
}
