package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Structured errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	ErrNoMatch               = errors.New("no match")
	ErrKeyNotFound           = errors.New("key not found")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrPortNotDeclared       = errors.New("port not declared")
	ErrPortNotResolved       = errors.New("port not resolved")
	ErrUnknownPort           = errors.New("unknown port")
	ErrWrongDirection        = errors.New("wrong port direction")
	ErrLiteralOutput         = errors.New("output port bound to a literal")
	ErrUnknownNodeType       = errors.New("unknown node type")
	ErrUnknownSubTree        = errors.New("unknown subtree")
	ErrCyclicSubTree         = errors.New("cyclic subtree reference")
	ErrDuplicateRegistration = errors.New("node type already registered")
	ErrDuplicateTree         = errors.New("tree already registered")
	ErrInvalidChildren       = errors.New("invalid number of children")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrHalted                = errors.New("halted")
)

// ConversionError is returned when text cannot be converted to a typed value.
type ConversionError struct {
	Text   string
	Target string
	Cause  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s: %v", e.Text, e.Target, e.Cause)
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// BlackboardError reports a failed blackboard read.
type BlackboardError struct {
	Key   string
	Kind  error
	Cause error
}

func (e *BlackboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("blackboard %q: %v: %v", e.Key, e.Kind, e.Cause)
	}
	return fmt.Sprintf("blackboard %q: %v", e.Key, e.Kind)
}

func (e *BlackboardError) Unwrap() []error { return compact(e.Kind, e.Cause) }

// PortError reports a failure to resolve or write a node port.
type PortError struct {
	Node  string
	Port  string
	Kind  error
	Cause error
}

func (e *PortError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "port %q", e.Port)
	if e.Node != "" {
		fmt.Fprintf(&b, " of %q", e.Node)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *PortError) Unwrap() []error { return compact(e.Kind, e.Cause) }

// BuildError is returned by the factory when a tree cannot be instantiated.
type BuildError struct {
	Tree   string
	Node   string
	Line   int
	Detail string
	Kind   error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString("build")
	if e.Tree != "" {
		fmt.Fprintf(&b, " tree %q", e.Tree)
	}
	if e.Node != "" {
		fmt.Fprintf(&b, " node %q", e.Node)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Kind }

// ParseError is returned when a tree document is malformed or references
// entities that cannot be resolved.
type ParseError struct {
	Line  int
	Msg   string
	Cause error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, msg)
	}
	return "parse error: " + msg
}

func (e *ParseError) Unwrap() error { return e.Cause }

// NodeError wraps a failure raised while ticking a node. Path is the
// slash-separated chain of node names from the root.
type NodeError struct {
	Path  string
	Cause error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Path, e.Cause)
}

func (e *NodeError) Unwrap() error { return e.Cause }

func compact(errs ...error) []error {
	out := errs[:0]
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
