package domain

import (
	"fmt"

	"github.com/muesli/termenv"
)

// Status is the outcome reported by a node after a tick.
type Status int

const (
	// StatusIdle is the only valid state before the first tick and after a reset.
	StatusIdle Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
	// StatusSkipped is only produced by a node's own gating policy.
	StatusSkipped
)

var statusNames = [...]string{
	StatusIdle:    "IDLE",
	StatusRunning: "RUNNING",
	StatusSuccess: "SUCCESS",
	StatusFailure: "FAILURE",
	StatusSkipped: "SKIPPED",
}

var statusColors = [...]termenv.ANSIColor{
	StatusIdle:    termenv.ANSICyan,
	StatusRunning: termenv.ANSIYellow,
	StatusSuccess: termenv.ANSIGreen,
	StatusFailure: termenv.ANSIRed,
	StatusSkipped: termenv.ANSIBlue,
}

// IsActive reports whether the node has been ticked and not skipped.
func (s Status) IsActive() bool {
	return s == StatusRunning || s == StatusSuccess || s == StatusFailure
}

// IsCompleted reports whether the status is terminal for the current cycle.
func (s Status) IsCompleted() bool {
	return s == StatusSuccess || s == StatusFailure
}

func (s Status) valid() bool {
	return s >= StatusIdle && s <= StatusSkipped
}

func (s Status) String() string {
	if !s.valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ColorString renders the status wrapped in its ANSI color.
func (s Status) ColorString() string {
	return s.Colored(termenv.ANSI)
}

// Colored renders the status for the given color profile. termenv.Ascii yields plain text.
func (s Status) Colored(p termenv.Profile) string {
	if !s.valid() {
		return s.String()
	}
	return p.String(s.String()).Foreground(p.Convert(statusColors[s])).String()
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(text string) (Status, error) {
	for i, name := range statusNames {
		if name == text {
			return Status(i), nil
		}
	}
	return StatusIdle, &ConversionError{Text: text, Target: "Status", Cause: ErrNoMatch}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// NodeType is the structural category of a node.
type NodeType int

const (
	NodeTypeUndefined NodeType = iota
	NodeTypeAction
	NodeTypeCondition
	NodeTypeControl
	NodeTypeDecorator
	NodeTypeSubTree
)

var nodeTypeNames = [...]string{
	NodeTypeUndefined: "Undefined",
	NodeTypeAction:    "Action",
	NodeTypeCondition: "Condition",
	NodeTypeControl:   "Control",
	NodeTypeDecorator: "Decorator",
	NodeTypeSubTree:   "SubTree",
}

func (t NodeType) String() string {
	if t < NodeTypeUndefined || t > NodeTypeSubTree {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// IsLeaf reports whether nodes of this type never own children.
func (t NodeType) IsLeaf() bool {
	return t == NodeTypeAction || t == NodeTypeCondition
}

func ParseNodeType(text string) (NodeType, error) {
	for i, name := range nodeTypeNames {
		if name == text {
			return NodeType(i), nil
		}
	}
	return NodeTypeUndefined, &ConversionError{Text: text, Target: "NodeType", Cause: ErrNoMatch}
}

func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *NodeType) UnmarshalText(text []byte) error {
	v, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// PortDirection describes how a node uses a port.
type PortDirection int

const (
	PortInput PortDirection = iota
	PortOutput
	PortInOut
)

var portDirectionNames = [...]string{
	PortInput:  "Input",
	PortOutput: "Output",
	PortInOut:  "InOut",
}

func (d PortDirection) String() string {
	if d < PortInput || d > PortInOut {
		return fmt.Sprintf("PortDirection(%d)", int(d))
	}
	return portDirectionNames[d]
}

// Readable reports whether a node may read the port.
func (d PortDirection) Readable() bool { return d == PortInput || d == PortInOut }

// Writable reports whether a node may write the port.
func (d PortDirection) Writable() bool { return d == PortOutput || d == PortInOut }

func ParsePortDirection(text string) (PortDirection, error) {
	for i, name := range portDirectionNames {
		if name == text {
			return PortDirection(i), nil
		}
	}
	return PortInput, &ConversionError{Text: text, Target: "PortDirection", Cause: ErrNoMatch}
}

func (d PortDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *PortDirection) UnmarshalText(text []byte) error {
	v, err := ParsePortDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
