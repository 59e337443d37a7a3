package node

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// BindingKind tells whether a port is bound to a literal or a blackboard key.
type BindingKind int

const (
	BindLiteral BindingKind = iota
	BindKey
)

// Binding is the resolved binding of one port of one node instance.
type Binding struct {
	Kind  BindingKind
	Value string
}

func (b Binding) String() string {
	if b.Kind == BindKey {
		return "{" + b.Value + "}"
	}
	return b.Value
}

var keyName = regexp.MustCompile(`^[A-Za-z_@][A-Za-z0-9_.@/-]*$`)

// IsKeyName reports whether s can be used as a bare blackboard key.
func IsKeyName(s string) bool { return keyName.MatchString(s) }

// ParseBinding interprets the raw attribute text bound to port.
func ParseBinding(port string, dir domain.PortDirection, raw string) Binding {
	if key, ok := referencedKey(port, raw); ok {
		return Binding{Kind: BindKey, Value: key}
	}
	if dir.Writable() && IsKeyName(raw) {
		return Binding{Kind: BindKey, Value: raw}
	}
	return Binding{Kind: BindLiteral, Value: raw}
}

func referencedKey(port, raw string) (string, bool) {
	inner, ok := strings.CutPrefix(raw, "{")
	if !ok {
		return "", false
	}
	inner, ok = strings.CutSuffix(inner, "}")
	inner = strings.TrimSpace(inner)
	if !ok || inner == "" {
		return "", false
	}
	if inner == "=" {
		return port, true
	}
	return inner, true
}

// Bind resolves raw attributes against the declared ports of m.
// Attributes naming undeclared ports fail with ErrUnknownPort.
func Bind(m Manifest, name string, attrs map[string]string) (map[string]Binding, error) {
	out := make(map[string]Binding, len(attrs))
	for port, raw := range attrs {
		info, ok := m.Ports[port]
		if !ok {
			return nil, &domain.PortError{Node: name, Port: port, Kind: domain.ErrUnknownPort,
				Cause: fmt.Errorf("%s declares %v", m.ID, m.Ports.Names())}
		}
		out[port] = ParseBinding(port, info.Direction, raw)
	}
	return out, nil
}
