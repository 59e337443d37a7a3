package node

import (
	"maps"
	"slices"

	"github.com/aretw0/canopy/pkg/domain"
)

// PortInfo describes one declared port of a node type.
type PortInfo struct {
	Direction   domain.PortDirection
	Description string
	Default     any
	HasDefault  bool
}

// PortsList maps port names to their declaration.
type PortsList map[string]PortInfo

// Names returns the declared port names in sorted order.
func (p PortsList) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// PortDecl is a named PortInfo, used to build a PortsList.
type PortDecl struct {
	Name string
	PortInfo
}

func InputPort(name string) PortDecl {
	return PortDecl{Name: name, PortInfo: PortInfo{Direction: domain.PortInput}}
}

func OutputPort(name string) PortDecl {
	return PortDecl{Name: name, PortInfo: PortInfo{Direction: domain.PortOutput}}
}

func BidirectionalPort(name string) PortDecl {
	return PortDecl{Name: name, PortInfo: PortInfo{Direction: domain.PortInOut}}
}

// WithDefault sets the value used when the port is left unbound. A string
// default may itself be a blackboard reference such as "{key}".
func (d PortDecl) WithDefault(v any) PortDecl {
	d.Default = v
	d.HasDefault = true
	return d
}

func (d PortDecl) Describe(text string) PortDecl {
	d.Description = text
	return d
}

// Ports builds a PortsList. Later declarations override earlier ones with the same name.
func Ports(decls ...PortDecl) PortsList {
	out := make(PortsList, len(decls))
	for _, d := range decls {
		out[d.Name] = d.PortInfo
	}
	return out
}

// Manifest is the static description of a registered node type.
type Manifest struct {
	Type        domain.NodeType
	ID          string
	Ports       PortsList
	Description string
}
