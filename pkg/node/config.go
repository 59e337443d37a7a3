package node

import (
	"fmt"
	"maps"

	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/convert"
	"github.com/aretw0/canopy/pkg/domain"
)

// Config is the per-instance configuration of a node: its identity, resolved
// port bindings and the blackboard of its tree. It is immutable once built.
type Config struct {
	name     string
	manifest Manifest
	bindings map[string]Binding
	bb       *blackboard.Blackboard
}

// NewConfig builds a Config. Bindings are copied.
func NewConfig(bb *blackboard.Blackboard, m Manifest, name string, bindings map[string]Binding) *Config {
	if name == "" {
		name = m.ID
	}
	return &Config{
		name:     name,
		manifest: m,
		bindings: maps.Clone(bindings),
		bb:       bb,
	}
}

func (c *Config) Name() string                       { return c.name }
func (c *Config) Manifest() Manifest                 { return c.manifest }
func (c *Config) Blackboard() *blackboard.Blackboard { return c.bb }

// Binding returns the binding of port, if the port was bound.
func (c *Config) Binding(port string) (Binding, bool) {
	b, ok := c.bindings[port]
	return b, ok
}

func (c *Config) portErr(port string, kind, cause error) error {
	return &domain.PortError{Node: c.name, Port: port, Kind: kind, Cause: cause}
}

// GetInput resolves the input port name of cfg as a T.
func GetInput[T any](cfg *Config, name string) (T, error) {
	var zero T
	info, ok := cfg.manifest.Ports[name]
	if !ok {
		return zero, cfg.portErr(name, domain.ErrPortNotDeclared, nil)
	}
	if !info.Direction.Readable() {
		return zero, cfg.portErr(name, domain.ErrWrongDirection, nil)
	}

	if b, ok := cfg.bindings[name]; ok {
		return resolve[T](cfg, name, b)
	}

	if !info.HasDefault {
		return zero, cfg.portErr(name, domain.ErrPortNotResolved, nil)
	}
	if s, ok := info.Default.(string); ok {
		return resolve[T](cfg, name, ParseBinding(name, domain.PortInput, s))
	}
	v, err := convert.Convert[T](info.Default)
	if err != nil {
		// Declared defaults are untyped; retry through text so that a
		// default of 16 can be read as uint32.
		if v, err = convert.FromText[T](convert.ToText(info.Default)); err != nil {
			return zero, cfg.portErr(name, domain.ErrTypeMismatch, err)
		}
	}
	return v, nil
}

func resolve[T any](cfg *Config, name string, b Binding) (T, error) {
	if b.Kind == BindLiteral {
		v, err := convert.FromText[T](b.Value)
		if err != nil {
			return v, cfg.portErr(name, domain.ErrTypeMismatch, err)
		}
		return v, nil
	}
	v, err := blackboard.Read[T](cfg.bb, b.Value)
	if err != nil {
		return v, fmt.Errorf("input port %q of %q: %w", name, cfg.name, err)
	}
	return v, nil
}

// SetOutput writes value through the output port name.
func (c *Config) SetOutput(name string, value any) error {
	info, ok := c.manifest.Ports[name]
	if !ok {
		return c.portErr(name, domain.ErrPortNotDeclared, nil)
	}
	if !info.Direction.Writable() {
		return c.portErr(name, domain.ErrWrongDirection, nil)
	}

	b, ok := c.bindings[name]
	if !ok {
		s, isText := info.Default.(string)
		if !info.HasDefault || !isText {
			return c.portErr(name, domain.ErrPortNotResolved, nil)
		}
		b = ParseBinding(name, info.Direction, s)
	}
	if b.Kind != BindKey {
		return c.portErr(name, domain.ErrLiteralOutput, fmt.Errorf("bound to %q", b.Value))
	}
	c.bb.Write(b.Value, value)
	return nil
}

// OutputKey returns the blackboard key the output port name writes to.
func (c *Config) OutputKey(name string) (string, bool) {
	b, ok := c.bindings[name]
	if !ok || b.Kind != BindKey {
		return "", false
	}
	return b.Value, true
}
