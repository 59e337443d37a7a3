package node

import "github.com/aretw0/canopy/pkg/domain"

// Parent is implemented by nodes that own children.
type Parent interface {
	Node
	AddChild(child Node)
	Children() []Node
}

// ControlBase is embedded by nodes owning an ordered list of children.
type ControlBase struct {
	*Base
	children []Node
}

func NewControlBase(cfg *Config) *ControlBase {
	return &ControlBase{Base: NewBase(cfg)}
}

func (c *ControlBase) AddChild(child Node) { c.children = append(c.children, child) }
func (c *ControlBase) Children() []Node    { return c.children }

// ResetChildren halts every running child and returns all children to Idle.
func (c *ControlBase) ResetChildren() {
	for _, child := range c.children {
		Reset(child)
	}
}

// ResetChildrenFrom resets the children at index i and later.
func (c *ControlBase) ResetChildrenFrom(i int) {
	for _, child := range c.children[i:] {
		Reset(child)
	}
}

func (c *ControlBase) Halt() { c.ResetChildren() }

// DecoratorBase is embedded by nodes wrapping exactly one child.
type DecoratorBase struct {
	*Base
	child Node
}

func NewDecoratorBase(cfg *Config) *DecoratorBase {
	return &DecoratorBase{Base: NewBase(cfg)}
}

// AddChild sets the wrapped child, replacing any previous one.
func (d *DecoratorBase) AddChild(child Node) { d.child = child }

func (d *DecoratorBase) Child() Node { return d.child }

func (d *DecoratorBase) Children() []Node {
	if d.child == nil {
		return nil
	}
	return []Node{d.child}
}

// ResetChild halts the child if it is running and returns it to Idle.
func (d *DecoratorBase) ResetChild() {
	if d.child != nil {
		Reset(d.child)
	}
}

func (d *DecoratorBase) Halt() { d.ResetChild() }

// Walk visits root and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func Walk(root Node, fn func(n Node, depth int) bool) {
	walk(root, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	if p, ok := n.(Parent); ok {
		for _, child := range p.Children() {
			walk(child, depth+1, fn)
		}
	}
}

// Snapshot captures the status of root and all its descendants.
func Snapshot(root Node) *domain.NodeSnapshot {
	s := &domain.NodeSnapshot{
		Name:   root.Name(),
		ID:     root.RegistrationID(),
		Type:   root.Type(),
		Status: root.Status(),
	}
	if p, ok := root.(Parent); ok {
		for _, child := range p.Children() {
			s.Children = append(s.Children, Snapshot(child))
		}
	}
	return s
}
