package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/schema"
)

// Types resolves node type identifiers. *registry.Registry implements it.
type Types interface {
	Lookup(id string) (registry.Entry, bool)
}

// Trees resolves tree definitions by ID.
type Trees interface {
	Tree(id string) (*schema.Tree, bool)
}

const (
	white = iota
	gray
	black
)

type checker struct {
	types Types
	trees Trees
	color map[string]int
	stack []string
	errs  []error
}

// ValidateTree checks treeID and every tree reachable from it through
// SubTree references: node types, port names, child counts, subtree targets
// and reference cycles. All problems are reported together.
func ValidateTree(types Types, trees Trees, treeID string) error {
	c := &checker{types: types, trees: trees, color: map[string]int{}}
	c.visit(treeID, 0)
	return schema.Join(c.errs)
}

// ValidateDocument runs ValidateTree for every tree of doc. Trees of doc are
// resolved before falling back to others.
func ValidateDocument(types Types, others Trees, doc *schema.Document) error {
	c := &checker{types: types, trees: overlay{doc, others}, color: map[string]int{}}
	for _, t := range doc.Trees {
		c.visit(t.ID, t.Line)
	}
	return schema.Join(c.errs)
}

type overlay struct {
	doc    *schema.Document
	others Trees
}

func (o overlay) Tree(id string) (*schema.Tree, bool) {
	if t, ok := o.doc.Tree(id); ok {
		return t, true
	}
	if o.others == nil {
		return nil, false
	}
	return o.others.Tree(id)
}

func (c *checker) fail(tree string, e *schema.Element, kind error, format string, args ...any) {
	err := &domain.BuildError{Tree: tree, Kind: kind, Detail: fmt.Sprintf(format, args...)}
	if e != nil {
		err.Node = e.Name()
		err.Line = e.Line
	}
	c.errs = append(c.errs, err)
}

func (c *checker) visit(treeID string, line int) {
	switch c.color[treeID] {
	case black:
		return
	case gray:
		cycle := append(slices.Clone(c.stack[indexOf(c.stack, treeID):]), treeID)
		c.errs = append(c.errs, &domain.BuildError{Tree: treeID, Line: line, Kind: domain.ErrCyclicSubTree,
			Detail: strings.Join(cycle, " -> ")})
		return
	}

	tree, ok := c.trees.Tree(treeID)
	if !ok {
		c.errs = append(c.errs, &domain.BuildError{Tree: treeID, Line: line, Kind: domain.ErrUnknownSubTree})
		return
	}

	c.color[treeID] = gray
	c.stack = append(c.stack, treeID)
	c.element(treeID, tree.Root)
	c.stack = c.stack[:len(c.stack)-1]
	c.color[treeID] = black
}

func (c *checker) element(treeID string, e *schema.Element) {
	entry, ok := c.types.Lookup(e.Tag)
	if !ok {
		c.fail(treeID, e, domain.ErrUnknownNodeType, "<%s>", e.Tag)
	} else {
		c.ports(treeID, e, entry.Manifest)
		c.children(treeID, e, entry.Manifest.Type)
	}

	if e.IsSubTree() {
		target, _ := e.Attr(schema.AttrID)
		if target == "" {
			c.fail(treeID, e, domain.ErrUnknownSubTree, "missing %s attribute", schema.AttrID)
		} else {
			c.visit(target, e.Line)
		}
	}

	for _, child := range e.Children {
		c.element(treeID, child)
	}
}

func (c *checker) ports(treeID string, e *schema.Element, m node.Manifest) {
	bindings, err := node.Bind(m, e.Name(), e.PortAttributes())
	if err != nil {
		var pe *domain.PortError
		if errors.As(err, &pe) {
			c.fail(treeID, e, pe.Kind, "attribute %q is not a port of %s", pe.Port, m.ID)
		} else {
			c.fail(treeID, e, domain.ErrUnknownPort, "%v", err)
		}
		return
	}
	for port, b := range bindings {
		if m.Ports[port].Direction.Writable() && b.Kind == node.BindLiteral {
			c.fail(treeID, e, domain.ErrLiteralOutput, "%s=%q", port, b.Value)
		}
	}
}

func (c *checker) children(treeID string, e *schema.Element, t domain.NodeType) {
	n := len(e.Children)
	switch t {
	case domain.NodeTypeControl:
		if n == 0 {
			c.fail(treeID, e, domain.ErrInvalidChildren, "%s needs at least one child", t)
		}
	case domain.NodeTypeDecorator:
		if n != 1 {
			c.fail(treeID, e, domain.ErrInvalidChildren, "%s needs exactly one child, has %d", t, n)
		}
	default:
		if n != 0 {
			c.fail(treeID, e, domain.ErrInvalidChildren, "%s cannot have children, has %d", t, n)
		}
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}
