// Package factory turns tree documents into live node graphs.
//
// A Factory owns a node type registry and the tree definitions registered
// from documents. Instantiate validates the whole tree, including every
// subtree it references, before constructing a single node, so a failed
// build never leaves a partial tree behind.
package factory

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/canopy/internal/compiler"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/aretw0/canopy/pkg/nodes"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/schema"
)

// Factory registers node types and tree definitions and instantiates trees.
type Factory struct {
	registry *registry.Registry
	parser   *compiler.Parser

	mu       sync.RWMutex
	trees    map[string]*schema.Tree
	order    []string
	mainTree string
}

// Option configures a Factory.
type Option func(*factoryOptions)

type factoryOptions struct {
	registry *registry.Registry
	builtins bool
}

// WithRegistry uses r instead of a fresh registry.
func WithRegistry(r *registry.Registry) Option {
	return func(o *factoryOptions) { o.registry = r }
}

// WithoutBuiltins skips registering the built-in node library.
func WithoutBuiltins() Option {
	return func(o *factoryOptions) { o.builtins = false }
}

// New creates a Factory. Unless WithoutBuiltins is given, the built-in node
// library is registered; it panics if that collides with an identifier
// already present in a registry passed with WithRegistry.
func New(opts ...Option) *Factory {
	o := factoryOptions{builtins: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = registry.NewRegistry()
	}
	if o.builtins {
		if err := nodes.RegisterBuiltins(o.registry); err != nil {
			panic(fmt.Sprintf("factory: register builtins: %v", err))
		}
	}
	return &Factory{
		registry: o.registry,
		parser:   compiler.NewParser(),
		trees:    make(map[string]*schema.Tree),
	}
}

// Registry returns the node type registry.
func (f *Factory) Registry() *registry.Registry { return f.registry }

// Register adds a node type.
func (f *Factory) Register(m node.Manifest, ctor node.Constructor) error {
	return f.registry.Register(m, ctor)
}

// RegisterAction registers a function-backed action.
func (f *Factory) RegisterAction(id string, fn node.TickFunc, ports node.PortsList) error {
	return f.Register(node.Manifest{Type: domain.NodeTypeAction, ID: id, Ports: ports}, node.LeafConstructor(fn))
}

// RegisterCondition registers a function-backed condition.
func (f *Factory) RegisterCondition(id string, fn node.TickFunc, ports node.PortsList) error {
	return f.Register(node.Manifest{Type: domain.NodeTypeCondition, ID: id, Ports: ports}, node.LeafConstructor(fn))
}

// RegisterStatefulAction registers an action with an explicit lifecycle.
// newAction is called once per node instance.
func (f *Factory) RegisterStatefulAction(id string, newAction func(cfg *node.Config) node.StatefulAction, ports node.PortsList) error {
	return f.Register(node.Manifest{Type: domain.NodeTypeAction, ID: id, Ports: ports}, func(cfg *node.Config) node.Node {
		return node.NewStatefulAction(cfg, newAction(cfg))
	})
}

// Parse reads a tree document and checks that every node type, port and
// subtree it mentions can be resolved against the registry and the trees
// already registered. It does not register or instantiate anything.
func (f *Factory) Parse(text string) (*schema.Document, error) {
	doc, err := f.parser.Parse([]byte(text))
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	err = validator.ValidateDocument(f.registry, treeSet(f.trees), doc)
	f.mu.RUnlock()
	if err != nil {
		return nil, &domain.ParseError{Msg: "unresolved references", Cause: err}
	}
	return doc, nil
}

// RegisterTreesFromText parses text and registers its trees.
func (f *Factory) RegisterTreesFromText(text string) error {
	doc, err := f.Parse(text)
	if err != nil {
		return err
	}
	return f.RegisterDocument(doc)
}

// RegisterDocument registers the trees of doc. Tree IDs must be unique
// across documents. The first main tree declared wins.
func (f *Factory) RegisterDocument(doc *schema.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkUnique(doc); err != nil {
		return err
	}
	f.register(doc)
	return nil
}

// Source is a named tree document.
type Source struct {
	Name string
	Text []byte
}

// RegisterSources parses several documents that may reference each other's
// trees, validates them as one set and registers all of them or none.
func (f *Factory) RegisterSources(srcs ...Source) error {
	docs := make([]*schema.Document, 0, len(srcs))
	pending := make(treeSet)
	for _, src := range srcs {
		doc, err := f.parser.Parse(src.Text)
		if err != nil {
			return fmt.Errorf("%s: %w", src.Name, err)
		}
		for _, t := range doc.Trees {
			if _, dup := pending[t.ID]; dup {
				return fmt.Errorf("%s: %w", src.Name, &domain.BuildError{Tree: t.ID, Line: t.Line, Kind: domain.ErrDuplicateTree})
			}
			pending[t.ID] = t
		}
		docs = append(docs, doc)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, doc := range docs {
		if err := f.checkUnique(doc); err != nil {
			return fmt.Errorf("%s: %w", srcs[i].Name, err)
		}
	}
	known := maps.Clone(f.trees)
	maps.Copy(known, pending)
	var errs []error
	for i, doc := range docs {
		if err := validator.ValidateDocument(f.registry, treeSet(known), doc); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", srcs[i].Name, err))
		}
	}
	if len(errs) > 0 {
		return &domain.ParseError{Msg: "unresolved references", Cause: schema.Join(errs)}
	}
	for _, doc := range docs {
		f.register(doc)
	}
	return nil
}

func (f *Factory) checkUnique(doc *schema.Document) error {
	for _, t := range doc.Trees {
		if _, dup := f.trees[t.ID]; dup {
			return &domain.BuildError{Tree: t.ID, Line: t.Line, Kind: domain.ErrDuplicateTree}
		}
	}
	return nil
}

func (f *Factory) register(doc *schema.Document) {
	for _, t := range doc.Trees {
		f.trees[t.ID] = t
		f.order = append(f.order, t.ID)
	}
	if f.mainTree == "" {
		f.mainTree = doc.MainTreeID
	}
}

// Tree returns a registered tree definition.
func (f *Factory) Tree(id string) (*schema.Tree, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.trees[id]
	return t, ok
}

// TreeIDs returns registered tree IDs in registration order.
func (f *Factory) TreeIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.order)
}

// MainTree returns the default tree: the declared main tree, or the only
// registered tree. It is empty when neither applies.
func (f *Factory) MainTree() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.mainTree != "" {
		return f.mainTree
	}
	if len(f.order) == 1 {
		return f.order[0]
	}
	return ""
}

// Instantiate builds the tree treeID with every node wired to bb. An empty
// treeID selects MainTree.
func (f *Factory) Instantiate(bb *blackboard.Blackboard, treeID string) (node.Node, error) {
	if treeID == "" {
		if treeID = f.MainTree(); treeID == "" {
			return nil, &domain.BuildError{Kind: domain.ErrUnknownSubTree, Detail: "no tree named and no main tree declared"}
		}
	}
	if bb == nil {
		bb = blackboard.New()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	trees := treeSet(f.trees)
	if err := validator.ValidateTree(f.registry, trees, treeID); err != nil {
		return nil, err
	}
	return f.build(bb, treeID, f.trees[treeID].Root)
}

func (f *Factory) build(bb *blackboard.Blackboard, treeID string, e *schema.Element) (node.Node, error) {
	entry, _ := f.registry.Lookup(e.Tag)
	name := e.Name()
	target, _ := e.Attr(schema.AttrID)
	if e.IsSubTree() {
		if _, named := e.Attr(schema.AttrName); !named {
			name = target
		}
	}

	bindings, err := node.Bind(entry.Manifest, name, e.PortAttributes())
	if err != nil {
		return nil, err
	}
	n := entry.Constructor(node.NewConfig(bb, entry.Manifest, name, bindings))
	if n == nil {
		return nil, &domain.BuildError{Tree: treeID, Node: name, Line: e.Line, Kind: domain.ErrUnknownNodeType,
			Detail: "constructor returned nil"}
	}

	var children []node.Node
	if e.IsSubTree() {
		child, err := f.build(bb, target, f.trees[target].Root)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	for _, ce := range e.Children {
		child, err := f.build(bb, treeID, ce)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return n, nil
	}

	parent, ok := n.(node.Parent)
	if !ok {
		return nil, &domain.BuildError{Tree: treeID, Node: name, Line: e.Line, Kind: domain.ErrInvalidChildren,
			Detail: fmt.Sprintf("%T does not accept children", n)}
	}
	for _, c := range children {
		parent.AddChild(c)
	}
	return n, nil
}

type treeSet map[string]*schema.Tree

func (s treeSet) Tree(id string) (*schema.Tree, bool) {
	t, ok := s[id]
	return t, ok
}
