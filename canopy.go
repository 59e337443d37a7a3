package canopy

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/factory"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/schema"
)

// Tree is an instantiated behavior tree bound to one blackboard.
type Tree = runtime.Tree

// IsHalted reports whether err stems from a tree being halted.
func IsHalted(err error) bool { return runtime.IsHalted(err) }

// Engine is the high-level entry point for the canopy library.
// It owns the node type registry and the registered tree definitions, and
// hands out runnable Trees.
type Engine struct {
	factory  *factory.Factory
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	interval time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger, passed on to every Tree.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every Tree. Calling it
// more than once chains the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.ChainHooks(e.hooks, hooks)
	}
}

// WithTickInterval sets the pause between rounds of Tree.TickWhileRunning.
// Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithRegistry shares a node type registry between engines. The built-in
// nodes are registered into it unless it already holds them.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// New initializes an Engine with the built-in node library registered.
func New(opts ...Option) *Engine {
	eng := &Engine{interval: runtime.DefaultTickInterval}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var factoryOpts []factory.Option
	if eng.registry != nil {
		factoryOpts = append(factoryOpts, factory.WithRegistry(eng.registry))
		if _, ok := eng.registry.Lookup("Sequence"); ok {
			factoryOpts = append(factoryOpts, factory.WithoutBuiltins())
		}
	}
	eng.factory = factory.New(factoryOpts...)
	eng.registry = eng.factory.Registry()
	return eng
}

// Factory returns the underlying factory.
func (e *Engine) Factory() *factory.Factory { return e.factory }

// Registry returns the node type registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Register adds a node type.
func (e *Engine) Register(m node.Manifest, ctor node.Constructor) error {
	return e.factory.Register(m, ctor)
}

// RegisterAction registers a function-backed action.
func (e *Engine) RegisterAction(id string, fn node.TickFunc, ports node.PortsList) error {
	return e.factory.RegisterAction(id, fn, ports)
}

// RegisterCondition registers a function-backed condition.
func (e *Engine) RegisterCondition(id string, fn node.TickFunc, ports node.PortsList) error {
	return e.factory.RegisterCondition(id, fn, ports)
}

// RegisterStatefulAction registers an action with OnStart/OnRunning/OnHalted.
func (e *Engine) RegisterStatefulAction(id string, newAction func(cfg *node.Config) node.StatefulAction, ports node.PortsList) error {
	return e.factory.RegisterStatefulAction(id, newAction, ports)
}

// LoadText registers the trees of one document.
func (e *Engine) LoadText(text string) error {
	return e.factory.RegisterTreesFromText(text)
}

// LoadFiles reads and registers documents from disk. The files are
// validated together, so they may reference each other's trees.
func (e *Engine) LoadFiles(paths ...string) error {
	srcs := make([]factory.Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read tree document: %w", err)
		}
		srcs = append(srcs, factory.Source{Name: filepath.Base(p), Text: data})
	}
	return e.factory.RegisterSources(srcs...)
}

// Load registers every document the loader lists.
func (e *Engine) Load(loader ports.DocumentLoader) error {
	names, err := loader.ListDocuments()
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	srcs := make([]factory.Source, 0, len(names))
	for _, name := range names {
		data, err := loader.GetDocument(name)
		if err != nil {
			return fmt.Errorf("failed to load document %s: %w", name, err)
		}
		srcs = append(srcs, factory.Source{Name: name, Text: data})
	}
	e.logger.Debug("loading tree documents", "count", len(srcs))
	return e.factory.RegisterSources(srcs...)
}

// Validate parses text and checks it against the registry and the trees
// already loaded, without registering anything.
func (e *Engine) Validate(text string) (*schema.Document, error) {
	return e.factory.Parse(text)
}

// Trees returns the IDs of the registered trees in registration order.
func (e *Engine) Trees() []string { return e.factory.TreeIDs() }

// MainTree returns the tree Instantiate uses when given an empty ID.
func (e *Engine) MainTree() string { return e.factory.MainTree() }

// Instantiate builds treeID (or the main tree when empty) on bb. A nil bb
// gets a fresh blackboard.
func (e *Engine) Instantiate(bb *blackboard.Blackboard, treeID string) (*Tree, error) {
	if treeID == "" {
		treeID = e.factory.MainTree()
	}
	if bb == nil {
		bb = blackboard.New()
	}
	root, err := e.factory.Instantiate(bb, treeID)
	if err != nil {
		return nil, err
	}
	return runtime.New(treeID, root, bb,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithTickInterval(e.interval),
	), nil
}
