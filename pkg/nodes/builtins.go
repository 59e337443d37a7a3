// Package nodes is the built-in node library: control flow, decorators and a
// handful of utility leaves.
package nodes

import (
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// Registrar is satisfied by *registry.Registry.
type Registrar interface {
	Register(m node.Manifest, ctor node.Constructor) error
}

// SubTreeID is the identifier of the node that embeds another tree.
const SubTreeID = "SubTree"

type builtin struct {
	manifest node.Manifest
	ctor     node.Constructor
}

func builtins() []builtin {
	control := func(id, desc string, ctor node.Constructor, ports ...node.PortDecl) builtin {
		return builtin{node.Manifest{Type: domain.NodeTypeControl, ID: id, Description: desc, Ports: node.Ports(ports...)}, ctor}
	}
	decorator := func(id, desc string, ctor node.Constructor, ports ...node.PortDecl) builtin {
		return builtin{node.Manifest{Type: domain.NodeTypeDecorator, ID: id, Description: desc, Ports: node.Ports(ports...)}, ctor}
	}
	action := func(id, desc string, ctor node.Constructor, ports ...node.PortDecl) builtin {
		return builtin{node.Manifest{Type: domain.NodeTypeAction, ID: id, Description: desc, Ports: node.Ports(ports...)}, ctor}
	}
	condition := func(id, desc string, ctor node.Constructor, ports ...node.PortDecl) builtin {
		return builtin{node.Manifest{Type: domain.NodeTypeCondition, ID: id, Description: desc, Ports: node.Ports(ports...)}, ctor}
	}

	return []builtin{
		control("Sequence", "Ticks children in order until one fails or is running.", NewSequence),
		control("ReactiveSequence", "Like Sequence, but restarts from the first child on every tick.", NewReactiveSequence),
		control("Fallback", "Ticks children in order until one succeeds or is running.", NewFallback),
		control("ReactiveFallback", "Like Fallback, but restarts from the first child on every tick.", NewReactiveFallback),
		control("Parallel", "Ticks every child each round and combines them by thresholds.", NewParallel,
			node.InputPort("success_count").WithDefault(-1).Describe("successes needed; negative counts back from the number of children"),
			node.InputPort("failure_count").WithDefault(1).Describe("failures that make the node fail"),
			node.InputPort("concurrent").WithDefault(false).Describe("tick children on separate goroutines"),
		),

		decorator("Inverter", "Swaps Success and Failure.", NewInverter),
		decorator("ForceSuccess", "Turns a completed child into Success.", NewForceSuccess),
		decorator("ForceFailure", "Turns a completed child into Failure.", NewForceFailure),
		decorator("RetryUntilSuccessful", "Retries a failing child up to num_attempts times.", NewRetry,
			node.InputPort("num_attempts").Describe("attempts before failing, -1 for unlimited"),
		),
		decorator("Repeat", "Repeats a succeeding child num_cycles times.", NewRepeat,
			node.InputPort("num_cycles").Describe("repetitions, -1 for unlimited"),
		),
		decorator("Timeout", "Halts the child and fails once msec elapsed.", NewTimeout,
			node.InputPort("msec").Describe("time budget in milliseconds"),
		),
		decorator("Precondition", "Ticks the child only when the expression holds.", NewPrecondition,
			node.InputPort("if").Describe("expression evaluated against the blackboard"),
			node.InputPort("else").WithDefault("FAILURE").Describe("status returned when the expression is false"),
		),
		{node.Manifest{Type: domain.NodeTypeSubTree, ID: SubTreeID, Description: "Ticks the root of another tree."}, NewSubTree},

		action("AlwaysSuccess", "Returns Success.", node.LeafConstructor(always(domain.StatusSuccess))),
		action("AlwaysFailure", "Returns Failure.", node.LeafConstructor(always(domain.StatusFailure))),
		action("SetBlackboard", "Copies value into the blackboard entry named by output_key.", node.LeafConstructor(setBlackboard),
			node.InputPort("value").Describe("literal or {key} to copy"),
			node.BidirectionalPort("output_key").Describe("destination key"),
		),
		action("Sleep", "Stays Running for msec milliseconds.", NewSleep,
			node.InputPort("msec").Describe("duration in milliseconds"),
		),
		condition("ScriptCondition", "Evaluates a boolean expression over the blackboard.", node.LeafConstructor(scriptCondition),
			node.InputPort("code").Describe("expression, e.g. count > 2"),
		),
	}
}

// RegisterBuiltins registers the built-in node library into r.
func RegisterBuiltins(r Registrar) error {
	for _, b := range builtins() {
		if err := r.Register(b.manifest, b.ctor); err != nil {
			return err
		}
	}
	return nil
}
