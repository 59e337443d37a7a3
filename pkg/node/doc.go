/*
Package node defines the contract every tree node implements and the
machinery shared by all of them.

A node type declares its ports once (PortsList) and is registered together
with a Manifest. Each instance receives a Config holding the resolved port
bindings and the blackboard of its tree. Nodes are ticked through Execute,
which records the returned status and enforces the status state machine:

	Idle    --tick--> Running | Success | Failure | Skipped
	Running --tick--> Running | Success | Failure
	any     --reset-> Idle

# Port bindings

A port attribute is bound either to a literal or to a blackboard key:

	foo="42"      literal, converted on read
	foo="{bar}"   blackboard key "bar"
	foo="{=}"     blackboard key "foo" (same as the port name)

For Output and InOut ports a bare identifier such as out="result" is also
taken as a blackboard key, since output literals are never writable.

# Implementing nodes

Every node embeds *Base (or *ControlBase / *DecoratorBase). Leaves can be
written as plain functions with NewLeaf, or as a StatefulAction with
distinct start, running and halted phases.
*/
package node
