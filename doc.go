/*
Package canopy is a behavior tree engine for Go.

Trees are declared in XML documents, built from a registry of node types and
ticked by a driver that owns a shared blackboard. Nodes exchange data through
typed ports bound either to literal text or to blackboard keys.

# Concept

A behavior tree is re-evaluated from the root on every tick. Each node returns
a Status: RUNNING when it needs more ticks, SUCCESS or FAILURE when it is done,
SKIPPED when it chose not to run. Control nodes (Sequence, Fallback, Parallel)
decide which children to tick; decorators transform a single child; leaves do
the actual work. A running branch that is abandoned is halted, so long-lived
actions can release what they hold.

# Key Features

  - Typed ports: GetInput[T] converts literals or blackboard values into T.
  - Registry and Factory: node types are registered once and instantiated per
    tree; a document is fully validated before any node is constructed.
  - Stateful actions with a cooperative halt token and context cancellation.
  - Lifecycle hooks for tick and status-change events (Prometheus metrics,
    Redis mirroring and an HTTP inspection server are provided as adapters).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/canopy"
	)

	const doc = `
	<root main_tree_to_execute="main">
	  <BehaviorTree ID="main">
	    <Sequence>
	      <SetBlackboard value="42" output_key="answer"/>
	      <ScriptCondition code="answer == '42'"/>
	    </Sequence>
	  </BehaviorTree>
	</root>`

	func main() {
		eng := canopy.New()
		if err := eng.LoadText(doc); err != nil {
			log.Fatal(err)
		}

		tree, err := eng.Instantiate(nil, "")
		if err != nil {
			log.Fatal(err)
		}

		status, err := tree.TickWhileRunning(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(status) // SUCCESS
	}
*/
package canopy
