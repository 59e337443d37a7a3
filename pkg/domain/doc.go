/*
Package domain contains the core vocabulary of the Canopy behavior-tree engine.

It defines the status model every node reports, the node and port taxonomies,
the error kinds produced while building and ticking trees, and the lifecycle
hooks used for observability. The package is kept pure and free of I/O so that
every other layer can depend on it.

# Key Entities

  - Status: the outcome of a single tick (Idle, Running, Success, Failure, Skipped).
  - NodeType: the structural category of a node (Action, Condition, Control, ...).
  - PortDirection: how a node uses a port (Input, Output, InOut).
  - LifecycleHooks: callbacks fired by the driver and by node execution.
*/
package domain
