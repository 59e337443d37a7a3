/*
Package ports defines the driven ports (interfaces) of the canopy engine.

These interfaces decouple the core from where tree documents come from and
from whoever watches a running tree.

# Key Interfaces

  - DocumentLoader: lists and reads raw tree documents (memory, directory).
  - Inspector: read-only view plus halt control of a running tree, used by the
    inspection server.
*/
package ports
