// Package runtime drives instantiated trees: it ticks the root, idles
// between rounds, propagates tick errors and implements halting.
package runtime
