/*
Package observability turns tree lifecycle events into Prometheus metrics and
structured log lines. Both are plain domain.LifecycleHooks values and can be
combined with domain.ChainHooks.
*/
package observability
