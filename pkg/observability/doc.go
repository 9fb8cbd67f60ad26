/*
Package observability turns engine lifecycle events into Prometheus metrics and
structured log lines.

Both are plain domain.LifecycleHooks, so they compose with each other and with
any caller hooks through LifecycleHooks.Merge.
*/
package observability
