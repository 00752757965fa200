/*
Package observability provides tools for monitoring the sitenav router.

It turns the router's lifecycle hooks into Prometheus metrics and structured log
records. Hooks are plain values, so several of them can be combined with Combine.
*/
package observability
