/*
Package observability provides tools for monitoring the Quill orchestrator.

It includes lifecycle hooks for structured logging, Prometheus metrics for
transformations and state transitions, and a recorder that keeps a history of
state changes and streams them to watchers.
*/
package observability
