// Package engine implements registry-backed composition of ordered
// transformation pipelines.
//
// Architecture:
//
// registry.go - Registry: named transformations, construct-then-freeze lifecycle
// composer.go - Compose: resolve an order list against a snapshot and fold it
// pipeline.go - Pipeline: the composed artifact, safe for concurrent Apply
//
// The engine is a pure library: it never logs, never retries, and performs no
// I/O. Hosts decide what to do with structured errors and skip reports.
package engine
