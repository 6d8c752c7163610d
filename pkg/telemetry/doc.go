// Package telemetry bootstraps OpenTelemetry for chainline hosts and records
// composition and apply metrics. The engine itself never touches this
// package; instrumentation is strictly a host concern.
package telemetry
