// Package metrics provides observability hooks for site builds.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods that inline to nothing at compile time.
//
// # Architecture
//
// The metrics system has three components:
//
//  1. Recorder interface - Defines all metrics operations
//  2. NoopRecorder - Default implementation that does nothing (zero overhead)
//  3. PrometheusRecorder - Real implementation backed by prometheus/client_golang
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	type Builder struct {
//	    recorder metrics.Recorder
//	}
//
//	func NewBuilder() *Builder {
//	    return &Builder{
//	        recorder: metrics.NoopRecorder{}, // Default: no metrics
//	    }
//	}
//
// # Activation
//
// The preview server swaps in a PrometheusRecorder and serves the registry
// on /metrics:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
//
// One-shot builds keep the NoopRecorder unless metrics are explicitly enabled.
package metrics
