// Package metrics provides an observability framework for tmpwrap lifecycle metrics.
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
//  3. PrometheusRecorder - Real implementation, activated via configuration
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	mgr := tmpdir.NewManager(sink, tmpdir.WithRecorder(recorder))
//
// Metrics are recorded only; there is no scrape endpoint in this tool. A host
// that embeds the lifecycle can register the recorder's registry with its own
// exposition surface.
package metrics
