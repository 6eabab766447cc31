// Package errors provides foundational, type-safe error primitives used across tmpwrap.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, filesystem, etc.)
//   - ErrorSeverity: Impact level (error, warning, info)
//   - RetryStrategy: Retry behavior (should-retry, no-retry, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryFileSystem, "failed to create temporary directory").
//		WithSeverity(errors.SeverityError).
//		WithContext("path", tmpdirPath).
//		WithCause(originalErr).
//		Build()
package errors
