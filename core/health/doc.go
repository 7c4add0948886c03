// Package health provides echo handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	e.GET("/healthz", health.Liveness)
//	e.GET("/readyz", health.Readiness(logger, store.Ping))
//
// Dependency checks must follow func(context.Context) error signature.
package health
