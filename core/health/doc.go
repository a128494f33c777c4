// Package health provides HTTP handlers for service health probes.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	mux.HandleFunc("GET /health/live", health.Liveness)
//	mux.Handle("GET /health/ready", health.Readiness(log, router.Healthcheck))
//	mux.HandleFunc("GET /ping", health.NoContent)
//
// Dependency checks must follow func(context.Context) error signature.
package health
