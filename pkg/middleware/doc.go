// Package middleware provides observability wrappers for report
// providers.
//
// Each middleware is a func(report.Provider) report.Provider, so they
// compose around any provider:
//
//	provider = middleware.Prometheus()(
//	    middleware.OpenTelemetry()(dataset.Students()))
package middleware
