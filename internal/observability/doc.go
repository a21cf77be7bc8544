// Package observability provides logging and metrics support for the
// author analytics service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for report builds, source requests, the fetch
//     cache, and network expansion
//   - Context helpers for propagating request and report identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("orcid", orcid).Msg("report build started")
//
// Add report context to a logger:
//
//	logger = observability.WithReportContext(logger, reportID, orcid)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("author_analytics")
//
// Record metrics:
//
//	metrics.RecordReportStarted()
//	metrics.RecordSourceRequest("works", duration.Seconds())
//	metrics.RecordFetchTruncation("citing_works")
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - report_id: Report build job identifier
//   - orcid: Seed author ORCID
//   - author_id: Record source author identifier
//   - operation: Record source operation (author, works, citing_works, search)
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
