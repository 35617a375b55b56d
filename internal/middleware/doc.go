// Package middleware provides HTTP middleware for the video service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with low-cardinality path labels
//   - Configurable filtering for health check endpoints
package middleware


