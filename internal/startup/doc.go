// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - UPLOAD_DIR: Path to the blob storage root (default: /uploads)
//   - SCRATCH_DIR: Path to the encode scratch directory (default: /scratch)
//   - CATALOG_DIR: Path to the catalog database directory (default: /catalog)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - MAX_UPLOAD_BYTES: Upload size cap in bytes (default: 524288000)
//   - ENCODE_WORKERS: Concurrent encode slots, 0 means one per CPU (default: 0)
//   - FFMPEG_PATH: Encoder binary name or path (default: ffmpeg)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// All three directories are required and must be writable; they are created
// if missing.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogCatalogInit]: Catalog initialization timing
//   - [LogTranscoderInit]: Transcoder setup and FFmpeg availability
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup


