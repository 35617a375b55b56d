// Package handlers provides HTTP request handlers for the video service API.
//
// It includes handlers for:
//   - Blob uploads and catalog listing
//   - Byte-range video delivery
//   - Single and ladder transcode requests
//   - Health checks, version, and Prometheus metrics
package handlers


