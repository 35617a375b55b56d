// Command catalogctl provides a CLI utility for maintaining the upload
// catalog of the video service.
//
// It supports the following operations:
//   - list: List catalogued uploads, newest first
//   - stats: Show upload counts and total stored bytes
//   - verify: Cross-check catalog rows against blobs on disk
//
// Usage:
//
//	catalogctl <command>
//
// Commands:
//
//	list    Print every catalogued upload with its id, stored filename,
//	        size, and upload timestamp.
//
//	stats   Print the number of catalogued uploads and their total size.
//
//	verify  Stat every catalogued blob under UPLOAD_DIR and report rows
//	        whose file is missing or whose size disagrees with the
//	        catalog. Exits nonzero if any row fails.
//
// Environment:
//
//	CATALOG_DIR - Path to catalog directory (default: /catalog)
//	UPLOAD_DIR  - Path to blob storage root (default: /uploads)
//
// Notes:
//
// The catalog is metadata only; the blob on disk is the source of truth.
// verify exists because a metadata write can succeed while the process
// dies before the blob is fully durable, or an operator can delete blobs
// out from under the catalog.
package main


