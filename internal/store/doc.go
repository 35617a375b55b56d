// Package store persists uploaded media blobs under a validated on-disk
// namespace and records their metadata in a SQLite catalog.
//
// Every lookup and write goes through a containment check against the storage
// root, so a client-supplied name can never address a file outside it. Stored
// files are immutable: once written they are never renamed or rewritten,
// which is what makes lock-free concurrent reads safe.
package store


