// Package httprange parses HTTP Range headers against a known resource
// length and decides between full and partial responses.
//
// The parser deliberately supports only the first range unit of a header;
// multi-range (comma separated) requests fall back to that first unit.
package httprange


