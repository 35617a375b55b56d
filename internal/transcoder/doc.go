// Package transcoder orchestrates external FFmpeg encodes.
//
// It owns scratch-file lifecycle, process spawning, wall-clock measurement
// and per-rung output aggregation. The encoder is observed only through its
// exit code and the files it leaves behind; a nonzero exit surfaces as
// *ProcessError carrying the exit code and a bounded tail of the merged
// process output. Admission is gated by a slot semaphore because every
// encode pins a CPU (or the GPU) for its entire duration.
package transcoder


