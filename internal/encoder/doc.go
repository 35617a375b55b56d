// Package encoder plans external FFmpeg invocations for single-rung and
// ladder encodes.
//
// Planning is pure: it maps (codec, resolution, acceleration) to an ordered
// argument vector and the set of output files, without touching the
// filesystem or spawning anything. Codec/encoder selection is a static table
// keyed by codec and acceleration mode, so missing hardware support (vp9) is
// visible as an absent entry instead of buried in conditionals.
package encoder


