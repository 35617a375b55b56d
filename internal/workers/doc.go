// Package workers sizes and gates concurrent encode work.
//
// Count derives a slot count from available CPUs (respecting container
// limits), and Semaphore provides non-blocking admission so that saturated
// encode capacity is rejected instead of silently queued.
package workers


