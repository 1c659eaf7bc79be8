// Package occupancy tracks per-slot occupancy state and turns raw
// status transitions into durable occupancy intervals. The Tracker owns
// the in-memory slot state and active session maps; completed sessions
// are appended to an IntervalStore and never rewritten.
package occupancy
