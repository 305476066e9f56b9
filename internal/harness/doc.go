// Package harness runs scenario files against the real kernel.
//
// A scenario names a script, a start time, and a sequence of steps
// (invoke an action, deliver an event, advance the clock and tick).
// Each scenario runs in a fresh in-memory database with a manual
// clock, so traces are deterministic and safe to compare against
// golden files.
package harness
