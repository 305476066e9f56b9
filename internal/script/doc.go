// Package script defines the static script document: scenes, roles,
// pages, cues, and triggers, plus the condition and action-clause trees
// that triggers carry.
//
// A script is authored as YAML or JSON, decoded into the typed model
// here, and checked against an embedded CUE schema before any
// evaluation happens. The evaluation kernel assumes its input passed
// this layer: malformed shapes (a conditional whose actions is not a
// list, an action entry that is not a map) are rejected at decode time,
// not at trigger-firing time.
//
// Script documents are immutable at runtime. The only runtime-visible
// trace of a trigger is the entry the kernel writes into the trip's
// history map when it fires.
package script
