// Package ops defines the result-operation vocabulary: pure data
// descriptions of side effects produced by action implementations and
// applied by the persistence layer.
//
// Ops are ordered and replayable. The one place op semantics are
// interpreted twice - the kernel's in-flight context preview and the
// store's durable apply - both call ApplyToContext, so the two can
// never drift apart for the context-visible subset (updateTripFields,
// updateTripValues, updateTripHistory).
package ops
