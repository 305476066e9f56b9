// Package trip holds the runtime state a script is evaluated against:
// the EvalContext variable bag, the ActionContext evaluation
// environment, and events. It also provides the ref-lookup and text
// templating used by condition and action implementations.
//
// Contexts are treated as immutable: every "mutation" returns a new
// context with a copied top level. The kernel relies on this to keep a
// frozen snapshot of the context as it was when a trigger activated,
// separate from the running context that accumulates op effects.
package trip
