// Package modules provides the built-in action, condition, and event
// vocabulary: trip values, scene navigation, cues, messaging, timing
// and waits, page routing, and email. Each group registers itself into
// a registry; DefaultRegistry assembles the full set.
//
// Module implementations report authoring mistakes (an unknown scene
// name, a role with no email address) as log ops rather than errors,
// so one bad clause degrades that clause instead of aborting the
// whole cascade.
package modules
