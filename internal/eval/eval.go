// Package eval implements the boolean condition evaluator: dispatch
// over the condition registry, the and/or/not combinators, and the
// core leaf predicates. It is a pure function of (context, clause,
// registry); the only error it produces is the fatal configuration
// error for an unknown op.
package eval

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

// Evaluator evaluates condition trees against a context using a
// condition registry fixed at construction.
type Evaluator struct {
	reg *registry.Registry
}

// New returns an evaluator over the given registry.
func New(reg *registry.Registry) *Evaluator {
	return &Evaluator{reg: reg}
}

// Evaluate evaluates one condition tree. A nil clause is an
// unconditional pass and evaluates true. An op with no registered
// condition class is a fatal configuration error.
func (e *Evaluator) Evaluate(ec trip.EvalContext, clause *script.IfClause) (bool, error) {
	if clause == nil {
		return true, nil
	}
	cond, ok := e.reg.Condition(clause.Op)
	if !ok {
		return false, fmt.Errorf("invalid condition op %q (valid ops: %s)",
			clause.Op, strings.Join(e.reg.ConditionOps(), ", "))
	}
	return cond.Eval(clause, ec, e.Evaluate)
}

// RegisterCore adds the composite combinators and the core leaf
// predicates to a registry. Domain modules add their own predicates on
// top of these.
func RegisterCore(reg *registry.Registry) {
	reg.RegisterCondition("and", registry.ConditionFunc(evalAnd))
	reg.RegisterCondition("or", registry.ConditionFunc(evalOr))
	reg.RegisterCondition("not", registry.ConditionFunc(evalNot))
	reg.RegisterCondition("istrue", registry.ConditionFunc(evalIsTrue))
	reg.RegisterCondition("equals", registry.ConditionFunc(evalEquals))
	reg.RegisterCondition("contains", registry.ConditionFunc(evalContains))
	reg.RegisterCondition("matches", registry.ConditionFunc(evalMatches))
}

// evalAnd is true iff every item is true. An empty item list is
// vacuously true.
func evalAnd(clause *script.IfClause, ec trip.EvalContext, recurse registry.RecurseFunc) (bool, error) {
	for _, item := range clause.Items {
		ok, err := recurse(ec, item)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalOr is true iff at least one item is true. An empty item list is
// false.
func evalOr(clause *script.IfClause, ec trip.EvalContext, recurse registry.RecurseFunc) (bool, error) {
	for _, item := range clause.Items {
		ok, err := recurse(ec, item)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// evalNot negates its item. A not with no item is false: negating
// nothing denies rather than passes.
func evalNot(clause *script.IfClause, ec trip.EvalContext, recurse registry.RecurseFunc) (bool, error) {
	if clause.Item == nil {
		return false, nil
	}
	ok, err := recurse(ec, clause.Item)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func evalIsTrue(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	return trip.Truthy(trip.LookupRef(ec, clause.Params["ref"])), nil
}

func evalEquals(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	a := trip.LookupRef(ec, clause.Params["ref1"])
	b := trip.LookupRef(ec, clause.Params["ref2"])
	// DeepEqual rather than ==: looked-up values may be maps.
	return reflect.DeepEqual(a, b), nil
}

func evalContains(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	a, aok := trip.LookupRef(ec, clause.Params["string_ref"]).(string)
	b, bok := trip.LookupRef(ec, clause.Params["part_ref"]).(string)
	if !aok || !bok {
		return false, nil
	}
	return strings.Contains(trip.Fold(a), trip.Fold(b)), nil
}

func evalMatches(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	s, sok := trip.LookupRef(ec, clause.Params["string_ref"]).(string)
	pattern, pok := trip.LookupRef(ec, clause.Params["regex_ref"]).(string)
	if !sok || !pok {
		return false, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false, nil
	}
	return re.MatchString(s), nil
}
