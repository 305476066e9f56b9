package modules

import (
	"fmt"
	"strings"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

var comparators = map[string]func(a, b float64) bool{
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	"==": func(a, b float64) bool { return a == b },
	">=": func(a, b float64) bool { return a >= b },
	">":  func(a, b float64) bool { return a > b },
}

func registerValues(reg *registry.Registry) {
	reg.RegisterCondition("value_is_true", registry.ConditionFunc(valueIsTrue))
	reg.RegisterCondition("value_equals", registry.ConditionFunc(valueEquals))
	reg.RegisterCondition("value_contains", registry.ConditionFunc(valueContains))
	reg.RegisterCondition("value_compare", registry.ConditionFunc(valueCompare))
	reg.RegisterAction("set_value", registry.ActionFunc(setValue))
	reg.RegisterAction("increment_value", registry.ActionFunc(incrementValue))
}

func valueIsTrue(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	return trip.Truthy(trip.LookupRef(ec, clause.Params["ref"])), nil
}

// valueEquals compares loosely: two absent or falsy values are equal,
// and otherwise both sides are compared as case-folded strings, so a
// numeric value equals its string form.
func valueEquals(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	a := trip.LookupRef(ec, clause.Params["ref1"])
	b := trip.LookupRef(ec, clause.Params["ref2"])
	if !trip.Truthy(a) && !trip.Truthy(b) {
		return true, nil
	}
	return trip.Fold(looseString(a)) == trip.Fold(looseString(b)), nil
}

func valueContains(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	a, aok := trip.LookupRef(ec, clause.Params["string_ref"]).(string)
	b, bok := trip.LookupRef(ec, clause.Params["part_ref"]).(string)
	if !aok || !bok {
		return false, nil
	}
	return strings.Contains(trip.Fold(a), trip.Fold(b)), nil
}

func valueCompare(clause *script.IfClause, ec trip.EvalContext, _ registry.RecurseFunc) (bool, error) {
	comparator, _ := clause.Params["comparator"].(string)
	if comparator == "" {
		comparator = ">="
	}
	compare, ok := comparators[comparator]
	if !ok {
		return false, fmt.Errorf("invalid comparator %q", comparator)
	}
	a := trip.Number(trip.LookupRef(ec, clause.Params["ref1"]))
	b := trip.Number(trip.LookupRef(ec, clause.Params["ref2"]))
	return compare(a, b), nil
}

func looseString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return trip.FormatNumber(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// setValue stores the resolved new value under the target name. The
// target is a literal name, never a lookup.
func setValue(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	name, _ := params["value_ref"].(string)
	value := trip.LookupRef(ac.EvalContext, params["new_value_ref"])
	return []ops.Op{ops.UpdateTripValues{Values: map[string]any{name: value}}}, nil
}

// incrementValue adds delta (default 1) to the target value, treating
// an absent or non-numeric current value as zero.
func incrementValue(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	name, _ := params["value_ref"].(string)
	delta := 1.0
	if raw, ok := params["delta"]; ok {
		delta = trip.Number(trip.LookupRef(ac.EvalContext, raw))
	}
	current := trip.Number(trip.Get(ac.EvalContext, name))
	return []ops.Op{ops.UpdateTripValues{Values: map[string]any{
		name: current + delta,
	}}}, nil
}
