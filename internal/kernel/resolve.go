package kernel

import (
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

// ResolveTriggerActions flattens a trigger's action tree into the
// ordered list of concrete actions to run, evaluating conditional
// branches against the context the trigger fired in. Guards are
// evaluated once, here; later context changes within the pass do not
// re-route branches already taken.
func (k *Kernel) ResolveTriggerActions(trigger *script.Trigger, ac trip.ActionContext) ([]script.ActionClause, error) {
	return k.resolveList(trigger.Actions, ac)
}

func (k *Kernel) resolveList(clauses []script.ActionClause, ac trip.ActionContext) ([]script.ActionClause, error) {
	var out []script.ActionClause
	for i := range clauses {
		clause := &clauses[i]
		if !clause.IsConditional() {
			out = append(out, *clause)
			continue
		}
		branch, err := k.activeBranch(clause, ac)
		if err != nil {
			return nil, err
		}
		nested, err := k.resolveList(branch, ac)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// activeBranch picks the first branch of a conditional whose guard
// passes: if, then each elseif in order, then else. No branch passing
// yields nothing.
func (k *Kernel) activeBranch(clause *script.ActionClause, ac trip.ActionContext) ([]script.ActionClause, error) {
	ok, err := k.eval.Evaluate(ac.EvalContext, clause.If)
	if err != nil {
		return nil, err
	}
	if ok {
		return clause.Actions, nil
	}
	for i := range clause.Elseifs {
		ok, err := k.eval.Evaluate(ac.EvalContext, clause.Elseifs[i].If)
		if err != nil {
			return nil, err
		}
		if ok {
			return clause.Elseifs[i].Actions, nil
		}
	}
	return clause.Else, nil
}
