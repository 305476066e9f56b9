package script

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// IfClause is one node of a condition tree. Op selects a condition
// implementation from the registry; and/or carry Items, not carries
// Item, leaf predicates carry their parameters in Params.
//
// A nil *IfClause always evaluates true: absence of a guard is an
// unconditional pass.
type IfClause struct {
	Op     string
	Items  []*IfClause
	Item   *IfClause
	Params map[string]any
}

// ElseIf is one elseif branch of a conditional action clause.
type ElseIf struct {
	If      *IfClause
	Actions []ActionClause
}

// ActionClause is either a concrete action (Name plus Params) or a
// conditional node (If/Actions/Elseifs/Else) whose branches nest
// arbitrarily. The resolver flattens active branches in declaration
// order.
type ActionClause struct {
	Name    string
	Params  map[string]any
	If      *IfClause
	Actions []ActionClause
	Elseifs []ElseIf
	Else    []ActionClause
}

// IsConditional reports whether the clause is a conditional node rather
// than a concrete action. A clause is conditional if it is named
// "conditional" or carries an if guard.
func (c *ActionClause) IsConditional() bool {
	return c.Name == "" || c.Name == "conditional" || c.If != nil
}

// EventSpec is a trigger's event pattern: a type naming the event
// matcher plus matcher-specific parameters.
type EventSpec struct {
	Type   string
	Params map[string]any
}

func ifClauseFromMap(m map[string]any) (*IfClause, error) {
	op, ok := m["op"].(string)
	if !ok || op == "" {
		return nil, fmt.Errorf("condition missing op: %v", m)
	}
	clause := &IfClause{Op: op, Params: map[string]any{}}
	for key, val := range m {
		switch key {
		case "op":
		case "items":
			list, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("condition %q: items must be a list, got %T", op, val)
			}
			for _, item := range list {
				im, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("condition %q: item must be a map, got %T", op, item)
				}
				sub, err := ifClauseFromMap(im)
				if err != nil {
					return nil, err
				}
				clause.Items = append(clause.Items, sub)
			}
		case "item":
			if val == nil {
				continue
			}
			im, ok := val.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("condition %q: item must be a map, got %T", op, val)
			}
			sub, err := ifClauseFromMap(im)
			if err != nil {
				return nil, err
			}
			clause.Item = sub
		default:
			clause.Params[key] = val
		}
	}
	return clause, nil
}

func (c *IfClause) toMap() map[string]any {
	m := map[string]any{"op": c.Op}
	for k, v := range c.Params {
		m[k] = v
	}
	if c.Items != nil {
		items := make([]any, len(c.Items))
		for i, item := range c.Items {
			items[i] = item.toMap()
		}
		m["items"] = items
	}
	if c.Item != nil {
		m["item"] = c.Item.toMap()
	}
	return m
}

// UnmarshalYAML decodes the flat authored form ({op: ..., ...params}).
func (c *IfClause) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	parsed, err := ifClauseFromMap(m)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// UnmarshalJSON decodes the flat authored form.
func (c *IfClause) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := ifClauseFromMap(m)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// MarshalJSON re-emits the flat authored form.
func (c *IfClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toMap())
}

func actionClauseFromMap(m map[string]any) (ActionClause, error) {
	var clause ActionClause
	name, _ := m["name"].(string)

	_, hasIf := m["if"]
	if name != "" && name != "conditional" && !hasIf {
		clause.Name = name
		clause.Params = map[string]any{}
		for k, v := range m {
			if k != "name" {
				clause.Params[k] = v
			}
		}
		return clause, nil
	}

	// Conditional node.
	clause.Name = "conditional"
	if raw, ok := m["if"]; ok && raw != nil {
		im, ok := raw.(map[string]any)
		if !ok {
			return clause, fmt.Errorf("conditional if must be a map, got %T", raw)
		}
		parsed, err := ifClauseFromMap(im)
		if err != nil {
			return clause, err
		}
		clause.If = parsed
	}
	var err error
	if clause.Actions, err = actionListFromAny(m["actions"]); err != nil {
		return clause, err
	}
	if clause.Else, err = actionListFromAny(m["else"]); err != nil {
		return clause, err
	}
	if raw, ok := m["elseifs"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return clause, fmt.Errorf("elseifs must be a list, got %T", raw)
		}
		for _, entry := range list {
			em, ok := entry.(map[string]any)
			if !ok {
				return clause, fmt.Errorf("elseif must be a map, got %T", entry)
			}
			var elseif ElseIf
			if rawIf, ok := em["if"]; ok && rawIf != nil {
				im, ok := rawIf.(map[string]any)
				if !ok {
					return clause, fmt.Errorf("elseif if must be a map, got %T", rawIf)
				}
				parsed, err := ifClauseFromMap(im)
				if err != nil {
					return clause, err
				}
				elseif.If = parsed
			}
			if elseif.Actions, err = actionListFromAny(em["actions"]); err != nil {
				return clause, err
			}
			clause.Elseifs = append(clause.Elseifs, elseif)
		}
	}
	return clause, nil
}

func actionListFromAny(raw any) ([]ActionClause, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("actions must be a list, got %T", raw)
	}
	out := make([]ActionClause, 0, len(list))
	for _, entry := range list {
		em, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("action must be a map, got %T", entry)
		}
		clause, err := actionClauseFromMap(em)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}

// UnmarshalYAML decodes either a concrete action or a conditional node.
func (c *ActionClause) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	parsed, err := actionClauseFromMap(m)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UnmarshalJSON decodes either a concrete action or a conditional node.
func (c *ActionClause) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := actionClauseFromMap(m)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UnmarshalYAML decodes the flat authored form ({type: ..., ...params}).
func (e *EventSpec) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	parsed, err := eventSpecFromMap(m)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// UnmarshalJSON decodes the flat authored form.
func (e *EventSpec) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := eventSpecFromMap(m)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalJSON re-emits the flat authored form.
func (e EventSpec) MarshalJSON() ([]byte, error) {
	m := map[string]any{"type": e.Type}
	for k, v := range e.Params {
		m[k] = v
	}
	return json.Marshal(m)
}

func eventSpecFromMap(m map[string]any) (EventSpec, error) {
	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return EventSpec{}, fmt.Errorf("event spec missing type: %v", m)
	}
	spec := EventSpec{Type: typ, Params: map[string]any{}}
	for k, v := range m {
		if k != "type" {
			spec.Params[k] = v
		}
	}
	return spec, nil
}
