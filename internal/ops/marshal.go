package ops

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes an op in the wire form: the op's fields plus an
// "operation" discriminator. Map keys are emitted sorted, so the
// encoding is deterministic and safe to diff in golden files.
func Marshal(op Op) ([]byte, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal %s op: %w", op.Operation(), err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("marshal %s op: %w", op.Operation(), err)
	}
	m["operation"] = op.Operation()
	return json.Marshal(m)
}

// MarshalList encodes a list of ops as a JSON array in wire form.
func MarshalList(list []Op) ([]byte, error) {
	encoded := make([]json.RawMessage, len(list))
	for i, op := range list {
		data, err := Marshal(op)
		if err != nil {
			return nil, err
		}
		encoded[i] = data
	}
	return json.Marshal(encoded)
}

// Unmarshal decodes one op from wire form, dispatching on the
// "operation" discriminator. Unknown kinds are an error: the op
// vocabulary is closed.
func Unmarshal(data []byte) (Op, error) {
	var envelope struct {
		Operation string `json:"operation"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode op: %w", err)
	}

	decode := func(target Op) (Op, error) {
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("decode %s op: %w", envelope.Operation, err)
		}
		return target, nil
	}

	switch envelope.Operation {
	case "updateTripFields":
		op, err := decode(&UpdateTripFields{})
		return deref(op), err
	case "updateTripValues":
		op, err := decode(&UpdateTripValues{})
		return deref(op), err
	case "updateTripHistory":
		op, err := decode(&UpdateTripHistory{})
		return deref(op), err
	case "updatePlayerFields":
		op, err := decode(&UpdatePlayerFields{})
		return deref(op), err
	case "createMessage":
		op, err := decode(&CreateMessage{})
		return deref(op), err
	case "sendEmail":
		op, err := decode(&SendEmail{})
		return deref(op), err
	case "event":
		op, err := decode(&EventOp{})
		return deref(op), err
	case "log":
		op, err := decode(&Log{})
		return deref(op), err
	case "wait":
		op, err := decode(&Wait{})
		return deref(op), err
	default:
		return nil, fmt.Errorf("unknown op kind %q", envelope.Operation)
	}
}

// deref converts a decoded pointer back to the value form the rest of
// the engine traffics in.
func deref(op Op) Op {
	switch o := op.(type) {
	case *UpdateTripFields:
		return *o
	case *UpdateTripValues:
		return *o
	case *UpdateTripHistory:
		return *o
	case *UpdatePlayerFields:
		return *o
	case *CreateMessage:
		return *o
	case *SendEmail:
		return *o
	case *EventOp:
		return *o
	case *Log:
		return *o
	case *Wait:
		return *o
	default:
		return op
	}
}
