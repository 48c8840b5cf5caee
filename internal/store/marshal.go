package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/vclock"
)

// marshalClock converts a revision vector to canonical JSON TEXT.
func marshalClock(c vclock.Clock) (string, error) {
	data, err := ir.MarshalCanonical(ir.ClockObject(c))
	if err != nil {
		return "", fmt.Errorf("marshal clock: %w", err)
	}
	return string(data), nil
}

// unmarshalClock parses clock JSON TEXT.
func unmarshalClock(data string) (vclock.Clock, error) {
	c := vclock.Clock{}
	if data == "" || data == "{}" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("unmarshal clock: %w", err)
	}
	return c, nil
}

// marshalProperties converts a record's property changes to canonical JSON TEXT.
func marshalProperties(props map[string]ir.PropertyChange) (string, error) {
	data, err := ir.MarshalCanonical(ir.PropertiesObject(props))
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

type storedProperty struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// unmarshalProperties parses property JSON TEXT.
// Values are decoded through ir.UnmarshalValue, which keeps int64 precision.
func unmarshalProperties(data string) (map[string]ir.PropertyChange, error) {
	props := map[string]ir.PropertyChange{}
	if data == "" || data == "{}" {
		return props, nil
	}

	var raw map[string]storedProperty
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}

	for name, sp := range raw {
		kind, err := ir.ParseChangeKind(sp.Kind)
		if err != nil {
			return nil, fmt.Errorf("unmarshal properties: %q: %w", name, err)
		}
		change := ir.PropertyChange{Kind: kind}
		if len(sp.Value) > 0 {
			v, err := ir.UnmarshalValue(sp.Value)
			if err != nil {
				return nil, fmt.Errorf("unmarshal properties: %q: %w", name, err)
			}
			change.Value = v
		}
		props[name] = change
	}
	return props, nil
}
