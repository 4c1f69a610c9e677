package graph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Known attribute names of NodeData. Any other key is an extension field.
const (
	FieldLabel  = "label"
	FieldStatus = "status"
	FieldCPU    = "cpu"
	FieldMemory = "memory"
)

// NodeData holds a node's attributes. Label, Status, CPU and Memory are typed;
// Extra keeps free-form extension fields such as "nodeType", "disk" or "region".
type NodeData struct {
	Label  string
	Status Status
	CPU    float64 // percent, 0-100
	Memory float64 // megabytes, >= 0
	Extra  map[string]any
}

// IsKnownField reports whether name is one of the typed attributes.
func IsKnownField(name string) bool {
	switch name {
	case FieldLabel, FieldStatus, FieldCPU, FieldMemory:
		return true
	}
	return false
}

// MarshalJSON writes the typed attributes and the extension fields into one
// flat object.
func (d NodeData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		if IsKnownField(k) {
			continue
		}
		out[k] = v
	}
	out[FieldLabel] = d.Label
	if d.Status != "" {
		out[FieldStatus] = d.Status
	}
	out[FieldCPU] = d.CPU
	out[FieldMemory] = d.Memory
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat attribute object into typed fields and Extra.
func (d *NodeData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("node data: %w", err)
	}
	*d = NodeData{}

	if v, ok := raw[FieldLabel]; ok {
		if err := json.Unmarshal(v, &d.Label); err != nil {
			return fmt.Errorf("node data: label: %w", err)
		}
	}
	if v, ok := raw[FieldStatus]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("node data: status: %w", err)
		}
		if s != "" {
			st, err := ParseStatus(s)
			if err != nil {
				return fmt.Errorf("node data: %w", err)
			}
			d.Status = st
		}
	}
	if v, ok := raw[FieldCPU]; ok {
		if err := json.Unmarshal(v, &d.CPU); err != nil {
			return fmt.Errorf("node data: cpu: %w", err)
		}
	}
	if v, ok := raw[FieldMemory]; ok {
		if err := json.Unmarshal(v, &d.Memory); err != nil {
			return fmt.Errorf("node data: memory: %w", err)
		}
	}

	for k, v := range raw {
		if IsKnownField(k) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("node data: %s: %w", k, err)
		}
		if d.Extra == nil {
			d.Extra = make(map[string]any)
		}
		d.Extra[k] = val
	}
	return nil
}

// ExtraKeys returns the extension field names in sorted order.
func (d NodeData) ExtraKeys() []string {
	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set merges a single attribute. Typed attributes are converted and checked,
// cpu is clamped to 0-100 the way the inspector input clamps it.
func (d *NodeData) Set(field string, value any) error {
	switch field {
	case FieldLabel:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s must be a string, got %T", field, value)
		}
		d.Label = s
	case FieldStatus:
		s, ok := value.(string)
		if !ok {
			if st, isStatus := value.(Status); isStatus {
				s = string(st)
			} else {
				return fmt.Errorf("%s must be a string, got %T", field, value)
			}
		}
		st, err := ParseStatus(s)
		if err != nil {
			return err
		}
		d.Status = st
	case FieldCPU:
		f, err := toFiniteFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		d.CPU = clamp(f, 0, 100)
	case FieldMemory:
		f, err := toFiniteFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if f < 0 {
			return fmt.Errorf("%s must not be negative, got %v", field, f)
		}
		d.Memory = f
	default:
		if field == "" {
			return fmt.Errorf("field name must not be empty")
		}
		if f, ok := value.(float64); ok && !finite(f) {
			return fmt.Errorf("%s must be a finite number, got %v", field, f)
		}
		if d.Extra == nil {
			d.Extra = make(map[string]any)
		}
		d.Extra[field] = cloneValue(value)
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toFiniteFloat(v any) (float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if !finite(f) {
		return 0, fmt.Errorf("expected a finite number, got %v", f)
	}
	return f, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
