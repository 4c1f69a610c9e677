package graph

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		ApplicationID: s.ApplicationID,
		Nodes:         cloneNodes(s.Nodes),
		Edges:         cloneEdges(s.Edges),
	}
	if s.Viewport != nil {
		v := *s.Viewport
		out.Viewport = &v
	}
	return out
}

// Clone returns a deep copy of the node.
func (n NodeRecord) Clone() NodeRecord {
	n.Data = n.Data.Clone()
	return n
}

// Clone returns a deep copy of the attributes.
func (d NodeData) Clone() NodeData {
	if d.Extra != nil {
		extra := make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			extra[k] = cloneValue(v)
		}
		d.Extra = extra
	}
	return d
}

func cloneNodes(in []NodeRecord) []NodeRecord {
	out := make([]NodeRecord, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneEdges(in []EdgeRecord) []EdgeRecord {
	out := make([]EdgeRecord, len(in))
	copy(out, in)
	return out
}

// cloneValue copies the container types produced by encoding/json.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
