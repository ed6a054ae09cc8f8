package world

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Attributes is the attribute set carried by entities and attachments.
// The transform and name are typed; any other key a client sends is kept
// verbatim in Extra so that free-form part data survives a round trip.
// A nil field means "not present", which is what makes Merge partial.
type Attributes struct {
	X    *float64
	Y    *float64
	Z    *float64
	Rot  *float64
	Name *string

	Extra map[string]json.RawMessage
}

// Keys owned by the entity envelope. They are never stored as attributes.
var reservedKeys = map[string]bool{
	"id":          true,
	"kind":        true,
	"attachments": true,
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// Merge shallow-merges patch into a. Fields present in patch overwrite,
// everything else is preserved.
func (a *Attributes) Merge(patch Attributes) {
	if patch.X != nil {
		a.X = Float(*patch.X)
	}
	if patch.Y != nil {
		a.Y = Float(*patch.Y)
	}
	if patch.Z != nil {
		a.Z = Float(*patch.Z)
	}
	if patch.Rot != nil {
		a.Rot = Float(*patch.Rot)
	}
	if patch.Name != nil {
		a.Name = String(*patch.Name)
	}
	if len(patch.Extra) > 0 {
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage, len(patch.Extra))
		}
		for k, v := range patch.Extra {
			a.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	var out Attributes
	out.Merge(a)
	return out
}

// Empty reports whether no attribute is present.
func (a Attributes) Empty() bool {
	return a.X == nil && a.Y == nil && a.Z == nil && a.Rot == nil && a.Name == nil && len(a.Extra) == 0
}

// Without returns a copy with the given extra keys dropped. Used to strip
// envelope fields from messages that carry attributes at the top level.
func (a Attributes) Without(keys ...string) Attributes {
	out := a.Clone()
	for _, k := range keys {
		delete(out.Extra, k)
	}
	return out
}

// Fields returns the flattened JSON object form of the attributes.
func (a Attributes) Fields() map[string]json.RawMessage {
	fields := make(map[string]json.RawMessage, len(a.Extra)+5)
	maps.Copy(fields, a.Extra)
	put := func(key string, v any) {
		b, err := json.Marshal(v)
		if err == nil {
			fields[key] = b
		}
	}
	if a.X != nil {
		put("x", *a.X)
	}
	if a.Y != nil {
		put("y", *a.Y)
	}
	if a.Z != nil {
		put("z", *a.Z)
	}
	if a.Rot != nil {
		put("rot", *a.Rot)
	}
	if a.Name != nil {
		put("name", *a.Name)
	}
	return fields
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields())
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("attributes must be an object")
	}

	out := Attributes{}
	for k, v := range raw {
		var err error
		switch k {
		case "x":
			out.X, err = decodeFloat(v)
		case "y":
			out.Y, err = decodeFloat(v)
		case "z":
			out.Z, err = decodeFloat(v)
		case "rot":
			out.Rot, err = decodeFloat(v)
		case "name":
			out.Name, err = decodeString(v)
		default:
			if reservedKeys[k] {
				continue
			}
			if out.Extra == nil {
				out.Extra = map[string]json.RawMessage{}
			}
			out.Extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("attribute %q: %w", k, err)
		}
	}

	*a = out
	return nil
}

func decodeFloat(v json.RawMessage) (*float64, error) {
	var f *float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeString(v json.RawMessage) (*string, error) {
	var s *string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, err
	}
	return s, nil
}
