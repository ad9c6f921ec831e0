package service

import "encoding/json"

// OptionalString is a patch field that tells an absent key apart from
// an explicit null.  Set is true whenever the key was present; Value is
// nil for null.
type OptionalString struct {
	Set   bool
	Value *string
}

// Some returns a set OptionalString holding s.
func Some(s string) OptionalString { return OptionalString{Set: true, Value: &s} }

// Null returns a set OptionalString that clears the field.
func Null() OptionalString { return OptionalString{Set: true} }

// UnmarshalJSON is only invoked for keys present in the body, null
// included.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// apply returns the patched value: cur when the key was absent.
func (o OptionalString) apply(cur *string) *string {
	if !o.Set {
		return cur
	}
	return o.Value
}
