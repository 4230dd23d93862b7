package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldPath is a dot-delimited path into a source item, or Absent when the
// source does not provide the attribute. The zero value is Absent and it is
// serialized as null.
type FieldPath struct {
	path string
	set  bool
}

var Absent = FieldPath{}

func Path(p string) FieldPath {
	return FieldPath{path: p, set: true}
}

func (f FieldPath) IsSet() bool {
	return f.set
}

func (f FieldPath) String() string {
	if !f.set {
		return "<absent>"
	}
	return f.path
}

// Value returns the path expression; empty when absent.
func (f FieldPath) Value() string {
	return f.path
}

func (f FieldPath) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.path)
}

func (f *FieldPath) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Absent
		return nil
	}
	var p string
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("field path must be a string or null: %w", err)
	}
	*f = Path(p)
	return nil
}

func (f FieldPath) MarshalYAML() (interface{}, error) {
	if !f.set {
		return nil, nil
	}
	return f.path, nil
}

func (f *FieldPath) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*f = Absent
		return nil
	}
	var p string
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("field path must be a string or null: %w", err)
	}
	*f = Path(p)
	return nil
}
