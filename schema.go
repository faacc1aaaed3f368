// Copyright (c) 2024 Neomantra Corp

package zcrate

import (
	"github.com/segmentio/encoding/json"
)

// FieldDefinition describes one field of a Schema: its name, wire type,
// whether it is required, an optional string-encoded default, and the
// schema-version range over which it is active.
type FieldDefinition struct {
	Name           string  `json:"name"`
	Type           TypeTag `json:"type"`
	Required       bool    `json:"required"`
	HasDefault     bool    `json:"has_default"`
	DefaultValue   string  `json:"default_value,omitempty"`
	AddedInVersion uint64  `json:"added_in_version"`
	RemovedIn      uint64  `json:"removed_in_version,omitempty"`
	HasRemovedIn   bool    `json:"-"`

	// NestedSchemaName, set only when Type is Tag_Struct, names the
	// nested Schema in a caller-supplied registry (spec §4.6: "nested
	// schema resolution requires an external registry; if absent, the
	// validator raises a warning per nested field and skips the deep
	// check").
	NestedSchemaName string `json:"nested_schema_name,omitempty"`
}

// NewFieldDefinition builds a required FieldDefinition with
// added_in_version defaulted to 1, matching the spec's default.
func NewFieldDefinition(name string, typ TypeTag) FieldDefinition {
	return FieldDefinition{Name: name, Type: typ, Required: true, AddedInVersion: 1}
}

// WithDefault marks the field optional and attaches a string-encoded
// default literal.
func (f FieldDefinition) WithDefault(value string) FieldDefinition {
	f.Required = false
	f.HasDefault = true
	f.DefaultValue = value
	return f
}

// WithAddedInVersion overrides the version a field was introduced in.
func (f FieldDefinition) WithAddedInVersion(v uint64) FieldDefinition {
	f.AddedInVersion = v
	return f
}

// WithRemovedInVersion marks the field as removed starting at version v.
func (f FieldDefinition) WithRemovedInVersion(v uint64) FieldDefinition {
	f.RemovedIn = v
	f.HasRemovedIn = true
	return f
}

// ActiveInVersion reports whether the field is active in schema version
// v: added_in_version <= v, and (no removed_in_version, or
// removed_in_version > v).
func (f FieldDefinition) ActiveInVersion(v uint64) bool {
	if f.AddedInVersion > v {
		return false
	}
	if f.HasRemovedIn && f.RemovedIn <= v {
		return false
	}
	return true
}

// Schema is a named, versioned list of FieldDefinitions.
type Schema struct {
	Name    string            `json:"name"`
	Version uint64            `json:"version"`
	Fields  []FieldDefinition `json:"fields"`
}

// NewSchema builds a Schema with the given name and version.
func NewSchema(name string, version uint64) Schema {
	return Schema{Name: name, Version: version}
}

// WithField appends a field and returns the updated Schema, for
// chain-style construction.
func (s Schema) WithField(f FieldDefinition) Schema {
	s.Fields = append(s.Fields, f)
	return s
}

// Field returns the FieldDefinition named name, if present.
func (s Schema) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Fingerprint computes this schema's advisory wire fingerprint.
func (s Schema) Fingerprint() uint64 {
	return fingerprint(s.Name, s.Version)
}

// MarshalSchemaJSON serializes a Schema to JSON, for schema-evolution
// tooling (diffing, test fixtures) — not for the wire format itself.
func MarshalSchemaJSON(s Schema) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSchemaJSON parses a Schema previously produced by
// MarshalSchemaJSON.
func UnmarshalSchemaJSON(data []byte) (Schema, error) {
	var s Schema
	err := json.Unmarshal(data, &s)
	return s, err
}
