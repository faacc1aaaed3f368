// Copyright (c) 2024 Neomantra Corp
//
// Schema validator (spec §4.6): intra-schema consistency checking and
// pairwise old->new compatibility analysis. Grounded on the teacher's
// RType.IsCompatibleWith pairwise-predicate pattern (structs.go),
// generalized from a single boolean into a full ValidationResult /
// CompatibilityReport.

package zcrate

import "strconv"

// ValidationResult carries the errors and warnings produced by Validate.
// A schema with any error is invalid; warnings never make Valid false.
type ValidationResult struct {
	Valid    bool
	Errors   []*Error
	Warnings []*Error
}

func (r *ValidationResult) fail(e *Error) {
	r.Valid = false
	r.Errors = append(r.Errors, e)
}

func (r *ValidationResult) warn(e *Error) {
	r.Warnings = append(r.Warnings, e)
}

// Validate checks a Schema's internal consistency (spec §3, §4.6):
//   - field names are unique and non-empty;
//   - added_in_version <= schema.version for every field;
//   - removed_in_version > added_in_version when both present;
//   - schema.version >= 1;
//   - an optional field without a default raises a warning, not an error.
func Validate(s Schema) ValidationResult {
	result := ValidationResult{Valid: true}

	if s.Version < 1 {
		result.fail(newError(KindInvalidSchema, "schema version must be >= 1"))
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			result.fail(newError(KindInvalidSchema, "field name must not be empty"))
			continue
		}
		if seen[f.Name] {
			result.fail(newError(KindInvalidSchema, "duplicate field name").withField(f.Name))
			continue
		}
		seen[f.Name] = true

		if f.AddedInVersion > s.Version {
			result.fail(newError(KindInvalidSchema,
				"field added_in_version is ahead of the schema version").withField(f.Name))
		}
		if f.HasRemovedIn && f.RemovedIn <= f.AddedInVersion {
			result.fail(newError(KindInvalidSchema,
				"field removed_in_version must be greater than added_in_version").withField(f.Name))
		}
		if !f.Required && !f.HasDefault {
			result.warn(newError(KindInvalidSchema,
				"optional field has no default value").withField(f.Name))
		}
	}

	validateCircularReferences(s, nil, &result)
	return result
}

// validateCircularReferences walks Struct-typed fields through an
// optional registry, failing with InvalidSchema on re-entry into a
// (name, version) pair already on the current descent path. Without a
// registry, each nested Struct field raises a warning and the deep check
// is skipped, per spec §4.6.
func validateCircularReferences(s Schema, registry map[string]Schema, result *ValidationResult) {
	visited := map[string]bool{schemaKey(s): true}
	var walk func(cur Schema) bool
	walk = func(cur Schema) bool {
		for _, f := range cur.Fields {
			if f.Type != Tag_Struct {
				continue
			}
			if registry == nil {
				result.warn(newError(KindInvalidSchema,
					"nested struct field has no schema registry to resolve against").withField(f.Name))
				continue
			}
			nested, ok := registry[f.NestedSchemaName]
			if !ok {
				result.warn(newError(KindInvalidSchema,
					"nested struct field names an unknown schema").withField(f.Name))
				continue
			}
			key := schemaKey(nested)
			if visited[key] {
				result.fail(newError(KindInvalidSchema,
					"circular nested schema reference").withField(f.Name))
				return false
			}
			visited[key] = true
			if !walk(nested) {
				return false
			}
		}
		return true
	}
	walk(s)
}

func schemaKey(s Schema) string {
	return s.Name + "@" + strconv.FormatUint(s.Version, 10)
}

// FieldVerdict classifies how a field changed between an old and new
// schema during a pairwise compatibility check.
type FieldVerdict uint8

const (
	VerdictUnchanged FieldVerdict = iota
	VerdictWidened
	VerdictAdded
	VerdictRemoved
	VerdictIncompatible
)

func (v FieldVerdict) String() string {
	switch v {
	case VerdictWidened:
		return "Widened"
	case VerdictAdded:
		return "Added"
	case VerdictRemoved:
		return "Removed"
	case VerdictIncompatible:
		return "Incompatible"
	default:
		return "Unchanged"
	}
}

// FieldCompatibility is one row of a CompatibilityReport.
type FieldCompatibility struct {
	FieldName string
	Verdict   FieldVerdict
}

// CompatibilityReport is the result of CompatibilityCheck: the
// spec-mandated error/warning lists, plus a per-field verdict breakdown
// (a supplement to spec §4.6's bare pass/fail contract, useful for
// schema-evolution tooling).
type CompatibilityReport struct {
	Compatible bool
	Errors     []*Error
	Warnings   []*Error
	Fields     []FieldCompatibility
}

func (r *CompatibilityReport) fail(e *Error) {
	r.Compatible = false
	r.Errors = append(r.Errors, e)
}

func (r *CompatibilityReport) warn(e *Error) {
	r.Warnings = append(r.Warnings, e)
}

// CompatibilityCheck compares old against new per spec §4.6:
//   - names must match;
//   - new.version > old.version, else a warning;
//   - each field in old present in new with a different type consults the
//     widening matrix: widening is allowed, narrowing/cross-kind is an error;
//   - a required field becoming optional is allowed; optional->required is
//     a BackwardCompatibilityError; a required field removed is
//     RequiredFieldMissing;
//   - each field in new not in old: required without default is a
//     BackwardCompatibilityError.
func CompatibilityCheck(oldSchema, newSchema Schema) CompatibilityReport {
	report := CompatibilityReport{Compatible: true}

	if oldSchema.Name != newSchema.Name {
		report.fail(newError(KindIncompatibleSchema, "schema names do not match"))
		return report
	}
	if newSchema.Version <= oldSchema.Version {
		report.warn(newError(KindIncompatibleSchema, "new schema version is not ahead of old schema version"))
	}

	newFields := make(map[string]FieldDefinition, len(newSchema.Fields))
	for _, f := range newSchema.Fields {
		newFields[f.Name] = f
	}

	for _, oldField := range oldSchema.Fields {
		newField, ok := newFields[oldField.Name]
		if !ok {
			if oldField.Required {
				report.fail(newError(KindRequiredFieldMissing,
					"required field removed in new schema").withField(oldField.Name))
				report.Fields = append(report.Fields, FieldCompatibility{oldField.Name, VerdictRemoved})
			} else {
				report.Fields = append(report.Fields, FieldCompatibility{oldField.Name, VerdictRemoved})
			}
			continue
		}
		delete(newFields, oldField.Name)

		verdict := VerdictUnchanged
		if oldField.Type != newField.Type {
			if oldField.Type.WidensTo(newField.Type) {
				verdict = VerdictWidened
			} else {
				report.fail(newError(KindIncompatibleSchema,
					"field type changed incompatibly").withField(oldField.Name).
					withTypes(oldField.Type.String(), newField.Type.String()))
				verdict = VerdictIncompatible
			}
		}
		if oldField.Required && !newField.Required {
			// allowed: required -> optional
		} else if !oldField.Required && newField.Required {
			report.fail(newError(KindBackwardCompatibilityError,
				"optional field became required").withField(oldField.Name))
			verdict = VerdictIncompatible
		}
		report.Fields = append(report.Fields, FieldCompatibility{oldField.Name, verdict})
	}

	for _, f := range newSchema.Fields {
		if _, stillPresent := newFields[f.Name]; !stillPresent {
			continue // consumed above: existed in both old and new
		}
		if f.Required && !f.HasDefault {
			report.fail(newError(KindBackwardCompatibilityError,
				"new required field has no default").withField(f.Name))
			report.Fields = append(report.Fields, FieldCompatibility{f.Name, VerdictIncompatible})
		} else {
			report.Fields = append(report.Fields, FieldCompatibility{f.Name, VerdictAdded})
		}
	}

	return report
}
