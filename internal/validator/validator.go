// Package validator is the contract guard between the Go model and its
// consumers. Snapshot tables go through it before the policy engine sees
// them and manifests go through it when a project is opened. A field that
// was renamed, dropped or mistyped fails loudly here instead of silently
// evaluating to undefined inside a Rego rule.
//
// When validation fails, fix the producer or the schema; do not suppress
// the error.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed facts_schema.cue manifest_schema.cue
var schemaFS embed.FS

// Validator checks values against one definition of an embedded CUE schema.
// A Validator is not safe for concurrent use.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
	def    string
	what   string
}

// NewFactsValidator creates a validator for relational fact tables.
func NewFactsValidator() (*Validator, error) {
	return newValidator("facts_schema.cue", "#FactTables", "facts")
}

// NewManifestValidator creates a validator for project manifests.
func NewManifestValidator() (*Validator, error) {
	return newValidator("manifest_schema.cue", "#Manifest", "manifest")
}

func newValidator(file, def, what string) (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading %s schema: %w", what, err)
	}

	schema := ctx.CompileBytes(schemaBytes, cue.Filename(file))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", what, schema.Err())
	}
	if d := schema.LookupPath(cue.ParsePath(def)); d.Err() != nil {
		return nil, fmt.Errorf("looking up %s definition: %w", def, d.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
		def:    def,
		what:   what,
	}, nil
}

// Validate checks that data, once encoded as JSON, conforms to the schema.
func (v *Validator) Validate(data any) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s to JSON: %w", v.what, err)
	}
	return v.ValidateJSON(jsonBytes)
}

// ValidateJSON validates JSON bytes directly against the schema.
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	unified, err := v.unify(jsonBytes)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", v.what, err)
	}
	return nil
}

// ValidationErrors returns one message per violation, or nil when data is
// valid.
func (v *Validator) ValidationErrors(data any) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}
	unified, err := v.unify(jsonBytes)
	if err != nil {
		return []string{err.Error()}
	}
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

func (v *Validator) unify(jsonBytes []byte) (cue.Value, error) {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling %s as CUE: %w", v.what, dataValue.Err())
	}
	def := v.schema.LookupPath(cue.ParsePath(v.def))
	return def.Unify(dataValue), nil
}
