// Package schema validates rule definitions against embedded CUE schemas
// before the Go-level loader runs its own checks.
package schema

import (
	"embed"
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Validator handles CUE validation of rule documents.
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas loads all CUE schema files from the embedded filesystem.
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("could not read embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(filepath.Join("schemas", entry.Name()))
		if err != nil {
			continue
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if inst.Err() != nil {
			// A broken schema file falls back to Go validation.
			continue
		}

		schemaName := entry.Name()[:len(entry.Name())-4]
		v.schemas[schemaName] = inst.Value()
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas loaded, using Go validation")
	}
	return nil
}

// ValidateRule validates one rule map against the rule schema. A nil
// return means the data conforms (or the schema is not loaded, in which
// case Go validation is the only check).
func (v *Validator) ValidateRule(data map[string]any) error {
	schema, ok := v.schemas["rule"]
	if !ok {
		return nil
	}

	dataValue := v.ctx.Encode(data)
	if encErr := dataValue.Err(); encErr != nil {
		return fmt.Errorf("error encoding rule data: %w", encErr)
	}

	def := schema.LookupPath(cue.ParsePath("#Rule"))
	if !def.Exists() {
		return nil
	}

	unified := def.Unify(dataValue)
	if err := unified.Err(); err != nil {
		return fmt.Errorf("schema validation failed: %v", err)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %v", err)
	}
	return nil
}
