// Package schemas holds the versioned JSON Schemas that model output must
// satisfy and validates documents against them.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"talentmatch/internal/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names
const (
	EvaluationV1 = "evaluation.v1"
	ProfileV1    = "profile.v1"
)

//go:embed *.json
var files embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

// FieldError is a single validation failure at a JSON path
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

func load() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema)
		for _, name := range []string{EvaluationV1, ProfileV1} {
			raw, err := files.ReadFile(name + ".json")
			if err != nil {
				compileErr = fmt.Errorf("failed to read schema %s: %w", name, err)
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			compiled[name] = schema
		}
	})
	return compiled, compileErr
}

// Validate checks document against the named schema. Invalid JSON and
// schema failures are returned as SchemaViolation errors carrying the
// failing fields.
func Validate(name string, document []byte) error {
	all, err := load()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeSchemaViolation, "schema unavailable", err)
	}
	schema, ok := all[name]
	if !ok {
		return errors.NewInternalError(errors.ErrCodeSchemaViolation, "unknown schema "+name, nil)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return errors.NewSchemaError(errors.ErrCodeSchemaViolation, "document is not valid JSON", err).
			WithContext("schema", name)
	}
	if result.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fe := FieldError{Field: field, Message: desc.Description()}
		fields = append(fields, fe)
		msgs = append(msgs, fe.String())
	}

	return errors.NewSchemaError(errors.ErrCodeSchemaViolation,
		fmt.Sprintf("document violates %s: %s", name, strings.Join(msgs, "; ")), nil).
		WithContext("schema", name).
		WithContext("violations", len(fields))
}
