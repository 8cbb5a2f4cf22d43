package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	translateRequestSchema = "translate_request.schema.json"
	selectionRequestSchema = "selection_request.schema.json"

	maxRequestBodyBytes = 64 << 10
)

//go:embed schema/*.schema.json
var schemaFiles embed.FS

var (
	compileOnce     sync.Once
	compiledSchemas map[string]*jsonschema.Schema
	compileErr      error
)

type translateBody struct {
	Text   string `json:"text"`
	Origin string `json:"origin"`
}

type selectionBody struct {
	Text string `json:"text"`
}

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		names := []string{translateRequestSchema, selectionRequestSchema}
		for _, name := range names {
			raw, err := schemaFiles.ReadFile("schema/" + name)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", name, err)
				return
			}
		}

		schemas := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			schema, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			schemas[name] = schema
		}
		compiledSchemas = schemas
	})

	if compileErr != nil {
		return nil, compileErr
	}
	return compiledSchemas, nil
}

// decodeBody validates raw against the named schema and decodes it into dst.
// The returned map holds per-field messages for a schema failure.
func decodeBody(raw []byte, schemaName string, dst any) (map[string]string, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	schema, ok := schemas[schemaName]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schemaName)
	}

	value, err := decodeStrictJSON(raw)
	if err != nil {
		return map[string]string{"body": err.Error()}, nil
	}

	if err := schema.Validate(value); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return fieldErrors(validationErr), nil
		}
		return map[string]string{"body": err.Error()}, nil
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize request body: %w", err)
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return nil, fmt.Errorf("unmarshal request body: %w", err)
	}
	return nil, nil
}

func fieldErrors(err *jsonschema.ValidationError) map[string]string {
	out := map[string]string{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := e.InstanceLocation
			if field == "" {
				field = "body"
			} else if field[0] == '/' {
				field = field[1:]
			}
			if _, exists := out[field]; !exists {
				out[field] = e.Message
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)
	return out
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("request body is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("request body contains trailing content")
	}
	return value, nil
}
