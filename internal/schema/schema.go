// Package schema is the input boundary for FSM definition documents. It
// checks a raw JSON or YAML document against the documented definition shape
// (embedded CUE schema, closed structs) and decodes it into the typed model.
//
// Shape violations are reported here because the typed model cannot
// represent them: once a document has been decoded into fsm.Definition, an
// unknown field or mistyped value no longer exists to be checked. Everything
// referential is left to internal/validate.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"gopkg.in/yaml.v3"

	"github.com/statevet/statevet/internal/fsm"
	"github.com/statevet/statevet/internal/validate"
)

//go:embed definition.cue
var definitionSchema string

// ErrInvalidDocument covers every shape failure that is not an unknown
// field: syntax errors, missing required fields, wrong types. Unknown fields
// carry the structural code validate.ErrUnknownField so the caller sees one
// taxonomy.
const ErrInvalidDocument = "E001"

// DocumentError is a shape violation in a raw definition document.
type DocumentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// DecodeJSON validates a JSON document against the definition shape and
// decodes it. On shape violations it returns every error found and no
// definition; there is no partial decode.
func DecodeJSON(data []byte) (*fsm.Definition, []error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(definitionSchema, cue.Filename("definition.cue"))
	if err := schemaVal.Err(); err != nil {
		return nil, []error{&DocumentError{Code: ErrInvalidDocument, Message: fmt.Sprintf("compiling definition schema: %v", err)}}
	}
	shape := schemaVal.LookupPath(cue.ParsePath("#Definition"))

	expr, err := cuejson.Extract("definition.json", data)
	if err != nil {
		return nil, []error{&DocumentError{Code: ErrInvalidDocument, Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return nil, []error{&DocumentError{Code: ErrInvalidDocument, Message: fmt.Sprintf("building document: %v", err)}}
	}

	if err := shape.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, convertCUEError(e))
		}
		return nil, errs
	}

	var def fsm.Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, []error{&DocumentError{Code: ErrInvalidDocument, Message: fmt.Sprintf("decoding definition: %v", err)}}
	}
	return &def, nil
}

// DecodeYAML validates and decodes a YAML document by converting it to JSON
// and running it through the same shape check, so both formats share one
// schema and one error taxonomy.
func DecodeYAML(data []byte) (*fsm.Definition, []error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []error{&DocumentError{Code: ErrInvalidDocument, Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, []error{&DocumentError{Code: ErrInvalidDocument, Message: fmt.Sprintf("converting YAML document: %v", err)}}
	}
	return DecodeJSON(jsonData)
}

// convertCUEError maps one CUE evaluation error to a DocumentError. Closed
// structs report unknown properties as "field not allowed"; those get the
// structural unknown-field code.
func convertCUEError(e cueerrors.Error) *DocumentError {
	format, args := e.Msg()
	message := fmt.Sprintf(format, args...)

	code := ErrInvalidDocument
	if strings.Contains(message, "field not allowed") {
		code = validate.ErrUnknownField
	}

	line := 0
	if pos := e.Position(); pos.IsValid() {
		line = pos.Line()
	}
	return &DocumentError{Code: code, Message: message, Line: line}
}
