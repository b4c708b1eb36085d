package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/statevet/statevet/internal/fsm"
	"github.com/statevet/statevet/internal/schema"
)

// ErrCodeCommand marks CLI-level failures (missing files, storage problems,
// bad flag combinations) as distinct from the document and validation
// taxonomies.
const ErrCodeCommand = "E002"

// loadErrorCode picks the output code for a collapsed LoadDefinition error.
func loadErrorCode(err error) string {
	if GetExitCode(err) == ExitCommandError {
		return ErrCodeCommand
	}
	return schema.ErrInvalidDocument
}

// LoadDefinition reads a definition document from path and decodes it
// through the schema gate. The format is chosen by file extension: .json
// for JSON, .yaml or .yml for YAML. On shape violations the full error
// list comes back; file and format problems produce a single ExitError
// with ExitCommandError.
func LoadDefinition(path string) (*fsm.Definition, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&ExitError{Code: ExitCommandError, Message: "reading definition file", Err: err}}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return schema.DecodeJSON(data)
	case ".yaml", ".yml":
		return schema.DecodeYAML(data)
	default:
		return nil, []error{NewExitError(ExitCommandError,
			fmt.Sprintf("unsupported definition format %q: expected .json, .yaml, or .yml", filepath.Ext(path)))}
	}
}

// combineLoadErrors collapses a LoadDefinition error list into one error for
// callers that treat the definition as a prerequisite rather than the thing
// under test. A command error wins over shape errors.
func combineLoadErrors(errs []error) error {
	for _, err := range errs {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return NewExitError(ExitFailure, strings.Join(msgs, "; "))
}

// documentErrors extracts the shape violations from a LoadDefinition error
// list.
func documentErrors(errs []error) []*schema.DocumentError {
	var docErrs []*schema.DocumentError
	for _, err := range errs {
		var docErr *schema.DocumentError
		if errors.As(err, &docErr) {
			docErrs = append(docErrs, docErr)
		}
	}
	return docErrs
}
