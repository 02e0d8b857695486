// Package validator collects and parses flow files before execution so
// that every syntax error is reported up front, not halfway through a run.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quokka-io/mobile-harness/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Flows are the parsed flows that passed the tag filters, in path order.
	Flows []*flow.Flow
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates flow files.
type Validator struct {
	includeTags []string
	excludeTags []string
	parseOpts   []flow.ParseOption
}

// New creates a new Validator. parseOpts are passed to every flow.ParseFile.
func New(includeTags, excludeTags []string, parseOpts ...flow.ParseOption) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
		parseOpts:   parseOpts,
	}
}

// Validate validates every path, each a flow file or a directory of
// them, and accumulates the results. A file reached twice is parsed once.
func (v *Validator) Validate(paths ...string) *Result {
	result := &Result{}
	seen := make(map[string]bool)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("cannot access: %v", err),
			})
			continue
		}

		files := []string{path}
		if info.IsDir() {
			files, err = collectFlowFiles(path)
			if err != nil {
				result.Errors = append(result.Errors, &ValidationError{
					File:    path,
					Message: fmt.Sprintf("failed to scan directory: %v", err),
				})
				continue
			}
		}

		for _, file := range files {
			if seen[filepath.Clean(file)] {
				continue
			}
			seen[filepath.Clean(file)] = true
			v.validateFile(file, result)
		}
	}

	return result
}

// collectFlowFiles finds all .yaml/.yml files under dir, sorted.
func collectFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

func (v *Validator) validateFile(filePath string, result *Result) {
	f, err := flow.ParseFile(filePath, v.parseOpts...)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}
	if len(f.Steps) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: "flow has no steps",
		})
		return
	}

	if !f.MatchesTags(v.includeTags, v.excludeTags) {
		return
	}
	result.Flows = append(result.Flows, f)
}
