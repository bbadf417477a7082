// Package validator checks a device configuration and assets directory
// before a test run, so misconfigurations surface upfront instead of
// mid-suite.
package validator

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/appium-vision/pkg/config"
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
	// Devices is the list of configured logical device names.
	Devices []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates configuration and assets.
type Validator struct {
	configPath string
	assetsDir  string
}

// New creates a new Validator.
func New(configPath, assetsDir string) *Validator {
	return &Validator{configPath: configPath, assetsDir: assetsDir}
}

// Validate checks the configuration file and every asset under the
// assets directory. All problems are collected, not just the first.
func (v *Validator) Validate() *Result {
	result := &Result{}

	v.validateConfig(result)
	v.validateCoordinates(result)
	v.validateImages(result)

	return result
}

func (v *Validator) validateConfig(result *Result) {
	data, err := os.ReadFile(v.configPath) //#nosec G304 -- user-provided config file
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    v.configPath,
			Message: fmt.Sprintf("cannot read configuration: %v", err),
		})
		return
	}

	var f config.File
	if err := yaml.Unmarshal(data, &f); err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    v.configPath,
			Message: fmt.Sprintf("malformed YAML: %v", err),
		})
		return
	}

	if len(f.Devices) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			File:    v.configPath,
			Message: "no devices configured",
		})
		return
	}

	for name, profile := range f.Devices {
		if profile.Port < 0 || profile.Port > 65535 {
			result.Errors = append(result.Errors, &ValidationError{
				File:    v.configPath,
				Message: fmt.Sprintf("device %s: port %d out of range", name, profile.Port),
			})
		}
		result.Devices = append(result.Devices, name)
	}
}

func (v *Validator) validateCoordinates(result *Result) {
	dir := filepath.Join(v.assetsDir, "coordinates")
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return
	}

	for _, file := range files {
		data, err := os.ReadFile(file) //#nosec G304 -- enumerated above
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    file,
				Message: fmt.Sprintf("cannot read dataset: %v", err),
			})
			continue
		}

		var dataset map[string]map[string]interface{}
		if err := json.Unmarshal(data, &dataset); err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    file,
				Message: fmt.Sprintf("malformed JSON: %v", err),
			})
			continue
		}

		for key, coords := range dataset {
			if _, ok := coords["x"]; !ok {
				result.Errors = append(result.Errors, &ValidationError{
					File:    file,
					Message: fmt.Sprintf("coordinate %s: missing x", key),
				})
			}
			if _, ok := coords["y"]; !ok {
				result.Errors = append(result.Errors, &ValidationError{
					File:    file,
					Message: fmt.Sprintf("coordinate %s: missing y", key),
				})
			}
		}
	}
}

func (v *Validator) validateImages(result *Result) {
	dir := filepath.Join(v.assetsDir, "images")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		f, err := os.Open(path) //#nosec G304 -- enumerated above
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("cannot open image: %v", err),
			})
			continue
		}
		_, _, err = image.Decode(f)
		f.Close()
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("not a decodable image: %v", err),
			})
		}
	}
}
