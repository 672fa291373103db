// Package sql screens free-text request input for SQL injection patterns.
// Queries are always parameterized; screening exists so attempts can be
// logged and alerted on.
package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes one input value that libinjection flagged.
type InjectionCheckResult struct {
	Field       string // Name of the input field
	Value       string // The value that was checked
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckInputForInjection runs libinjection over a single value. It returns
// nil for clean or empty input.
//
// Example:
//
//	CheckInputForInjection("search", "groceries")            // nil
//	CheckInputForInjection("search", "'; DROP TABLE tasks--") // Fingerprint "s&1c" or similar
func CheckInputForInjection(field, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		Field:       field,
		Value:       value,
		Fingerprint: string(fingerprint),
	}
}

// CheckInputs screens every value in inputs and returns the flagged ones
// ordered by field name.
func CheckInputs(inputs map[string]string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for field, value := range inputs {
		if result := CheckInputForInjection(field, value); result != nil {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Field < results[j].Field })
	return results
}
