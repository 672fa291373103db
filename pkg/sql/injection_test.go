package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInputForInjection(t *testing.T) {
	tests := []struct {
		name            string
		field           string
		value           string
		expectInjection bool
	}{
		{"clean search term", "search", "buy groceries", false},
		{"clean UUID", "team_id", "550e8400-e29b-41d4-a716-446655440000", false},
		{"clean date", "due", "2024-01-15", false},
		{"empty string", "search", "", false},
		{"legitimate apostrophe", "search", "O'Brien", false},
		{"double dash in text", "search", "call mom -- tomorrow", false},
		{"sql keyword in prose", "search", "SELECT the best option from the menu", false},

		{"classic quote injection", "search", "' OR '1'='1", true},
		{"drop table", "search", "'; DROP TABLE tasks--", true},
		{"union select", "search", "1 UNION SELECT * FROM passwords", true},
		{"comment injection", "search", "admin'--", true},
		{"time-based blind", "search", "1' AND SLEEP(5)--", true},
		{"stacked queries", "search", "admin'; DELETE FROM logs; --", true},
		{"union with null", "search", "' UNION SELECT NULL, NULL--", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckInputForInjection(tt.field, tt.value)

			if !tt.expectInjection {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.field, result.Field)
			assert.Equal(t, tt.value, result.Value)
			assert.NotEmpty(t, result.Fingerprint)
		})
	}
}

func TestCheckInputForInjection_RealWorldTaskText(t *testing.T) {
	clean := []string{
		"Renew passport before 2024-06-01",
		"email user+tag@example.com about the invoice",
		"$1,234.56 for rent",
		"https://example.com/path?query=value&other=123",
		"# Header\n\nThis is **bold** text.",
		"function test() { return true; }",
	}

	for _, value := range clean {
		t.Run(value, func(t *testing.T) {
			assert.Nil(t, CheckInputForInjection("search", value))
		})
	}
}

func TestCheckInputs(t *testing.T) {
	tests := []struct {
		name       string
		inputs     map[string]string
		wantFields []string
	}{
		{
			name:       "all clean",
			inputs:     map[string]string{"search": "milk", "status": "pending"},
			wantFields: nil,
		},
		{
			name:       "single injection",
			inputs:     map[string]string{"search": "'; DROP TABLE tasks--", "status": "pending"},
			wantFields: []string{"search"},
		},
		{
			name:       "multiple injections sorted by field",
			inputs:     map[string]string{"title": "admin'--", "search": "' OR 1=1--", "status": "done"},
			wantFields: []string{"search", "title"},
		},
		{
			name:       "empty map",
			inputs:     map[string]string{},
			wantFields: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := CheckInputs(tt.inputs)

			var fields []string
			for _, r := range results {
				fields = append(fields, r.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}
