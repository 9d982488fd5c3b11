package validator

import (
	"strings"
	"testing"
)

// TestCUEContractEnforcement checks that a misspelled or mistyped field can
// never reach the policy engine unnoticed.
func TestCUEContractEnforcement(t *testing.T) {
	v, err := NewFactsValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	port := func(overrides map[string]any) map[string]any {
		p := map[string]any{
			"entity":    "work.top",
			"name":      "clk",
			"direction": "in",
			"type":      "std_logic",
			"position":  0,
			"file":      "top.vhd",
		}
		for k, val := range overrides {
			p[k] = val
		}
		return p
	}

	tests := []struct {
		name    string
		data    map[string]any
		wantErr bool
	}{
		{
			name: "valid_input",
			data: map[string]any{
				"files":    []any{map[string]any{"path": "top.vhd", "library": "work", "status": "parsed"}},
				"entities": []any{map[string]any{"name": "work.top", "file": "top.vhd", "line": 1}},
				"ports":    []any{port(nil)},
			},
			wantErr: false,
		},
		{
			name: "unknown_direction_is_lint_not_contract",
			data: map[string]any{
				"ports": []any{port(map[string]any{"direction": "sideways"})},
			},
			wantErr: false,
		},
		{
			name: "misspelled_field",
			data: map[string]any{
				"ports": []any{port(map[string]any{"directon": "in"})},
			},
			wantErr: true,
		},
		{
			name: "unqualified_entity",
			data: map[string]any{
				"ports": []any{port(map[string]any{"entity": "top"})},
			},
			wantErr: true,
		},
		{
			name: "negative_position",
			data: map[string]any{
				"ports": []any{port(map[string]any{"position": -1})},
			},
			wantErr: true,
		},
		{
			name: "unknown_file_status",
			data: map[string]any{
				"files": []any{map[string]any{"path": "top.vhd", "library": "work", "status": "maybe"}},
			},
			wantErr: true,
		},
		{
			name: "unknown_relation",
			data: map[string]any{
				"packages": []any{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorsListsViolations(t *testing.T) {
	v, err := NewFactsValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	errs := v.ValidationErrors(map[string]any{
		"entities": []any{map[string]any{"name": "work.a", "file": "", "line": 0}},
	})
	if len(errs) == 0 {
		t.Fatalf("expected violations")
	}
	if v.ValidationErrors(map[string]any{"entities": []any{}}) != nil {
		t.Fatalf("expected no violations for an empty relation")
	}
}

func TestManifestValidator(t *testing.T) {
	v, err := NewManifestValidator()
	if err != nil {
		t.Fatalf("new manifest validator: %v", err)
	}
	if err := v.ValidateJSON([]byte(`{"_lambilaVersion": "1.0", "fileList": ["rtl/a.vhd"]}`)); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}
	for _, bad := range []string{
		`{"_lambilaVersion": "one", "fileList": []}`,
		`{"_lambilaVersion": "1.0", "fileList": [""]}`,
		`{"_lambilaVersion": "1.0", "files": []}`,
		`{"fileList": []}`,
		`not json`,
	} {
		if err := v.ValidateJSON([]byte(bad)); err == nil {
			t.Fatalf("expected %s to be rejected", bad)
		} else if !strings.Contains(err.Error(), "manifest") {
			t.Fatalf("error should name the manifest contract: %v", err)
		}
	}
}
