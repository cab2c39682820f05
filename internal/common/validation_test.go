package common

import (
	"slices"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	defaults := []string{"json", "text", "markdown"}

	for _, format := range defaults {
		if err := ValidateOutputFormat(format, defaults); err != nil {
			t.Errorf("ValidateOutputFormat(%q) = %v, want nil", format, err)
		}
	}

	rejected := []struct {
		format  string
		wantErr string
	}{
		{"xml", "unsupported output format 'xml'. Supported formats: [json text markdown]"},
		{"yaml", "unsupported output format 'yaml'. Supported formats: [json text markdown]"},
		{"csv", "unsupported output format 'csv'. Supported formats: [json text markdown]"},
		// Matching is case sensitive
		{"JSON", "unsupported output format 'JSON'. Supported formats: [json text markdown]"},
		{"", "unsupported output format ''. Supported formats: [json text markdown]"},
	}
	for _, tt := range rejected {
		err := ValidateOutputFormat(tt.format, defaults)
		if err == nil {
			t.Errorf("ValidateOutputFormat(%q) = nil, want error", tt.format)
			continue
		}
		if err.Error() != tt.wantErr {
			t.Errorf("ValidateOutputFormat(%q) error = %q, want %q", tt.format, err.Error(), tt.wantErr)
		}
	}

	// An empty supported list disables the check entirely
	if err := ValidateOutputFormat("xml", []string{}); err != nil {
		t.Errorf("empty supported list should allow any format, got %v", err)
	}

	if err := ValidateOutputFormat("json", []string{"json"}); err != nil {
		t.Errorf("single supported format should accept itself, got %v", err)
	}
	err := ValidateOutputFormat("text", []string{"json"})
	if err == nil {
		t.Error("single supported format should reject others")
	} else if want := "unsupported output format 'text'. Supported formats: [json]"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestGetSupportedFormats(t *testing.T) {
	for _, formats := range [][]string{
		{"json", "text", "markdown"},
		{"json"},
		{},
		{"xml", "yaml", "csv"},
	} {
		got := GetSupportedFormats(formats)
		if !slices.Equal(got, formats) {
			t.Errorf("GetSupportedFormats(%v) = %v", formats, got)
		}
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supported)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supported)
		}
	})
}
