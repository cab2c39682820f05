package scoring

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"alias resolves to canonical", "k8s", "kubernetes"},
		{"short kubernetes alias", "k8", "kubernetes"},
		{"react alias", "reactjs", "react"},
		{"node resolves to javascript", "node.js", "javascript"},
		{"golang resolves to go", "golang", "go"},
		{"canonical passes through", "python", "python"},
		{"upper case and padding", "  GoLang  ", "go"},
		{"filler prefix stripped", "using Python", "python"},
		{"filler suffix stripped", "java development", "java"},
		{"prefix and alias together", "with k8s", "kubernetes"},
		{"first table entry wins shared alias", "cicd", "jenkins"},
		{"ci/cd claimed by jenkins first", "ci/cd", "jenkins"},
		{"unknown term cleaned only", "COBOL", "cobol"},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"k8s", "ReactJS", "using python", "machine learning", "spring framework",
		"amazon web services", "unknown skill", "", "  c sharp  ", "ci/cd",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestVariants(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "canonical includes aliases",
			input:        "python",
			wantContains: []string{"python", "py", "python3", "python2"},
		},
		{
			name:         "raw spelling preserved alongside canonical",
			input:        "ReactJS",
			wantContains: []string{"reactjs", "react", "react.js", "react js"},
		},
		{
			name:  "multi word skill gets joined forms",
			input: "machine learning",
			wantContains: []string{
				"machine learning", "machinelearning", "machine.learning", "machine-learning",
				"ml", "artificial intelligence", "ai",
			},
		},
		{
			name:         "unknown skill keeps itself",
			input:        "Erlang",
			wantContains: []string{"erlang"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variants(tt.input)
			for _, want := range tt.wantContains {
				if !slices.Contains(got, want) {
					t.Errorf("Variants(%q) = %v, missing %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestVariantsNoDuplicates(t *testing.T) {
	for _, input := range []string{"python", "machine learning", "k8s", "go"} {
		got := Variants(input)
		seen := make(map[string]struct{}, len(got))
		for _, v := range got {
			if _, ok := seen[v]; ok {
				t.Errorf("Variants(%q) contains duplicate %q", input, v)
			}
			seen[v] = struct{}{}
		}
	}
}
