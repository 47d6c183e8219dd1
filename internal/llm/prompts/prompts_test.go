package prompts

import (
	"strings"
	"testing"
)

func TestIsValidVariant(t *testing.T) {
	tests := []struct {
		variant string
		want    bool
	}{
		{"fr", true},
		{"en", true},
		{"", false},
		{"FR", false},
		{"de", false},
	}
	for _, tt := range tests {
		if got := IsValidVariant(tt.variant); got != tt.want {
			t.Errorf("IsValidVariant(%q) = %v, want %v", tt.variant, got, tt.want)
		}
	}
}

func TestGeneration(t *testing.T) {
	data := GenData{Source: "// app.js\nconst x = 1;", NumQuestions: 5}

	for _, v := range []Variant{VariantFR, VariantEN} {
		t.Run(string(v), func(t *testing.T) {
			prompt, err := Generation(v, data)
			if err != nil {
				t.Fatalf("Generation: %v", err)
			}
			if !strings.Contains(prompt, data.Source) {
				t.Error("prompt should contain the source excerpt")
			}
			if !strings.Contains(prompt, "5") {
				t.Error("prompt should contain the question count")
			}
			// Both variants demand the same correct-answer marker so the
			// parser's detection rules apply regardless of language.
			if !strings.Contains(prompt, "Réponse correcte") {
				t.Error("prompt should demand the correct-answer marker format")
			}
		})
	}
}

func TestGenerationUnknownVariant(t *testing.T) {
	if _, err := Generation(Variant("de"), GenData{}); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
