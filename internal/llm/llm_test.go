package llm

import "testing"

func TestNewValidatesVariant(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"fr", false},
		{"en", false},
		{"", true},
		{"de", true},
	}
	for _, tt := range tests {
		_, err := New("http://localhost:11434/v1", "key", "llama3.2", tt.variant)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(variant=%q) error = %v, wantErr %v", tt.variant, err, tt.wantErr)
		}
	}
}
