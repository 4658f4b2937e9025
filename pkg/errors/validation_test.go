package errors

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "gene-a", false},
		{"valid with colon", "link:a->b", false},
		{"valid unicode", "Δgene", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " foo", true},
		{"trailing space", "foo ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("node", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidatePitch(t *testing.T) {
	tests := []struct {
		name    string
		pitch   float64
		wantErr bool
	}{
		{"unit", 10, false},
		{"typical", 300, false},
		{"below unit", 5, true},
		{"zero", 0, true},
		{"negative", -10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePitch("row_pitch", tt.pitch, 10)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePitch(%v) error = %v, wantErr %v", tt.pitch, err, tt.wantErr)
			}
		})
	}
}
