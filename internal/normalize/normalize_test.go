package normalize

import (
	"testing"
)

func TestCompanyNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase with surrounding whitespace",
			input: " ab123456 ",
			want:  "AB123456",
		},
		{
			name:  "already normalized",
			input: "AB123456",
			want:  "AB123456",
		},
		{
			name:  "internal spaces and hyphen",
			input: "SC 123-456",
			want:  "SC123456",
		},
		{
			name:  "parenthesized",
			input: "(00123456)",
			want:  "00123456",
		},
		{
			name:  "leading zeros preserved",
			input: "00445790",
			want:  "00445790",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompanyNumber(tt.input); got != tt.want {
				t.Errorf("CompanyNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Acme Holdings Ltd ", "ACME HOLDINGS LTD"},
		{"TESCO STORES LIMITED", "TESCO STORES LIMITED"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NameKey(tt.input); got != tt.want {
				t.Errorf("NameKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAddressKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" 10 Downing Street, London ", "10 DOWNING STREET, LONDON"},
		{"sw1a 2aa", "SW1A 2AA"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := AddressKey(tt.input); got != tt.want {
				t.Errorf("AddressKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
