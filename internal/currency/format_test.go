package currency

import "testing"

func TestFormatInput(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"0", "0"},
		{"0.", "0."},
		{"0.5", "0.5"},
		{"00", "0"},
		{"007", "7"},
		{"01", "1"},
		{"00.5", "0.5"},
		{"10", "10"},
		{"100", "100"},
		{"3.14159", "3.14"},
		{"12.999", "12.99"},
		{"1234567", "123456"},
		{"1234567.89", "123456.89"},
		{"1.2.3", "1.23"},
		{".", "."},
		{".5", ".5"},
		{"abc", ""},
		{"1a2b", "12"},
		{"12,50", "1250"},
	}
	for _, tt := range tests {
		if got := FormatInput(tt.raw); got != tt.want {
			t.Errorf("FormatInput(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatInputIdempotent(t *testing.T) {
	corpus := []string{
		"", "0", "0.", "0.5", "00", "007", "10", "100.25", "3.14159",
		"1234567", "1234567.89", ".", ".5", "abc", "1a2b", "999999.99",
	}
	for _, raw := range corpus {
		once := FormatInput(raw)
		twice := FormatInput(once)
		if once != twice {
			t.Errorf("FormatInput not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{".", false},
		{".5", false},
		{"0", true},
		{"0.", true},
		{"0.5", true},
		{"12.50", true},
		{"123456", true},
		{"1e5", false},
		{"-3", false},
		{"+3", false},
		{"abc", false},
		{"1.2.3", false},
		{"1 2", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.text); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

// A formatted string is always either valid or empty-of-digits, and
// reformatting a valid string never changes it.
func TestFormatThenValidate(t *testing.T) {
	valid := []string{"0", "0.5", "12.50", "123456", "999999.99"}
	for _, text := range valid {
		if got := FormatInput(text); got != text {
			t.Errorf("FormatInput(%q) changed an already valid string to %q", text, got)
		}
		if !IsValid(text) {
			t.Errorf("IsValid(%q) = false, want true", text)
		}
	}
}
