package textutil

import "testing"

func TestFoldDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1996-08-22", "0000-00-00"},
		{"EU", "EU"},
		{"B-52", "B-00"},
		{"", ""},
		{"3rd", "0rd"},
		{"12.5%", "00.0%"},
	}
	for _, tt := range tests {
		got := FoldDigits(tt.input)
		if got != tt.want {
			t.Errorf("FoldDigits(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("Hello\nWorld  Again")
	if got != "hello world again" {
		t.Errorf("Normalize = %q, want %q", got, "hello world again")
	}
}
