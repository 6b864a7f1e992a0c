package utils

import (
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Smith", "smith"},
		{" smith ", "smith"},
		{"SMITH", "smith"},
		{"\tИванов Иван\n", "иванов иван"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsKey(t *testing.T) {
	if !ContainsKey("Park Station", "park") {
		t.Error("expected case-insensitive containment")
	}
	if ContainsKey("", "park") {
		t.Error("empty value should never match")
	}
	if ContainsKey("North", "park") {
		t.Error("unexpected match")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"привет мир", 6, "привет..."},
		{"x", 0, "x"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func TestFirstWord(t *testing.T) {
	if got := FirstWord("  Smith John "); got != "Smith" {
		t.Errorf("got %q", got)
	}
	if got := FirstWord(""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestMean(t *testing.T) {
	a, b := 2.0, 4.0
	mean, n, ok := Mean([]*float64{&a, nil, &b})
	if !ok || n != 2 || mean != 3 {
		t.Errorf("Mean = %v, %d, %v", mean, n, ok)
	}
	if _, _, ok := Mean([]*float64{nil}); ok {
		t.Error("expected ok=false when no values present")
	}
}

func TestRound1(t *testing.T) {
	if got := Round1(1.26); got != 1.3 {
		t.Errorf("Round1(1.26) = %v", got)
	}
	if got := Round1(-0.04); got != 0 {
		t.Errorf("Round1(-0.04) = %v", got)
	}
}
