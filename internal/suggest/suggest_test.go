package suggest

import "testing"

func TestClosest(t *testing.T) {
	names := []string{"x86_64", "aarch64", "wasm32", "wasm64"}

	tests := []struct {
		name string
		want string
	}{
		{"wasm23", "wasm32"},
		{"x86-64", "x86_64"},
		{"aarch46", "aarch64"},
		{"zzzzzzzzzzzz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Closest(tt.name, names); got != tt.want {
			t.Errorf("Closest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHint(t *testing.T) {
	if got := Hint("pair2", []string{"pair"}); got != " (did you mean pair?)" {
		t.Errorf("Hint = %q", got)
	}
	if got := Hint("q", []string{"pair"}); got != "" {
		t.Errorf("Hint = %q, want empty", got)
	}
}
