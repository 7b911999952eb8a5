package text

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		minLen int
		want   []string
	}{
		{"simple words", "Hello World", 2, []string{"hello", "world"}},
		{"punctuation splits", "pizza, beer & games!", 2, []string{"pizza", "beer", "games"}},
		{"apostrophes kept", "let's do it", 2, []string{"let's", "do", "it"}},
		{"min length filters", "a to the party", 3, []string{"the", "party"}},
		{"digits kept", "meet at 7pm", 2, []string{"meet", "at", "7pm"}},
		{"empty input", "", 2, nil},
		{"only separators", "?! ...", 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input, tt.minLen)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q, %d) = %v, want %v", tt.input, tt.minLen, got, tt.want)
			}
		})
	}
}

func TestUniqueTokens(t *testing.T) {
	got := UniqueTokens("pizza pizza night PIZZA", 3)
	want := []string{"pizza", "night"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueTokens = %v, want %v", got, want)
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("the") {
		t.Error("expected 'the' to be a stopword")
	}
	if IsStopword("pizza") {
		t.Error("did not expect 'pizza' to be a stopword")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"within bound untouched", "short", 10, "short"},
		{"exactly at bound", "1234567890", 10, "1234567890"},
		{"over bound gets ellipsis", "12345678901", 10, "1234567..."},
		{"tiny bound", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if n := len([]rune(got)); n > tt.max {
				t.Errorf("Truncate result length %d exceeds max %d", n, tt.max)
			}
		})
	}
}
