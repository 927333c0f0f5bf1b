package transcript

import (
	"reflect"
	"testing"
)

func keys(ss ...string) []LookupKey {
	out := make([]LookupKey, len(ss))
	for i, s := range ss {
		out[i] = LookupKey(s)
	}
	return out
}

func TestResolve_Keys(t *testing.T) {
	tests := []struct {
		word    string
		want    []LookupKey
		numeric bool
	}{
		{"hello", keys("hello"), false},
		{"Hello", keys("hello"), false},
		{"305", keys("3", "0", "5"), true},
		{"2024", keys("2", "0", "2", "4"), true},
		{"7", keys("7"), true},
		{"a1", keys("a1"), false},
		{"don't", keys("don't"), false},
		{"Hello,", keys("hello,"), false},
	}

	for _, tt := range tests {
		got := Resolve(Transcript{tt.word})
		if len(got) != 1 {
			t.Fatalf("Resolve(%q) returned %d tokens, want 1", tt.word, len(got))
		}
		if !reflect.DeepEqual(got[0].Keys, tt.want) {
			t.Errorf("Resolve(%q) keys = %v, want %v", tt.word, got[0].Keys, tt.want)
		}
		if got[0].Token.Numeric != tt.numeric {
			t.Errorf("Resolve(%q) numeric = %v, want %v", tt.word, got[0].Token.Numeric, tt.numeric)
		}
		if got[0].Token.Text != tt.word {
			t.Errorf("token text = %q, want %q", got[0].Token.Text, tt.word)
		}
	}
}

func TestResolveText_PreservesOrder(t *testing.T) {
	got := ResolveText("  I  have\t12 Cats\n")
	wantTokens := []string{"I", "have", "12", "Cats"}
	if len(got) != len(wantTokens) {
		t.Fatalf("got %d tokens, want %d", len(got), len(wantTokens))
	}
	for i, w := range wantTokens {
		if got[i].Token.Text != w {
			t.Errorf("token %d = %q, want %q", i, got[i].Token.Text, w)
		}
	}
	if !reflect.DeepEqual(got[2].Keys, keys("1", "2")) {
		t.Errorf("numeric keys = %v, want [1 2]", got[2].Keys)
	}
	if KeyCount(got) != 5 {
		t.Errorf("KeyCount = %d, want 5", KeyCount(got))
	}
}

func TestResolve_EveryTokenHasKey(t *testing.T) {
	for _, r := range ResolveText("one 2 three 45678 NINE") {
		if len(r.Keys) == 0 {
			t.Errorf("token %q produced no keys", r.Token.Text)
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := Split("   "); len(got) != 0 {
		t.Errorf("Split(blank) = %v, want empty", got)
	}
	if got := ResolveText(""); len(got) != 0 {
		t.Errorf("ResolveText(\"\") = %v, want empty", got)
	}
}
