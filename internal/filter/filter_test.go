package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClean(t *testing.T) {
	f, err := New([]string{"darn", " heck ", ""}, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name      string
		input     string
		expected  string
		wantFound int
	}{
		{"no banned words", "great article", "great article", 0},
		{"single word", "this is darn good", "this is **** good", 1},
		{"upper case", "DARN it", "**** it", 1},
		{"title case", "Heck yes", "**** yes", 1},
		{"two words", "darn and heck", "**** and ****", 2},
		{"mixed case", "dArN it", "**** it", 1},
		{"keeps surrounding runes", "Café DaRn über", "Café **** über", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := f.Clean(tt.input)
			if got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if len(found) != tt.wantFound {
				t.Errorf("Expected %d matches, got %v", tt.wantFound, found)
			}
		})
	}
}

func TestClean_EmptyFilter(t *testing.T) {
	f, err := New(nil, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, found := f.Clean("anything goes")
	if got != "anything goes" || found != nil {
		t.Errorf("Expected passthrough, got %q %v", got, found)
	}

	var nilFilter *Filter
	if got, _ := nilFilter.Clean("text"); got != "text" {
		t.Errorf("nil filter should pass text through, got %q", got)
	}
}

func TestNew_DictFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	if err := os.WriteFile(path, []byte("spoiler\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := New(nil, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, input := range []string{"no spoiler please", "no SpOiLeR please"} {
		if got, _ := f.Clean(input); got != "no ******* please" {
			t.Errorf("Clean(%q) = %q", input, got)
		}
	}
}

func TestNew_DictFileMixedCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	if err := os.WriteFile(path, []byte("Spoiler\n\n  Leak \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := New(nil, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, found := f.Clean("spoiler LEAK")
	if got != "******* ****" {
		t.Errorf("Unexpected result %q", got)
	}
	if len(found) != 2 {
		t.Errorf("Expected 2 matches, got %v", found)
	}
}

func TestNew_MissingDictFile(t *testing.T) {
	if _, err := New(nil, filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing dictionary")
	}
}
