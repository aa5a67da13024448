package trie_test

import (
	"testing"

	"grol.io/oneshot/trie"
)

func TestInsertAndContains(t *testing.T) {
	tr := trie.NewTrie()
	tr.Insert("to json")
	tr.Insert("to  yaml")
	tests := []struct {
		name string
		want bool
	}{
		{"to json", true},
		{"to yaml", true},
		{"to   json", true},
		{"to", false},
		{"to json raw", false},
		{"json", false},
		{"to js", false},
	}
	for _, tt := range tests {
		if got := tr.Contains(tt.name); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestShorterNameAfterLonger(t *testing.T) {
	tr := trie.NewTrie()
	tr.Insert("to json")
	tr.Insert("to")
	if !tr.Contains("to") || !tr.Contains("to json") {
		t.Error("both 'to' and 'to json' should be found")
	}
	tr.Insert("to")
	if tr.Len() != 2 {
		t.Errorf("inserting twice should not count twice, Len() = %d", tr.Len())
	}
}

func TestHasPrefix(t *testing.T) {
	tr := trie.NewTrie()
	tr.Insert("str upcase")
	tr.Insert("str downcase")
	tr.Insert("echo")
	tests := []struct {
		prefix string
		want   bool
	}{
		{"str", true},
		{"str ", true},
		{"str upcase", false},
		{"st", false},
		{"echo", false},
		{"math", false},
		{"", true},
	}
	for _, tt := range tests {
		if got := tr.HasPrefix(tt.prefix); got != tt.want {
			t.Errorf("HasPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}
