// Package trie stores multi-word names ("to json", "str upcase") word by word,
// so a parser can find the longest known name one word at a time.
package trie // import "grol.io/oneshot/trie"

import "strings"

type Trie struct {
	children map[string]*Trie
	// A name ends at this node, in addition to possibly longer ones going through it.
	valid bool
}

func NewTrie() *Trie {
	return &Trie{}
}

// Insert adds name, words being separated by any amount of spaces.
func (t *Trie) Insert(name string) {
	for _, w := range strings.Fields(name) {
		if t.children == nil {
			t.children = make(map[string]*Trie)
		}
		next := t.children[w]
		if next == nil {
			next = &Trie{}
			t.children[w] = next
		}
		t = next
	}
	t.valid = true
}

func (t *Trie) Contains(name string) bool {
	return t.Prefix(name).IsValid()
}

// HasPrefix is true when at least one name is made of the words of prefix followed by more words.
func (t *Trie) HasPrefix(prefix string) bool {
	n := t.Prefix(prefix)
	return n != nil && len(n.children) > 0
}

// Prefix returns the node reached by the words of name, nil if there is none.
func (t *Trie) Prefix(name string) *Trie {
	for _, w := range strings.Fields(name) {
		t = t.children[w]
		if t == nil {
			return nil
		}
	}
	return t
}

// Len is the number of names stored.
func (t *Trie) Len() int {
	n := 0
	if t.valid {
		n++
	}
	for _, c := range t.children {
		n += c.Len()
	}
	return n
}

func (t *Trie) IsValid() bool {
	return t != nil && t.valid
}
