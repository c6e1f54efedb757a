// Package words is the word oracle used by the room engine: dictionary
// membership, wordpiece pools and best-effort definitions.
package words

import (
	_ "embed"
	"maps"
	"slices"
	"strings"
	"unicode"
)

//go:embed words.txt
var embeddedWords string

// Dictionary is a read-only set of lowercase words. It is safe for concurrent use
// once built.
type Dictionary struct {
	set map[string]struct{}
}

func NewDictionary(list []string) *Dictionary {
	d := &Dictionary{set: make(map[string]struct{}, len(list))}
	for _, w := range list {
		if w = Normalize(w); isWord(w) {
			d.set[w] = struct{}{}
		}
	}
	return d
}

// Default returns the dictionary compiled into the binary.
func Default() *Dictionary {
	return NewDictionary(strings.Split(embeddedWords, "\n"))
}

func (d *Dictionary) Contains(word string) bool {
	if d == nil {
		return false
	}
	_, ok := d.set[Normalize(word)]
	return ok
}

// Words lists the dictionary in sorted order.
func (d *Dictionary) Words() []string {
	if d == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(d.set))
}

func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.set)
}

// Normalize lowercases and trims a submitted word.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func isWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}
