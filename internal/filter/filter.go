// Package filter masks banned words in user supplied comment bodies.
package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/importcjj/sensitive"
)

// Mask replaces every rune of a banned word
const Mask = '*'

// Filter wraps a sensitive-word trie. A Filter with no words returns text unchanged.
type Filter struct {
	trie  *sensitive.Filter
	words int
}

// New builds a filter from an inline word list and an optional dictionary
// file with one word per line. Words are stored lower-cased and matched
// against a lower-cased copy of the text, so any mix of case is caught.
func New(words []string, dictPath string) (*Filter, error) {
	f := &Filter{trie: sensitive.New()}

	for _, w := range words {
		f.add(w)
	}

	if dictPath != "" {
		if err := f.loadDict(dictPath); err != nil {
			return nil, fmt.Errorf("failed to load banned words from %s: %w", dictPath, err)
		}
	}

	return f, nil
}

func (f *Filter) loadDict(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		f.add(scanner.Text())
	}
	return scanner.Err()
}

func (f *Filter) add(word string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	f.trie.AddWord(string(fold([]rune(word))))
	f.words++
}

// fold lower-cases rune by rune so offsets in the result match the input
func fold(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// Clean returns text with banned words masked and the words that matched.
// Matches are reported lower-cased.
func (f *Filter) Clean(text string) (string, []string) {
	if f == nil || f.words == 0 {
		return text, nil
	}

	runes := []rune(text)
	folded := fold(runes)

	found := f.trie.FindAll(string(folded))
	if len(found) == 0 {
		return text, nil
	}

	masked := []rune(f.trie.Replace(string(folded), Mask))
	for i := range runes {
		if masked[i] != folded[i] {
			runes[i] = Mask
		}
	}
	return string(runes), found
}
