package text

// Hyphenator finds hyphenation points in a word. It returns rune offsets k
// such that the word may break between word[k-1] and word[k].
type Hyphenator interface {
	Hyphenate(word []rune, lang string) []int
}

// SoftHyphenator offers only the opportunities marked with U+00AD in the
// source text.
type SoftHyphenator struct{}

func (SoftHyphenator) Hyphenate(word []rune, _ string) []int {
	var out []int
	for i, r := range word {
		if r == softHyphen && i+1 < len(word) {
			out = append(out, i+1)
		}
	}
	return out
}

// HyphenatorFunc adapts a function to the Hyphenator interface.
type HyphenatorFunc func(word []rune, lang string) []int

func (f HyphenatorFunc) Hyphenate(word []rune, lang string) []int { return f(word, lang) }
