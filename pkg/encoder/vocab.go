package encoder

// Vocab maps tokens to dense integer ids.
type Vocab struct {
	words []string
	index map[string]int
}

// NewVocab creates an empty vocabulary.
func NewVocab() *Vocab {
	return &Vocab{index: make(map[string]int)}
}

// FromTokens builds a vocabulary from token rows, first occurrence first.
func FromTokens(rows [][]string) *Vocab {
	v := NewVocab()
	for _, row := range rows {
		for _, w := range row {
			v.Add(w)
		}
	}
	return v
}

// Add interns a token and returns its id.
func (v *Vocab) Add(word string) int {
	if id, ok := v.index[word]; ok {
		return id
	}
	id := len(v.words)
	v.words = append(v.words, word)
	v.index[word] = id
	return id
}

// ID looks up a token.
func (v *Vocab) ID(word string) (int, bool) {
	id, ok := v.index[word]
	return id, ok
}

// Word returns the token for an id, or "" if out of range.
func (v *Vocab) Word(id int) string {
	if id < 0 || id >= len(v.words) {
		return ""
	}
	return v.words[id]
}

// Len returns the vocabulary size.
func (v *Vocab) Len() int { return len(v.words) }

// Encode maps a token row to ids, interning unseen tokens.
func (v *Vocab) Encode(tokens []string) []int {
	ids := make([]int, len(tokens))
	for i, w := range tokens {
		ids[i] = v.Add(w)
	}
	return ids
}

// Decode maps ids back to tokens.
func (v *Vocab) Decode(ids []int) []string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = v.Word(id)
	}
	return words
}
