package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"unicode"
)

// ProfanityFilter masks banned terms in outgoing text messages. The list
// targets abuse and off-platform trade bait.
// Matching runs against a normalized form (lowercase, whitespace and
// punctuation stripped) so spaced-out or dotted spellings are still caught,
// and masking maps the normalized hit back onto the original runes.
type ProfanityFilter struct {
	words []string
}

var defaultWords = []string{
	// abuse
	"asshole", "bastard", "dumbass", "piece of shit",
	// real-money trade bait
	"real money", "cash trade", "paypal", "venmo", "cashapp", "wire transfer",
	// off-platform messenger bait
	"kakaotalk", "telegram", "whatsapp", "discord",
	// scam patterns
	"pay first", "prepay", "send money first",
}

// NewProfanityFilter builds the filter with the default word list.
func NewProfanityFilter() *ProfanityFilter {
	return &ProfanityFilter{words: defaultWords}
}

// NewProfanityFilterWithWords builds the filter with a custom word list.
func NewProfanityFilterWithWords(words []string) *ProfanityFilter {
	return &ProfanityFilter{words: words}
}

// Contains reports whether the text holds a banned term.
func (f *ProfanityFilter) Contains(text string) bool {
	if text == "" {
		return false
	}
	normalized, _ := normalize(text)
	for _, word := range f.words {
		if strings.Contains(normalized, normalizeWord(word)) {
			log.Printf("profanity detected word=%q msg_hash=%s", word, fingerprint(text))
			return true
		}
	}
	return false
}

// Mask replaces every banned term with asterisks, preserving the length and
// the whitespace of the original text.
func (f *ProfanityFilter) Mask(text string) string {
	if text == "" {
		return text
	}

	normalized, origIndex := normalize(text)
	runes := []rune(text)

	for _, word := range f.words {
		needle := normalizeWord(word)
		if needle == "" {
			continue
		}
		from := 0
		for {
			hit := strings.Index(normalized[from:], needle)
			if hit < 0 {
				break
			}
			start := from + hit
			end := start + len(needle)
			// Normalized indexes are byte offsets; origIndex maps each
			// normalized byte to the rune it came from.
			for i := origIndex[start]; i <= origIndex[end-1]; i++ {
				if !unicode.IsSpace(runes[i]) {
					runes[i] = '*'
				}
			}
			from = end
		}
	}
	return string(runes)
}

// normalize lowercases and strips whitespace/punctuation, returning the
// normalized string plus a byte-offset→original-rune-index map.
func normalize(text string) (string, []int) {
	var b strings.Builder
	var origIndex []int
	for i, r := range []rune(text) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		for range []byte(string(unicode.ToLower(r))) {
			origIndex = append(origIndex, i)
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String(), origIndex
}

func normalizeWord(word string) string {
	n, _ := normalize(word)
	return n
}

// fingerprint is a short hash for log correlation without logging message
// bodies.
func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:4])
}
