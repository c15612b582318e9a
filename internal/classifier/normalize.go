package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.French)

// Normalize lowercases text, keeps letters only and drops French and English
// stop-words. Accents are preserved.
func Normalize(text string) string {
	t := transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return ' '
	}))
	cleaned, _, err := transform.String(t, text)
	if err != nil {
		cleaned = text
	}
	cleaned = lower.String(cleaned)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Fold strips diacritics, used when matching vocabulary.
func Fold(word string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, word)
	if err != nil {
		return word
	}
	return out
}

var stopWords = toSet(
	// French
	"a", "à", "au", "aux", "avec", "ce", "ces", "cet", "cette", "d", "dans", "de", "des", "du",
	"elle", "en", "et", "eux", "il", "ils", "je", "j", "l", "la", "le", "les", "leur", "lui",
	"m", "ma", "mais", "me", "même", "mes", "moi", "mon", "n", "ne", "nos", "notre", "nous",
	"on", "ou", "où", "par", "pas", "pour", "qu", "que", "qui", "s", "sa", "se", "ses", "son",
	"sur", "t", "ta", "te", "tes", "toi", "ton", "tu", "un", "une", "vos", "votre", "vous",
	"y", "été", "être", "est", "sont", "ont", "avoir",
	// English
	"an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "have", "he", "her",
	"his", "i", "in", "is", "it", "its", "of", "on", "or", "she", "that", "the", "their",
	"them", "they", "this", "to", "was", "we", "were", "will", "with", "you", "your",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
