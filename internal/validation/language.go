package validation

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

var (
	spanishMarks = regexp.MustCompile(`[ñÑ¿¡áéíóúÁÉÍÓÚ]`)
	wordRE       = regexp.MustCompile(`\p{L}+`)

	spanishWords = map[string]struct{}{
		"el": {}, "la": {}, "los": {}, "las": {}, "que": {}, "de": {}, "y": {},
		"es": {}, "muy": {}, "pero": {}, "estoy": {}, "esto": {}, "gracias": {},
		"hola": {}, "por": {}, "para": {}, "con": {}, "una": {}, "un": {}, "no": {},
	}
)

// GuessLanguage returns a BCP 47 tag for text: Spanish when it carries
// Spanish diacritics or inverted punctuation or is dominated by common
// Spanish words, English otherwise.
func GuessLanguage(text string) language.Tag {
	if spanishMarks.MatchString(text) {
		return language.Spanish
	}
	words := wordRE.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return language.English
	}
	hits := 0
	for _, w := range words {
		if _, ok := spanishWords[w]; ok {
			hits++
		}
	}
	if hits*3 >= len(words) && hits >= 2 {
		return language.Spanish
	}
	return language.English
}

// ParseLanguage canonicalizes a language code to its base tag ("es-MX" -> "es").
func ParseLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", &ValidationError{Field: "language_code", Problems: []string{"is not a valid language code"}}
	}
	base, _ := tag.Base()
	return base.String(), nil
}
