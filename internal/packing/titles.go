package packing

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
)

const titleKeywordCount = 2

// stopwords that never make an interesting title keyword, per supported
// language plus shared filler.
var titleStopwords = map[string]struct{}{
	// Polish
	"jest": {}, "oraz": {}, "tego": {}, "tych": {}, "przez": {}, "jako": {},
	"przede": {}, "wszystkim": {}, "panie": {}, "pani": {}, "pana": {},
	"marszałku": {}, "wysoka": {}, "izbo": {}, "proszę": {}, "bardzo": {},
	"dziękuję": {}, "który": {}, "która": {}, "które": {}, "żeby": {},
	"jeśli": {}, "może": {}, "tylko": {}, "także": {}, "więc": {},
	// English
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "have": {},
	"will": {}, "would": {}, "there": {}, "about": {}, "from": {}, "what": {},
	"their": {}, "they": {}, "been": {}, "were": {}, "which": {},
}

// prominentKeywords extracts the most frequent non-stopword terms from the
// selected transcripts, title-cased for the configured language.
func prominentKeywords(clips []segment.Segment, lang string) []string {
	counts := make(map[string]int)
	for _, clip := range clips {
		for _, word := range strings.Fields(strings.ToLower(clip.Text)) {
			word = strings.Trim(word, ".,!?;:\"'()[]«»")
			if len([]rune(word)) < 4 {
				continue
			}
			if _, skip := titleStopwords[word]; skip {
				continue
			}
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > titleKeywordCount {
		words = words[:titleKeywordCount]
	}

	caser := cases.Title(titleLanguage(lang))
	for i, word := range words {
		words[i] = caser.String(word)
	}
	return words
}

func titleLanguage(lang string) language.Tag {
	if strings.EqualFold(strings.TrimSpace(lang), "pl") {
		return language.Polish
	}
	return language.English
}

// buildTitle renders the language-specific title template, appending a part
// suffix when the compilation is split.
func buildTitle(lang string, keywords []string, partNumber, totalParts int) string {
	polish := strings.EqualFold(strings.TrimSpace(lang), "pl")

	var title string
	switch {
	case polish && len(keywords) > 0:
		title = fmt.Sprintf("Najciekawsze momenty: %s", strings.Join(keywords, ", "))
	case polish:
		title = "Najciekawsze momenty posiedzenia"
	case len(keywords) > 0:
		title = fmt.Sprintf("Session highlights: %s", strings.Join(keywords, ", "))
	default:
		title = "Session highlights"
	}

	if totalParts > 1 {
		if polish {
			title = fmt.Sprintf("%s (część %d/%d)", title, partNumber, totalParts)
		} else {
			title = fmt.Sprintf("%s (part %d/%d)", title, partNumber, totalParts)
		}
	}
	return title
}
