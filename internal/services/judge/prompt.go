package judge

import (
	"fmt"
	"strings"
)

// scoringPromptEN and scoringPromptPL capture the instructions sent to the
// judge when scoring a batch of transcript excerpts. Keep updates centralized
// here so it is easy to tweak without hunting through call sites.
const scoringPromptEN = `You are an editor picking highlights from a recorded parliamentary session.

You will receive a numbered list of transcript excerpts. For each excerpt,
rate how interesting it would be to a general audience watching a highlight
compilation: heated exchanges, sharp arguments, memorable statements, and
consequential announcements score high; procedural formalities, roll calls,
and routine readings score low.

You must respond ONLY with a JSON object like: {"scores": [0.85, 0.1, 0.4]}
with exactly one number in [0,1] per excerpt, in the same order as the input.`

const scoringPromptPL = `Jesteś montażystą wybierającym najciekawsze momenty z nagrania posiedzenia Sejmu.

Otrzymasz ponumerowaną listę fragmentów transkrypcji. Dla każdego fragmentu
oceń, jak interesujący byłby dla widza oglądającego skrót obrad: ostre
wymiany zdań, mocne argumenty, zapadające w pamięć wypowiedzi i ważne
ogłoszenia oceniaj wysoko; formalności proceduralne, odczytywanie list i
rutynowe komunikaty oceniaj nisko.

Odpowiedz WYŁĄCZNIE obiektem JSON w formacie: {"scores": [0.85, 0.1, 0.4]}
z dokładnie jedną liczbą z przedziału [0,1] na fragment, w kolejności wejścia.`

func systemPrompt(language string) string {
	if strings.EqualFold(strings.TrimSpace(language), "pl") {
		return scoringPromptPL
	}
	return scoringPromptEN
}

// excerptLimit bounds how much of a transcript is sent per segment so long
// batches stay inside the model context window.
const excerptLimit = 600

func buildUserPrompt(texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if runes := []rune(trimmed); len(runes) > excerptLimit {
			trimmed = string(runes[:excerptLimit]) + "..."
		}
		if trimmed == "" {
			trimmed = "(no speech)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, trimmed)
	}
	return strings.TrimSpace(b.String())
}
