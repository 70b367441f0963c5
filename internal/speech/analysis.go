package speech

import (
	"math"
	"strings"
	"unicode"

	"peerprep/interview/internal/models"
)

const (
	pauseThreshold    = 1.0 // seconds of silence counted as a hesitation
	fillerPenalty     = 2.0
	hesitationPenalty = 3.0
)

// filler phrases in reporting order; multi-word phrases are matched on word boundaries
var fillerPhrases = []string{"um", "uh", "er", "ah", "hmm", "like", "you know", "i mean", "basically", "actually", "literally", "sort of", "kind of"}

// vocal hesitations also count towards hesitationCount
var hesitationSounds = map[string]bool{"um": true, "uh": true, "er": true, "ah": true, "hmm": true}

// Analyze derives delivery metrics from a transcript.
func Analyze(t *Transcript) models.VoiceAnalysis {
	if t == nil {
		return models.VoiceAnalysis{FillerWords: []models.FillerWord{}}
	}

	tokens := tokenize(t.Text)
	fillers := countFillers(tokens)

	hesitations := 0
	for _, tok := range tokens {
		if hesitationSounds[tok] {
			hesitations++
		}
	}
	for i := 1; i < len(t.Words); i++ {
		if t.Words[i].Start-t.Words[i-1].End >= pauseThreshold {
			hesitations++
		}
	}

	fillerTotal := 0
	for _, f := range fillers {
		fillerTotal += f.Count
	}

	confidence := round1(clampPercent(t.Confidence * 100))
	clarity := clampPercent(confidence - fillerPenalty*float64(fillerTotal) - hesitationPenalty*float64(hesitations))

	return models.VoiceAnalysis{
		Transcription:   strings.TrimSpace(t.Text),
		Confidence:      confidence,
		ClarityScore:    round1(clarity),
		HesitationCount: hesitations,
		FillerWords:     fillers,
		WordsPerMinute:  round1(wordsPerMinute(t, len(tokens))),
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func countFillers(tokens []string) []models.FillerWord {
	out := []models.FillerWord{}
	for _, phrase := range fillerPhrases {
		parts := strings.Fields(phrase)
		count := 0
		for i := 0; i+len(parts) <= len(tokens); i++ {
			match := true
			for j, p := range parts {
				if tokens[i+j] != p {
					match = false
					break
				}
			}
			if match {
				count++
			}
		}
		if count > 0 {
			out = append(out, models.FillerWord{Word: phrase, Count: count})
		}
	}
	return out
}

// wordsPerMinute uses word offsets when present; without them the rate is unknown.
func wordsPerMinute(t *Transcript, wordCount int) float64 {
	if len(t.Words) == 0 || wordCount == 0 {
		return 0
	}
	span := t.Words[len(t.Words)-1].End - t.Words[0].Start
	if span <= 0 {
		return 0
	}
	return float64(wordCount) / (span / 60)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
