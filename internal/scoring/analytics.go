package scoring

import (
	"fmt"
	"sort"
	"strings"

	"peerprep/interview/internal/models"
)

const (
	trendMargin    = 5
	topRecurring   = 5
	recentWindow   = 3
	feedbackPrefix = 100
)

// AggregateSessionAnalytics computes the final overall scores and analytics over every scored response.
func AggregateSessionAnalytics(session *models.InterviewSession) (models.ScoreRecord, models.SessionAnalytics) {
	scored := make([]models.ResponseRecord, 0, len(session.Responses))
	for _, r := range session.Responses {
		if r.Scores != nil {
			scored = append(scored, r)
		}
	}

	analytics := models.SessionAnalytics{
		PerformanceTrend:      models.TrendStable,
		Strengths:             []string{},
		Weaknesses:            []string{},
		TopicsCovered:         []string{},
		TopicsMissed:          []string{},
		DifficultyProgression: []models.DifficultyPoint{},
	}
	if len(scored) == 0 {
		return models.ScoreRecord{}, analytics
	}

	var totals [6]int
	overalls := make([]int, 0, len(scored))
	for _, r := range scored {
		s := r.Scores
		totals[0] += s.Correctness
		totals[1] += s.Reasoning
		totals[2] += s.Communication
		totals[3] += s.Structure
		totals[4] += s.Confidence
		totals[5] += s.Overall
		overalls = append(overalls, s.Overall)
	}
	n := float64(len(scored))
	overall := models.ScoreRecord{
		Correctness:   roundHalfUp(float64(totals[0]) / n),
		Reasoning:     roundHalfUp(float64(totals[1]) / n),
		Communication: roundHalfUp(float64(totals[2]) / n),
		Structure:     roundHalfUp(float64(totals[3]) / n),
		Confidence:    roundHalfUp(float64(totals[4]) / n),
		Overall:       roundHalfUp(float64(totals[5]) / n),
	}

	analytics.PerformanceTrend = Trend(overalls)

	strengths := newCounter()
	weaknesses := newCounter()
	covered := newCounter()
	missed := newCounter()
	durationTotal, durationCount := 0, 0
	voice := &models.VoiceSummary{}

	for _, r := range scored {
		if r.AIAnalysis != nil {
			strengths.add(r.AIAnalysis.Strengths...)
			weaknesses.add(r.AIAnalysis.Weaknesses...)
			covered.add(r.AIAnalysis.TopicsCovered...)
			missed.add(r.AIAnalysis.TopicsMissed...)
		}
		analytics.DifficultyProgression = append(analytics.DifficultyProgression, models.DifficultyPoint{
			QuestionIndex: r.QuestionIndex,
			Difficulty:    r.Question.Difficulty,
			Score:         r.Scores.Overall,
		})
		if r.Answer != nil && r.Answer.DurationSec > 0 {
			durationTotal += r.Answer.DurationSec
			durationCount++
		}
		if r.VoiceAnalysis != nil {
			voice.SamplesAnalyzed++
			voice.AverageConfidence += r.VoiceAnalysis.Confidence
			voice.AverageClarity += r.VoiceAnalysis.ClarityScore
			for _, fw := range r.VoiceAnalysis.FillerWords {
				voice.TotalFillerWords += fw.Count
			}
		}
	}

	analytics.Strengths = strengths.top(topRecurring)
	analytics.Weaknesses = weaknesses.top(topRecurring)
	analytics.TopicsCovered = covered.keys()
	analytics.TopicsMissed = missed.keys()
	if durationCount > 0 {
		analytics.AverageResponseSeconds = float64(durationTotal) / float64(durationCount)
	}
	if voice.SamplesAnalyzed > 0 {
		voice.AverageConfidence /= float64(voice.SamplesAnalyzed)
		voice.AverageClarity /= float64(voice.SamplesAnalyzed)
		analytics.Voice = voice
	}
	return overall, analytics
}

// Trend compares the mean of the second half of the scores against the first half.
func Trend(overalls []int) models.PerformanceTrend {
	if len(overalls) < 2 {
		return models.TrendStable
	}
	half := len(overalls) / 2
	diff := mean(overalls[half:]) - mean(overalls[:half])
	switch {
	case diff > trendMargin:
		return models.TrendImproving
	case diff < -trendMargin:
		return models.TrendDeclining
	}
	return models.TrendStable
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// ExtractTopics lists the distinct topics already covered, for question prompts.
func ExtractTopics(responses []models.ResponseRecord) string {
	topics := newCounter()
	for _, r := range responses {
		if r.AIAnalysis != nil {
			topics.add(r.AIAnalysis.TopicsCovered...)
		}
	}
	if len(topics.order) == 0 {
		return "None yet"
	}
	return strings.Join(topics.keys(), ", ")
}

// SummarizeRecent renders the last three responses as one line each.
func SummarizeRecent(responses []models.ResponseRecord) string {
	if len(responses) > recentWindow {
		responses = responses[len(responses)-recentWindow:]
	}
	lines := make([]string, 0, len(responses))
	for i, r := range responses {
		score := 0
		if r.Scores != nil {
			score = r.Scores.Overall
		}
		feedback := "No feedback"
		if r.AIAnalysis != nil && r.AIAnalysis.Feedback != "" {
			feedback = r.AIAnalysis.Feedback
			if runes := []rune(feedback); len(runes) > feedbackPrefix {
				feedback = string(runes[:feedbackPrefix])
			}
		}
		lines = append(lines, fmt.Sprintf("Q%d: Score %d%% - %s", i+1, score, feedback))
	}
	return strings.Join(lines, "\n")
}

// counter tallies strings keeping first-seen order for ties.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(items ...string) {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, seen := c.counts[item]; !seen {
			c.order = append(c.order, item)
		}
		c.counts[item]++
	}
}

func (c *counter) keys() []string {
	return append([]string{}, c.order...)
}

func (c *counter) top(n int) []string {
	out := c.keys()
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
