package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peerprep/interview/internal/models"
)

func TestNormalizeQuestion(t *testing.T) {
	t.Run("full reply", func(t *testing.T) {
		q := normalizeQuestion(map[string]any{
			"questionText":   "Explain Raft.",
			"questionType":   "technical",
			"expectedTopics": []any{"consensus", "leader election", 3},
			"timeAllowed":    float64(300),
			"hints":          "think about terms",
		}, models.DifficultyHard)

		assert.Equal(t, "Explain Raft.", q.Text)
		assert.Equal(t, models.QuestionTechnical, q.Type)
		assert.Equal(t, models.DifficultyHard, q.Difficulty)
		assert.Equal(t, []string{"consensus", "leader election"}, q.ExpectedTopics)
		assert.Equal(t, 300, q.TimeAllowed)
		assert.Equal(t, []string{"think about terms"}, q.Hints)
	})

	t.Run("text reply and invalid type", func(t *testing.T) {
		q := normalizeQuestion(ParseAIResponse("What is a mutex?"), models.DifficultyEasy)
		assert.Equal(t, "What is a mutex?", q.Text)
		assert.Equal(t, models.QuestionOpenEnded, q.Type)
		assert.Equal(t, models.DefaultTimeAllowed, q.TimeAllowed)
		assert.NotNil(t, q.ExpectedTopics)
	})

	t.Run("nothing usable", func(t *testing.T) {
		q := normalizeQuestion(map[string]any{"questionType": "riddle"}, models.DifficultyMedium)
		assert.Equal(t, models.DefaultQuestionText, q.Text)
		assert.Equal(t, models.QuestionOpenEnded, q.Type)
	})
}

func TestNormalizeEvaluation(t *testing.T) {
	t.Run("nested scores", func(t *testing.T) {
		eval := normalizeEvaluation(map[string]any{
			"scores": map[string]any{
				"correctness":   map[string]any{"score": float64(80), "feedback": "mostly right"},
				"reasoning":     float64(70),
				"communication": "65%",
			},
			"overall":          float64(72.6),
			"strengths":        []any{"clear"},
			"keyTopicsMissed":  []any{"heaps"},
			"adjustDifficulty": "increase",
		})

		assert.Equal(t, 80, eval.Correctness.Score)
		assert.Equal(t, "mostly right", eval.Correctness.Feedback)
		assert.True(t, eval.Reasoning.Present)
		assert.Equal(t, 65, eval.Communication.Score)
		assert.False(t, eval.Structure.Present)
		require.NotNil(t, eval.Overall)
		assert.Equal(t, 73, *eval.Overall)
		assert.Equal(t, []string{"clear"}, eval.Strengths)
		assert.Equal(t, []string{"heaps"}, eval.TopicsMissed)
		assert.Equal(t, "increase", eval.AdjustDifficulty)
	})

	t.Run("overall in any stated shape wins over the mean", func(t *testing.T) {
		dims := func() map[string]any {
			return map[string]any{
				"correctness":   float64(60),
				"reasoning":     float64(60),
				"communication": float64(60),
				"structure":     float64(60),
				"confidence":    float64(60),
			}
		}
		withScores := func(overall any) map[string]any {
			scores := dims()
			scores["overall"] = overall
			return map[string]any{"scores": scores}
		}
		topLevel := map[string]any{"scores": dims(), "overall": map[string]any{"score": float64(95)}}

		cases := map[string]map[string]any{
			"scores.overall object": withScores(map[string]any{"score": float64(95)}),
			"scores.overall number": withScores(float64(95)),
			"overall object":        topLevel,
		}
		for name, in := range cases {
			eval := normalizeEvaluation(in)
			require.NotNil(t, eval.Overall, name)
			assert.Equal(t, 95, *eval.Overall, name)
		}
	})

	t.Run("top level overall is preferred", func(t *testing.T) {
		eval := normalizeEvaluation(map[string]any{
			"scores":  map[string]any{"overall": float64(40)},
			"overall": float64(88),
		})
		require.NotNil(t, eval.Overall)
		assert.Equal(t, 88, *eval.Overall)
	})

	t.Run("top level scores without overall", func(t *testing.T) {
		eval := normalizeEvaluation(map[string]any{"correctness": float64(50)})
		assert.Equal(t, 50, eval.Correctness.Score)
		assert.Nil(t, eval.Overall)
		assert.Equal(t, "maintain", eval.AdjustDifficulty)
		assert.NotNil(t, eval.Weaknesses)
	})
}

func TestNormalizeSummary(t *testing.T) {
	in := models.SummaryInput{OverallScores: models.ScoreRecord{Overall: 75}}

	summary := normalizeSummary(map[string]any{
		"overallAssessment": "Solid.",
		"readinessScore":    float64(140),
		"detailedFeedback":  map[string]any{"technicalSkills": "good"},
		"improvementPlan": map[string]any{
			"focusAreas":          []any{"graphs"},
			"recommendedPractice": []any{map[string]any{"topic": "BFS", "priority": "high"}},
		},
	}, in)

	assert.Equal(t, "Solid.", summary.OverallAssessment)
	assert.Equal(t, "good", summary.PerformanceLevel)
	assert.Equal(t, 100, summary.ReadinessScore)
	assert.Equal(t, "good", summary.DetailedFeedback.TechnicalSkills)
	assert.Equal(t, []string{"graphs"}, summary.ImprovementPlan.FocusAreas)
	require.Len(t, summary.ImprovementPlan.RecommendedPractice, 1)
	assert.Equal(t, "BFS", summary.ImprovementPlan.RecommendedPractice[0].Topic)
	assert.NotEmpty(t, summary.ImprovementPlan.Summary)
	assert.NotNil(t, summary.ImprovementPlan.Resources)
	assert.NotEmpty(t, summary.RecommendedNextSteps)
}

func TestNormalizeDailyQuestions(t *testing.T) {
	options := []any{
		map[string]any{"id": "a", "text": "one"},
		map[string]any{"id": "B", "text": "two"},
		map[string]any{"id": "C", "text": "three"},
		map[string]any{"id": "D", "text": "four"},
	}
	parsed := map[string]any{"questions": []any{
		map[string]any{"questionText": "Pick A", "options": options, "correctAnswer": "a", "explanation": "because", "difficulty": "easy"},
		map[string]any{"questionText": "Bad answer", "options": options, "correctAnswer": "E"},
		map[string]any{"questionText": "Too few", "options": options[:2], "correctAnswer": "A"},
		"not an object",
		map[string]any{"question": "Alt key", "options": options, "correctAnswer": "D", "difficulty": "absurd"},
	}}

	got := normalizeDailyQuestions(parsed)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].CorrectAnswer)
	assert.Equal(t, "A", got[0].Options[0].ID)
	assert.Equal(t, models.DifficultyEasy, got[0].Difficulty)
	assert.Equal(t, "Alt key", got[1].Text)
	assert.Equal(t, models.DifficultyMedium, got[1].Difficulty)

	arr := normalizeDailyQuestions(ParseAIResponse(`[{"questionText":"Q","options":[{"id":"A","text":"1"},{"id":"B","text":"2"},{"id":"C","text":"3"},{"id":"D","text":"4"}],"correctAnswer":"B"}]`))
	assert.Len(t, arr, 1)
}

func TestFallbacks(t *testing.T) {
	t.Run("question comes from the type table", func(t *testing.T) {
		for interviewType, table := range fallbackQuestions {
			texts := make(map[string]bool, len(table))
			for _, q := range table {
				texts[q.text] = true
			}
			for i := 0; i < 20; i++ {
				q := pickFallbackQuestion(models.InterviewContext{InterviewType: interviewType, Difficulty: models.DifficultyHard})
				assert.True(t, texts[q.Text], "unexpected %s fallback %q", interviewType, q.Text)
				assert.Equal(t, models.DifficultyHard, q.Difficulty)
				assert.Equal(t, models.DefaultTimeAllowed, q.TimeAllowed)
			}
		}
	})

	t.Run("question table sizes", func(t *testing.T) {
		assert.Len(t, fallbackQuestions[models.TypeTechnical], 5)
		assert.Len(t, fallbackQuestions[models.TypeBehavioral], 4)
		assert.Len(t, fallbackQuestions[models.TypeHR], 4)
		assert.Len(t, fallbackQuestions[models.TypeSystemDesign], 4)
	})

	t.Run("unknown type uses technical", func(t *testing.T) {
		q := pickFallbackQuestion(models.InterviewContext{InterviewType: "trivia"})
		assert.Equal(t, models.DifficultyMedium, q.Difficulty)
		found := false
		for _, fq := range fallbackQuestions[models.TypeTechnical] {
			found = found || fq.text == q.Text
		}
		assert.True(t, found)
	})

	t.Run("neutral evaluation", func(t *testing.T) {
		eval := fallbackEvaluation()
		require.NotNil(t, eval.Overall)
		assert.Equal(t, 70, *eval.Overall)
		for _, d := range []models.DimensionScore{eval.Correctness, eval.Reasoning, eval.Communication, eval.Structure, eval.Confidence} {
			assert.Equal(t, 70, d.Score)
		}
		assert.Equal(t, "maintain", eval.AdjustDifficulty)
	})

	t.Run("score only summary", func(t *testing.T) {
		assert.Equal(t, "average", fallbackSummary(models.SummaryInput{OverallScores: models.ScoreRecord{Overall: 69}}).PerformanceLevel)
		s := fallbackSummary(models.SummaryInput{OverallScores: models.ScoreRecord{Overall: 70}})
		assert.Equal(t, "good", s.PerformanceLevel)
		assert.Equal(t, 70, s.ReadinessScore)
	})
}
