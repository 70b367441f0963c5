package gateway

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"peerprep/interview/internal/models"
)

// normalizeQuestion converts a parsed reply into a question record asked at the given difficulty.
func normalizeQuestion(parsed map[string]any, difficulty models.Difficulty) models.QuestionRecord {
	text := firstString(parsed, "questionText", "content", "question")
	if text == "" {
		text = models.DefaultQuestionText
	}

	qType := models.QuestionType(firstString(parsed, "questionType", "type"))
	if !models.ValidQuestionTypes[qType] {
		qType = models.QuestionOpenEnded
	}

	timeAllowed := models.DefaultTimeAllowed
	if v, ok := number(parsed["timeAllowed"]); ok && v > 0 {
		timeAllowed = int(v)
	}

	return models.QuestionRecord{
		Text:           text,
		Type:           qType,
		Difficulty:     difficulty,
		ExpectedTopics: stringList(parsed["expectedTopics"]),
		TimeAllowed:    timeAllowed,
		Hints:          stringList(parsed["hints"]),
	}
}

// normalizeEvaluation accepts scores either nested under "scores" or at the top level,
// each as {score, feedback} or a bare number.
func normalizeEvaluation(parsed map[string]any) models.EvaluationRecord {
	scores, _ := parsed["scores"].(map[string]any)
	if scores == nil {
		scores = parsed
	}

	eval := models.EvaluationRecord{
		Correctness:      dimension(scores["correctness"]),
		Reasoning:        dimension(scores["reasoning"]),
		Communication:    dimension(scores["communication"]),
		Structure:        dimension(scores["structure"]),
		Confidence:       dimension(scores["confidence"]),
		Strengths:        stringList(parsed["strengths"]),
		Weaknesses:       stringList(parsed["weaknesses"]),
		Suggestions:      stringList(parsed["suggestions"]),
		TopicsCovered:    stringList(parsed["keyTopicsCovered"]),
		TopicsMissed:     stringList(parsed["keyTopicsMissed"]),
		FollowUpQuestion: firstString(parsed, "followUpQuestion"),
		AdjustDifficulty: firstString(parsed, "adjustDifficulty"),
	}

	for _, v := range []any{parsed["overall"], scores["overall"]} {
		if d := dimension(v); d.Present {
			overall := d.Score
			eval.Overall = &overall
			break
		}
	}
	if eval.AdjustDifficulty == "" {
		eval.AdjustDifficulty = "maintain"
	}
	return eval
}

// normalizeSummary fills any field the model left out from the score-only fallback.
func normalizeSummary(parsed map[string]any, in models.SummaryInput) models.SummaryRecord {
	fb := fallbackSummary(in)

	summary := models.SummaryRecord{
		OverallAssessment:    firstString(parsed, "overallAssessment"),
		PerformanceLevel:     firstString(parsed, "performanceLevel"),
		StrengthAreas:        stringList(parsed["strengthAreas"]),
		WeaknessAreas:        stringList(parsed["weaknessAreas"]),
		RecommendedNextSteps: stringList(parsed["recommendedNextSteps"]),
		ReadinessScore:       fb.ReadinessScore,
	}
	if v, ok := number(parsed["readinessScore"]); ok {
		summary.ReadinessScore = clamp(int(math.Round(v)))
	}

	if detail, ok := parsed["detailedFeedback"].(map[string]any); ok {
		summary.DetailedFeedback = models.DetailedFeedback{
			TechnicalSkills: firstString(detail, "technicalSkills"),
			ProblemSolving:  firstString(detail, "problemSolving"),
			Communication:   firstString(detail, "communication"),
			Confidence:      firstString(detail, "confidence"),
		}
	}

	summary.ImprovementPlan = fb.ImprovementPlan
	if plan, ok := parsed["improvementPlan"].(map[string]any); ok {
		decodeInto(plan, &summary.ImprovementPlan)
		if summary.ImprovementPlan.Summary == "" {
			summary.ImprovementPlan.Summary = fb.ImprovementPlan.Summary
		}
	}
	if summary.ImprovementPlan.RecommendedPractice == nil {
		summary.ImprovementPlan.RecommendedPractice = []models.PracticeItem{}
	}
	if summary.ImprovementPlan.Resources == nil {
		summary.ImprovementPlan.Resources = []models.Resource{}
	}

	if summary.OverallAssessment == "" {
		summary.OverallAssessment = fb.OverallAssessment
	}
	if summary.PerformanceLevel == "" {
		summary.PerformanceLevel = fb.PerformanceLevel
	}
	if len(summary.StrengthAreas) == 0 {
		summary.StrengthAreas = fb.StrengthAreas
	}
	if len(summary.WeaknessAreas) == 0 {
		summary.WeaknessAreas = fb.WeaknessAreas
	}
	if len(summary.RecommendedNextSteps) == 0 {
		summary.RecommendedNextSteps = fb.RecommendedNextSteps
	}
	return summary
}

// normalizeDailyQuestions keeps only well-formed multiple-choice questions.
func normalizeDailyQuestions(parsed map[string]any) []models.DailyQuestion {
	raw, ok := parsed["questions"].([]any)
	if !ok {
		raw, _ = parsed["items"].([]any)
	}

	out := make([]models.DailyQuestion, 0, len(raw))
	for _, item := range raw {
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		dq := models.DailyQuestion{
			Text:          firstString(q, "questionText", "question"),
			CorrectAnswer: strings.ToUpper(firstString(q, "correctAnswer")),
			Explanation:   firstString(q, "explanation"),
			Difficulty:    models.Difficulty(firstString(q, "difficulty")),
		}
		if !models.ValidDifficulties[dq.Difficulty] {
			dq.Difficulty = models.DifficultyMedium
		}
		if opts, ok := q["options"].([]any); ok {
			for _, o := range opts {
				opt, ok := o.(map[string]any)
				if !ok {
					continue
				}
				dq.Options = append(dq.Options, models.QuestionOption{
					ID:   strings.ToUpper(firstString(opt, "id")),
					Text: firstString(opt, "text"),
				})
			}
		}
		if dq.Text == "" || len(dq.Options) != 4 || !hasOption(dq.Options, dq.CorrectAnswer) {
			continue
		}
		out = append(out, dq)
	}
	return out
}

func hasOption(options []models.QuestionOption, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func dimension(v any) models.DimensionScore {
	switch s := v.(type) {
	case map[string]any:
		score, ok := number(s["score"])
		feedback, _ := s["feedback"].(string)
		return models.DimensionScore{Score: int(math.Round(score)), Feedback: feedback, Present: ok}
	default:
		if score, ok := number(v); ok {
			return models.DimensionScore{Score: int(math.Round(score)), Present: true}
		}
	}
	return models.DimensionScore{}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func stringList(v any) []string {
	out := []string{}
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if strings.TrimSpace(items) != "" {
			out = append(out, strings.TrimSpace(items))
		}
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		return f, err == nil
	}
	return 0, false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// decodeInto re-marshals a loosely typed map into a struct. Fields with mismatched types are skipped.
func decodeInto(src map[string]any, dst any) {
	raw, err := json.Marshal(src)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, dst)
}
