package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/scoring"
)

const (
	opQuestion = "question"
	opEvaluate = "evaluate"
	opFollowUp = "follow_up"
	opSummary  = "summary"
	opDaily    = "daily"

	outcomeOK       = "ok"
	outcomeFallback = "fallback"

	modelAcknowledgement = "I understand my role as an AI interviewer. I am ready to conduct the interview based on the specified parameters. I will adapt my questions based on the candidate's responses and provide constructive feedback."

	defaultTemperature float32 = 0.7
)

var temperatures = map[models.Personality]float32{
	models.PersonalityStrict:       0.5,
	models.PersonalityFriendly:     0.8,
	models.PersonalityProfessional: 0.7,
}

var manners = map[models.Personality]string{
	models.PersonalityStrict:       "rigorous and challenging",
	models.PersonalityFriendly:     "supportive and encouraging",
	models.PersonalityProfessional: "professional and balanced",
}

// ErrProviderUnavailable is returned by calls that cannot fall back when no provider is configured.
var ErrProviderUnavailable = errors.New("ai provider not configured")

// Gateway wraps the model provider with prompt rendering, chat history, parsing and fallbacks.
// Interview operations never return errors: failures degrade to fixed fallbacks.
type Gateway struct {
	provider llm.Provider
	prompts  prompts.PromptProvider
	store    ChatStore
	logger   *zap.Logger
	timeout  time.Duration
}

func New(provider llm.Provider, pm prompts.PromptProvider, store ChatStore, logger *zap.Logger, timeout time.Duration) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		provider: provider,
		prompts:  pm,
		store:    store,
		logger:   logger,
		timeout:  timeout,
	}
}

// TemperatureFor maps the interviewer personality to a sampling temperature.
func TemperatureFor(p models.Personality) float32 {
	if t, ok := temperatures[p]; ok {
		return t
	}
	return defaultTemperature
}

// BuildContext renders the system prompt for a session configuration.
func (g *Gateway) BuildContext(ic models.InterviewContext) (string, error) {
	personality := ic.Personality
	if _, ok := temperatures[personality]; !ok {
		personality = models.PersonalityProfessional
	}
	interviewType := ic.InterviewType
	if !models.ValidInterviewTypes[interviewType] {
		interviewType = models.TypeTechnical
	}

	persona, err := g.prompts.BuildPrompt(prompts.Persona, string(personality), nil)
	if err != nil {
		return "", err
	}

	return g.prompts.BuildPrompt(prompts.System, string(interviewType), prompts.SystemData{
		Persona:       persona + "\n",
		Manner:        manners[personality],
		InterviewType: string(interviewType),
		Difficulty:    string(ic.Difficulty),
		TargetCompany: ic.TargetCompany,
		TargetRole:    ic.TargetRole,
	})
}

// GenerateQuestion asks for the next question in the session's conversation.
func (g *Gateway) GenerateQuestion(ctx context.Context, sessionID string, ic models.InterviewContext, prior []models.ResponseRecord) models.QuestionRecord {
	variant := "opening"
	if len(prior) > 0 {
		variant = "continuing"
	}

	prompt, err := g.prompts.BuildPrompt(prompts.Question, variant, prompts.QuestionData{
		QuestionsAsked: len(prior),
		Difficulty:     string(ic.Difficulty),
		InterviewType:  string(ic.InterviewType),
		TopicsCovered:  scoring.ExtractTopics(prior),
		RecentSummary:  scoring.SummarizeRecent(prior),
	})
	if err == nil {
		var text string
		text, err = g.converse(ctx, opQuestion, sessionID, &ic, prompt, TemperatureFor(ic.Personality))
		if err == nil {
			parsed := ParseAIResponse(text)
			return normalizeQuestion(parsed, ic.Difficulty)
		}
	}

	g.logger.Warn("Question generation failed, using fallback question",
		zap.String("session_id", sessionID), zap.Error(err))
	return pickFallbackQuestion(ic)
}

// EvaluateAnswer scores an answer, using the session conversation when one exists.
func (g *Gateway) EvaluateAnswer(ctx context.Context, sessionID string, question models.QuestionRecord, answer string, voice *models.VoiceAnalysis) models.EvaluationRecord {
	data := prompts.EvaluationData{
		Question:       question.Text,
		Difficulty:     string(question.Difficulty),
		ExpectedTopics: question.ExpectedTopics,
		Answer:         answer,
	}
	variant := "text"
	if voice != nil {
		variant = "voice"
		data.Voice = voice
		data.FillerWords = formatFillerWords(voice.FillerWords)
	}

	prompt, err := g.prompts.BuildPrompt(prompts.Evaluation, variant, data)
	if err == nil {
		var text string
		text, err = g.converse(ctx, opEvaluate, sessionID, nil, prompt, defaultTemperature)
		if err == nil {
			parsed := ParseAIResponse(text)
			if !IsTextFallback(parsed) {
				return normalizeEvaluation(parsed)
			}
			err = errors.New("evaluation reply was not JSON")
		}
	}

	g.logger.Warn("Answer evaluation failed, using fallback evaluation",
		zap.String("session_id", sessionID), zap.Error(err))
	return fallbackEvaluation()
}

// GenerateFollowUp returns a probing question for the answer, or false when none could be produced.
func (g *Gateway) GenerateFollowUp(ctx context.Context, sessionID string, question models.QuestionRecord, answer string, eval models.EvaluationRecord) (*models.QuestionRecord, bool) {
	overall := 70
	if eval.Overall != nil {
		overall = *eval.Overall
	}

	prompt, err := g.prompts.BuildPrompt(prompts.FollowUp, "default", prompts.FollowUpData{
		Question:     question.Text,
		Answer:       answer,
		Overall:      overall,
		TopicsMissed: eval.TopicsMissed,
	})
	if err != nil {
		g.logger.Warn("Follow-up prompt failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}

	text, err := g.converse(ctx, opFollowUp, sessionID, nil, prompt, defaultTemperature)
	if err != nil {
		g.logger.Warn("Follow-up generation failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}

	parsed := ParseAIResponse(text)
	if firstString(parsed, "question", "questionText") == "" {
		return nil, false
	}
	q := normalizeQuestion(parsed, question.Difficulty)
	q.Type = models.QuestionFollowUp
	return &q, true
}

// GenerateSummary writes the end-of-session summary and always discards the chat history.
func (g *Gateway) GenerateSummary(ctx context.Context, sessionID string, in models.SummaryInput) models.SummaryRecord {
	defer g.ClearSession(context.WithoutCancel(ctx), sessionID)

	prompt, err := g.prompts.BuildPrompt(prompts.Summary, "default", summaryData(in))
	if err == nil {
		var text string
		text, err = g.converse(ctx, opSummary, sessionID, nil, prompt, defaultTemperature)
		if err == nil {
			parsed := ParseAIResponse(text)
			if !IsTextFallback(parsed) {
				return normalizeSummary(parsed, in)
			}
			err = errors.New("summary reply was not JSON")
		}
	}

	g.logger.Warn("Summary generation failed, using score-only summary",
		zap.String("session_id", sessionID), zap.Error(err))
	return fallbackSummary(in)
}

// GenerateDailyQuestions makes a one-shot batch request for a practice category.
// Unlike interview calls this returns an error so the caller can retry later.
func (g *Gateway) GenerateDailyQuestions(ctx context.Context, category string, count int) ([]models.DailyQuestion, error) {
	prompt, err := g.prompts.BuildPrompt(prompts.Daily, category, prompts.DailyData{Count: count})
	if err != nil {
		return nil, err
	}

	text, err := g.call(ctx, opDaily, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, defaultTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate %s questions: %w", category, err)
	}

	questions := normalizeDailyQuestions(ParseAIResponse(text))
	if len(questions) == 0 {
		return nil, fmt.Errorf("generate %s questions: invalid question format received from AI", category)
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

// ClearSession drops one session's chat history.
func (g *Gateway) ClearSession(ctx context.Context, sessionID string) {
	if err := g.store.Delete(ctx, sessionID); err != nil {
		g.logger.Warn("Failed to clear chat history", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// ClearAll drops every chat history.
func (g *Gateway) ClearAll(ctx context.Context) error {
	return g.store.Clear(ctx)
}

// SweepIdle evicts histories that have been idle past the store TTL.
func (g *Gateway) SweepIdle(ctx context.Context) (int, error) {
	return g.store.Sweep(ctx)
}

// converse sends prompt within the session's conversation. A missing history is seeded with
// the system prompt when ic is given; otherwise the prompt is sent on its own.
func (g *Gateway) converse(ctx context.Context, op, sessionID string, ic *models.InterviewContext, prompt string, temperature float32) (string, error) {
	history, exists, err := g.store.Get(ctx, sessionID)
	if err != nil {
		g.logger.Warn("Chat history unavailable, sending prompt without context",
			zap.String("session_id", sessionID), zap.Error(err))
		history, exists = nil, false
	}

	var seed []llm.Message
	if !exists && ic != nil {
		system, err := g.BuildContext(*ic)
		if err != nil {
			return "", err
		}
		seed = []llm.Message{
			{Role: llm.RoleUser, Content: system},
			{Role: llm.RoleModel, Content: modelAcknowledgement},
		}
		history = seed
	}

	userTurn := llm.Message{Role: llm.RoleUser, Content: prompt}
	messages := append(append([]llm.Message(nil), history...), userTurn)

	text, err := g.call(ctx, op, messages, temperature)
	if err != nil {
		return "", err
	}

	if exists || ic != nil {
		turns := append(seed, userTurn, llm.Message{Role: llm.RoleModel, Content: text})
		if err := g.store.Append(ctx, sessionID, turns...); err != nil {
			g.logger.Warn("Failed to record chat turn", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return text, nil
}

func (g *Gateway) call(ctx context.Context, op string, messages []llm.Message, temperature float32) (string, error) {
	if g.provider == nil {
		return "", ErrProviderUnavailable
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.GenerateContent(ctx, &llm.GenerationRequest{
		Messages:     messages,
		Temperature:  temperature,
		RequestID:    uuid.NewString(),
		JSONResponse: true,
	})
	if err != nil {
		metrics.ObserveAIRequest(op, outcomeFallback, time.Since(start))
		return "", err
	}
	metrics.ObserveAIRequest(op, outcomeOK, time.Since(start))
	return resp.Content, nil
}

func formatFillerWords(words []models.FillerWord) string {
	if len(words) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, fmt.Sprintf("%s(%d)", w.Word, w.Count))
	}
	return strings.Join(parts, ", ")
}

func summaryData(in models.SummaryInput) prompts.SummaryData {
	responses := make([]prompts.SummaryResponse, 0, len(in.Responses))
	for _, r := range in.Responses {
		entry := prompts.SummaryResponse{Question: truncate(r.Question.Text, 100), Strengths: "N/A"}
		if r.Scores != nil {
			entry.Score = r.Scores.Overall
		}
		if r.AIAnalysis != nil && len(r.AIAnalysis.Strengths) > 0 {
			entry.Strengths = strings.Join(r.AIAnalysis.Strengths, ", ")
		}
		responses = append(responses, entry)
	}
	return prompts.SummaryData{
		InterviewType:   string(in.InterviewType),
		TotalQuestions:  in.TotalQuestions,
		DurationMinutes: in.DurationMinutes,
		Scores:          in.OverallScores,
		Progression:     in.Progression,
		Responses:       responses,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
