package interview

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/events"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/scoring"
)

// SubmitAnswer scores the answer to the current question, then either asks the next question
// or completes the session. Nothing is persisted until every step has succeeded.
func (s *Service) SubmitAnswer(ctx context.Context, conn Conn, sessionID, answer string) error {
	// foreign users are rejected before any transient state is touched
	if _, err := s.load(ctx, conn.UserID(), sessionID); err != nil {
		return s.fail(conn, err, msgAnswerFailed)
	}

	state := s.transient.get(sessionID, s.now())
	if !state.begin() {
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgAnswerInFlight})
		return fmt.Errorf("%w: session %s", ErrInFlight, sessionID)
	}
	defer state.end(s.now())

	state.cmdMu.Lock()
	defer state.cmdMu.Unlock()

	voice := state.pendingVoice()
	defer state.clearPending()

	session, err := s.load(ctx, conn.UserID(), sessionID)
	if err != nil {
		return s.fail(conn, err, msgAnswerFailed)
	}
	if err := Check(CommandSubmitAnswer, session.Status); err != nil {
		return s.fail(conn, err, msgAnswerFailed)
	}
	index := session.CurrentQuestionIndex
	if index < 0 || index >= len(session.Responses) {
		return s.fail(conn, fmt.Errorf("%w: no pending question at index %d", ErrInvalidState, index), msgAnswerFailed)
	}
	current := &session.Responses[index]
	if current.Answered() {
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgAlreadyAnswered})
		return fmt.Errorf("%w: question %d already answered", ErrInvalidState, index)
	}

	conn.Emit(models.EventAnswerProcessing, models.AnswerProcessingPayload{Status: models.ProcessingEvaluating})

	eval := s.ai.EvaluateAnswer(ctx, sessionID, current.Question, answer, voice)
	scores := scoring.ScoreResponse(eval)
	now := s.now()

	current.Answer = &models.Answer{Text: answer, DurationSec: elapsedSeconds(current, now)}
	current.VoiceAnalysis = voice
	current.Scores = &scores
	current.AIAnalysis = eval.Analysis()
	current.CompletedAt = &now

	s.broadcast(sessionID, conn, models.EventAnswerEvaluated, models.AnswerEvaluatedPayload{
		Scores: scores,
		Feedback: models.FeedbackPayload{
			Strengths:   current.AIAnalysis.Strengths,
			Weaknesses:  current.AIAnalysis.Weaknesses,
			Suggestions: current.AIAnalysis.Suggestions,
		},
	})

	decision := scoring.DifficultyDecision(scoring.RecentScores(session.Responses), session.Difficulty.Current)
	if decision.Adjust {
		change := models.DifficultyChange{
			QuestionIndex: index,
			From:          session.Difficulty.Current,
			To:            decision.Apply(session.Difficulty.Current),
			Reason:        decision.Reason,
			At:            now,
		}
		session.Difficulty.Current = change.To
		session.DifficultyHistory = append(session.DifficultyHistory, change)
		s.broadcast(sessionID, conn, models.EventDifficultyAdjusted, models.DifficultyAdjustedPayload{
			NewDifficulty: change.To,
			Reason:        change.Reason,
		})
	}

	session.QuestionsAnswered++
	session.CurrentQuestionIndex++
	session.LastActivityAt = now

	if session.QuestionsAnswered >= session.TotalQuestions {
		return s.complete(ctx, conn, session)
	}

	conn.Emit(models.EventAnswerProcessing, models.AnswerProcessingPayload{Status: models.ProcessingGeneratingQuestion})

	next := s.nextQuestion(ctx, session)
	session.Responses = append(session.Responses, models.ResponseRecord{
		QuestionIndex: session.CurrentQuestionIndex,
		Question:      next,
		StartedAt:     now,
	})

	if err := s.sessions.Save(ctx, session); err != nil {
		return s.fail(conn, fmt.Errorf("save session: %w", err), msgAnswerFailed)
	}

	s.broadcast(sessionID, conn, models.EventNextQuestion, models.NextQuestionPayload{
		Index:          session.CurrentQuestionIndex,
		Question:       next.Text,
		Type:           next.Type,
		Difficulty:     next.Difficulty,
		ExpectedTopics: next.ExpectedTopics,
		Progress:       models.ProgressOf(session),
	})
	s.publish(ctx, events.Event{
		Type:      events.TypeAnswerEvaluated,
		SessionID: sessionID,
		UserID:    session.UserID,
		Data:      map[string]any{"questionIndex": index, "scores": scores},
	})
	return nil
}

func (s *Service) complete(ctx context.Context, conn Conn, session *models.InterviewSession) error {
	status, err := Next(CommandComplete, session.Status)
	if err != nil {
		return s.fail(conn, err, msgAnswerFailed)
	}
	now := session.LastActivityAt
	session.Status = status
	session.CompletedAt = &now

	overall, analytics := scoring.AggregateSessionAnalytics(session)
	session.OverallScores = &overall
	session.Analytics = &analytics

	summary := s.ai.GenerateSummary(ctx, session.SessionID, models.SummaryInput{
		InterviewType:   session.InterviewType,
		TotalQuestions:  session.TotalQuestions,
		DurationMinutes: int(math.Round(now.Sub(session.StartedAt).Minutes())),
		OverallScores:   overall,
		Progression:     analytics.DifficultyProgression,
		Responses:       session.Responses,
	})
	session.Summary = &summary

	if err := s.sessions.Save(ctx, session); err != nil {
		return s.fail(conn, fmt.Errorf("save session: %w", err), msgAnswerFailed)
	}

	s.broadcast(session.SessionID, conn, models.EventInterviewComplete, models.InterviewCompletePayload{
		SessionID:     session.SessionID,
		OverallScores: overall,
		Analytics:     &analytics,
		Summary:       &summary,
	})

	s.ai.ClearSession(ctx, session.SessionID)
	metrics.SessionFinished(string(models.StatusCompleted))
	s.publish(ctx, events.Event{
		Type:      events.TypeInterviewCompleted,
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Data: map[string]any{
			"overallScores":    overall,
			"performanceTrend": analytics.PerformanceTrend,
			"readinessScore":   summary.ReadinessScore,
		},
	})
	s.logger.Info("Interview completed",
		zap.String("session_id", session.SessionID),
		zap.Int("overall", overall.Overall),
		zap.String("trend", string(analytics.PerformanceTrend)))
	return nil
}

func elapsedSeconds(r *models.ResponseRecord, now time.Time) int {
	if r.StartedAt.IsZero() || now.Before(r.StartedAt) {
		return 0
	}
	return int(now.Sub(r.StartedAt).Seconds())
}
