package client

import (
	"encoding/json"

	"go.uber.org/zap"

	"peerprep/interview/internal/models"
)

// apply folds one server event into the state.
func (s *Store) apply(frame inboundFrame) error {
	switch frame.Event {
	case models.EventInterviewJoined:
		var p models.InterviewJoinedPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.resetSession()
			st.SessionID = p.SessionID
			st.Status = p.Status
			st.InterviewType = p.InterviewType
			st.Difficulty = p.Difficulty
			st.VoiceEnabled = p.VoiceEnabled
			st.CurrentQuestion = p.CurrentQuestion
			st.QuestionIndex = p.Progress.Current - 1
			st.TotalQuestions = p.Progress.Total
			st.IsActive = p.Status == models.StatusInProgress || p.Status == models.StatusPaused
			st.IsPaused = p.Status == models.StatusPaused
		})

	case models.EventAlreadyComplete:
		var p models.AlreadyCompletePayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.resetSession()
			st.SessionID = p.SessionID
			st.Status = p.Status
			st.Completed = true
			st.PriorResult = &p
		})

	case models.EventAudioReceived:
		var p models.AudioReceivedPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) { st.AudioChunks = p.ChunksReceived })

	case models.EventTranscriptionComplete:
		var p models.TranscriptionCompletePayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.VoiceAnalysis = &p
			st.CurrentAnswer = p.Transcription
			st.AudioChunks = 0
		})

	case models.EventTranscriptionError, models.EventError:
		var p models.ErrorPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.LastError = p.Message
			st.IsProcessing = false
		})

	case models.EventAnswerProcessing:
		s.update(func(st *State) { st.IsProcessing = true })

	case models.EventAnswerEvaluated:
		var p models.AnswerEvaluatedPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		// stays processing until the next question or completion arrives
		s.update(func(st *State) { st.LastEvaluation = &p })

	case models.EventDifficultyAdjusted:
		var p models.DifficultyAdjustedPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) { st.Difficulty = p.NewDifficulty })

	case models.EventNextQuestion:
		var p models.NextQuestionPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.CurrentQuestion = &models.QuestionRecord{
				Text:           p.Question,
				Type:           p.Type,
				Difficulty:     p.Difficulty,
				ExpectedTopics: p.ExpectedTopics,
			}
			st.QuestionIndex = p.Index
			st.TotalQuestions = p.Progress.Total
			st.IsProcessing = false
			st.CurrentAnswer = ""
			st.VoiceAnalysis = nil
		})

	case models.EventInterviewComplete:
		var p models.InterviewCompletePayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.Status = models.StatusCompleted
			st.IsActive = false
			st.IsProcessing = false
			st.Completed = true
			st.Result = &p
		})

	case models.EventInterviewPaused:
		s.update(func(st *State) {
			st.Status = models.StatusPaused
			st.IsPaused = true
		})

	case models.EventInterviewResumed:
		var p models.InterviewResumedPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		s.update(func(st *State) {
			st.Status = models.StatusInProgress
			st.IsPaused = false
			st.CurrentQuestion = p.CurrentQuestion
			st.QuestionIndex = p.Progress.Current - 1
			st.TotalQuestions = p.Progress.Total
		})

	default:
		s.logger.Debug("Ignoring unknown event", zap.String("event", frame.Event))
	}
	return nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
