package models

import (
	"fmt"
	"strings"
)

// StartInterviewRequest configures a new interview session.
type StartInterviewRequest struct {
	InterviewType  InterviewType `json:"interviewType"`
	Personality    Personality   `json:"personality"`
	Difficulty     Difficulty    `json:"difficulty"`
	TotalQuestions int           `json:"totalQuestions"`
	VoiceEnabled   bool          `json:"voiceEnabled"`
	TargetCompany  string        `json:"targetCompany,omitempty"`
	TargetRole     string        `json:"targetRole,omitempty"`
}

// implements the Validator interface, filling defaults for optional fields
func (r *StartInterviewRequest) Validate() error {
	if r.InterviewType == "" {
		return &ErrorResponse{Code: "missing_interview_type", Message: "interviewType is required"}
	}
	if !ValidInterviewTypes[r.InterviewType] {
		return &ErrorResponse{
			Code:    "invalid_interview_type",
			Message: "interviewType must be one of: technical, behavioral, system-design, hr",
		}
	}

	if r.Personality == "" {
		r.Personality = PersonalityProfessional
	}
	if !ValidPersonalities[r.Personality] {
		return &ErrorResponse{
			Code:    "invalid_personality",
			Message: "personality must be one of: strict, friendly, professional",
		}
	}

	if r.Difficulty == "" {
		r.Difficulty = DifficultyMedium
	}
	if !ValidDifficulties[r.Difficulty] {
		return &ErrorResponse{
			Code:    "invalid_difficulty",
			Message: "difficulty must be one of: easy, medium, hard, expert",
		}
	}

	if r.TotalQuestions == 0 {
		r.TotalQuestions = DefaultTotalQuestions
	}
	if r.TotalQuestions < 1 || r.TotalQuestions > MaxTotalQuestions {
		return &ErrorResponse{
			Code:    "invalid_total_questions",
			Message: fmt.Sprintf("totalQuestions must be between 1 and %d", MaxTotalQuestions),
		}
	}

	r.TargetCompany = strings.TrimSpace(r.TargetCompany)
	r.TargetRole = strings.TrimSpace(r.TargetRole)
	return nil
}

type DailyAnswerRequest struct {
	Category       string `json:"category"`
	QuestionIndex  *int   `json:"questionIndex"`
	SelectedAnswer string `json:"selectedAnswer"`
}

func (r *DailyAnswerRequest) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return &ErrorResponse{Code: "missing_category", Message: "category is required"}
	}
	if r.QuestionIndex == nil {
		return &ErrorResponse{Code: "missing_question_index", Message: "questionIndex is required"}
	}
	if strings.TrimSpace(r.SelectedAnswer) == "" {
		return &ErrorResponse{Code: "missing_selected_answer", Message: "selectedAnswer is required"}
	}
	return nil
}
