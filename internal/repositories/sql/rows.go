package sql

import (
	"encoding/json"
	"time"
)

// Aggregates are stored as JSON documents next to the columns used for lookups and ordering.

type sessionRow struct {
	SessionID string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"not null;index;size:64"`
	Status    string `gorm:"not null;size:16"`
	Document  string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (sessionRow) TableName() string { return "interview_sessions" }

type questionSetRow struct {
	Date        string `gorm:"primaryKey;size:10"`
	IsActive    bool   `gorm:"not null"`
	Document    string `gorm:"type:text;not null"`
	GeneratedAt time.Time
}

func (questionSetRow) TableName() string { return "daily_question_sets" }

type progressRow struct {
	UserID      string `gorm:"primaryKey;size:64"`
	Date        string `gorm:"primaryKey;size:10;index:idx_progress_date_completed"`
	IsCompleted bool   `gorm:"not null;index:idx_progress_date_completed"`
	TotalScore  int    `gorm:"not null"`
	CompletedAt *time.Time
	Document    string `gorm:"type:text;not null"`
}

func (progressRow) TableName() string { return "user_daily_progress" }

type streakRow struct {
	UserID            string `gorm:"primaryKey;size:64"`
	CurrentStreak     int    `gorm:"not null;default:0"`
	LongestStreak     int    `gorm:"not null;default:0"`
	LastCompletedDate string `gorm:"size:10"`
	Rewards           int    `gorm:"not null;default:0"`
}

func (streakRow) TableName() string { return "user_streaks" }

func encode(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decode(doc string, v interface{}) error {
	return json.Unmarshal([]byte(doc), v)
}
