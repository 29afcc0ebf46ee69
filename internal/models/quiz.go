package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	LessonID     uint       `json:"lesson_id" gorm:"not null;index"`
	Title        string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description  *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	DueDate      *time.Time `json:"due_date"`
	PassingScore int        `json:"passing_score" gorm:"not null;default:60" validate:"min=0,max=100"`

	// Questions and their answer keys, stored as a JSON document:
	// [{"text": ..., "options": [...], "answer": <option index>, "points": n}, ...]
	Questions datatypes.JSON `json:"questions" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations. Quiz ownership is derived by walking Lesson then Course.
	Lesson   Lesson        `json:"lesson" gorm:"foreignKey:LessonID"`
	Attempts []QuizAttempt `json:"attempts" gorm:"foreignKey:QuizID"`
}

type QuizAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	QuizID    uint   `json:"quiz_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	// Scoring
	Score      float64 `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`

	// Submitted answers keyed by question index.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Quiz    Quiz `json:"quiz" gorm:"foreignKey:QuizID"`
	Student User `json:"student" gorm:"foreignKey:StudentID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
