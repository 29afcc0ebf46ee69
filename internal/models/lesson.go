package models

import (
	"time"

	"gorm.io/gorm"
)

type Lesson struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	CourseID uint    `json:"course_id" gorm:"not null;index"`
	Title    string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Content  *string `json:"content" gorm:"type:text"`
	VideoURL *string `json:"video_url" gorm:"size:500" validate:"omitempty,url"`

	// Position within the course.
	Order int `json:"order" gorm:"not null;default:1;column:sort_order" validate:"min=1"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations. Lesson ownership is derived from Course.UserID; the lesson
	// itself carries no owner column.
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
	Quizzes []Quiz `json:"quizzes" gorm:"foreignKey:LessonID"`
}

func (Lesson) TableName() string {
	return "lessons"
}
