package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	UserID      string  `json:"user_id" gorm:"not null;index;size:255"` // owning instructor
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=5000"`
	Price       float64 `json:"price" gorm:"not null;default:0" validate:"min=0"`
	Thumbnail   *string `json:"thumbnail" gorm:"size:500"`

	// Publication state. A course is publicly visible only when both are set.
	IsPublished bool `json:"is_published" gorm:"not null;default:false;index"`
	IsApproved  bool `json:"is_approved" gorm:"not null;default:false;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Instructor  User         `json:"instructor" gorm:"foreignKey:UserID"`
	Lessons     []Lesson     `json:"lessons" gorm:"foreignKey:CourseID"`
	Enrollments []Enrollment `json:"enrollments" gorm:"foreignKey:CourseID"`
	Reviews     []Review     `json:"reviews" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	LessonCount     int     `json:"lesson_count" gorm:"-"`
	EnrollmentCount int     `json:"enrollment_count" gorm:"-"`
	AvgRating       float64 `json:"avg_rating" gorm:"-"`
}

// Enrollment links one student to one course. Row existence is the
// enrollment predicate; there is no separate "enrolled" flag.
type Enrollment struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index;uniqueIndex:idx_enrollment_course_user"`
	UserID   string `json:"user_id" gorm:"not null;index;size:255;uniqueIndex:idx_enrollment_course_user"`

	// Progress is a percentage of completed lessons.
	Progress    float64    `json:"progress" gorm:"not null;default:0"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
	Student User   `json:"student" gorm:"foreignKey:UserID"`
}

type Review struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	CourseID uint    `json:"course_id" gorm:"not null;index;uniqueIndex:idx_review_course_user"`
	UserID   string  `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_review_course_user"`
	Rating   int     `json:"rating" gorm:"not null" validate:"required,min=1,max=5"`
	Comment  *string `json:"comment" gorm:"type:text" validate:"omitempty,max=2000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course Course `json:"course" gorm:"foreignKey:CourseID"`
	Author User   `json:"author" gorm:"foreignKey:UserID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (Review) TableName() string {
	return "reviews"
}
