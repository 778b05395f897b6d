package models

import "fmt"

type Quiz struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Step
	TotalQuestions int `json:"total_questions" gorm:"not null"`
	TimesTaken     int `json:"times_taken" gorm:"not null;default:0"`

	// Relationships
	Course    *Course    `json:"course,omitempty"`
	Questions []Question `json:"questions" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q Quiz) URL() string {
	return fmt.Sprintf("/courses/%d/q%d/", q.CourseID, q.ID)
}
