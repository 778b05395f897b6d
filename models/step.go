package models

import "fmt"

// Step holds the fields shared by every unit of course content.
type Step struct {
	Title       string `json:"title" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
	Order       int    `json:"order" gorm:"not null;default:0"`
	CourseID    uint   `json:"course_id" gorm:"not null;index"`
}

type StepKind string

const (
	StepText StepKind = "text"
	StepQuiz StepKind = "quiz"
)

type Text struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Step
	Content string `json:"content" gorm:"not null;default:''"`

	Course *Course `json:"course,omitempty"`
}

func (t Text) URL() string {
	return fmt.Sprintf("/courses/%d/t%d/", t.CourseID, t.ID)
}

// StepItem is one entry of a course outline: either a Text or a Quiz.
type StepItem struct {
	Kind  StepKind `json:"kind"`
	ID    uint     `json:"id"`
	Title string   `json:"title"`
	Order int      `json:"order"`
	URL   string   `json:"url"`
	Text  *Text    `json:"text,omitempty"`
	Quiz  *Quiz    `json:"quiz,omitempty"`
}
