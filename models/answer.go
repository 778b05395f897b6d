package models

type Answer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Order      int    `json:"order" gorm:"not null;default:0"`
	Text       string `json:"text" gorm:"size:255;not null"`
	Correct    bool   `json:"correct" gorm:"not null;default:false"`

	// Relationships
	Question *Question `json:"question,omitempty"`
}
