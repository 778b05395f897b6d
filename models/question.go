package models

// QuestionKind discriminates the concrete question variant.
type QuestionKind string

const (
	MultipleChoice QuestionKind = "mc"
	TrueFalse      QuestionKind = "tf"
)

func (k QuestionKind) Valid() bool {
	return k == MultipleChoice || k == TrueFalse
}

func (k QuestionKind) Label() string {
	switch k {
	case MultipleChoice:
		return "Multiple choice"
	case TrueFalse:
		return "True/False"
	}
	return string(k)
}

type Question struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	QuizID         uint         `json:"quiz_id" gorm:"not null;index"`
	Kind           QuestionKind `json:"kind" gorm:"size:2;not null"`
	Order          int          `json:"order" gorm:"not null;default:0"`
	Prompt         string       `json:"prompt" gorm:"not null"`
	ShuffleAnswers bool         `json:"shuffle_answers" gorm:"not null;default:false"`

	// Relationships
	Quiz    *Quiz    `json:"quiz,omitempty"`
	Answers []Answer `json:"answers" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}
