package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"learningsite/logger"
	"learningsite/models"
)

type StepService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStepService(db *gorm.DB, log *logger.Logger) *StepService {
	return &StepService{db: db, log: log.With("service", "StepService")}
}

// TextDetail returns a text step of a published course.
func (s *StepService) TextDetail(ctx context.Context, courseID, stepID uint) (*models.Text, error) {
	var text models.Text
	err := s.db.WithContext(ctx).
		Joins("JOIN courses ON courses.id = texts.course_id").
		Preload("Course").
		Where("texts.id = ? AND texts.course_id = ? AND courses.published = ?", stepID, courseID, true).
		First(&text).Error
	if err != nil {
		return nil, notFound(err, "text detail")
	}
	return &text, nil
}

// QuizDetail returns a quiz step of a published course with its questions
// and their answers loaded.
func (s *StepService) QuizDetail(ctx context.Context, courseID, stepID uint) (*models.Quiz, error) {
	return s.publishedQuiz(s.db.WithContext(ctx), courseID, stepID)
}

func (s *StepService) publishedQuiz(db *gorm.DB, courseID, stepID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := db.
		Joins("JOIN courses ON courses.id = quizzes.course_id").
		Preload("Course").
		Preload("Questions", byPosition("questions")).
		Preload("Questions.Answers", byPosition("answers")).
		Where("quizzes.id = ? AND quizzes.course_id = ? AND courses.published = ?", stepID, courseID, true).
		First(&quiz).Error
	if err != nil {
		return nil, notFound(err, "quiz detail")
	}
	if quiz.Questions == nil {
		quiz.Questions = []models.Question{}
	}
	return &quiz, nil
}

// QuizSubmission maps question ids to the answer id the visitor picked.
type QuizSubmission struct {
	Answers map[uint]uint `json:"answers"`
}

type QuestionResult struct {
	QuestionID uint `json:"question_id"`
	AnswerID   uint `json:"answer_id,omitempty"`
	Correct    bool `json:"correct"`
}

type QuizResult struct {
	QuizID     uint             `json:"quiz_id"`
	Score      int              `json:"score"`
	Questions  int              `json:"questions"`
	TimesTaken int              `json:"times_taken"`
	Results    []QuestionResult `json:"results"`
}

// TakeQuiz grades a submission and counts the quiz as taken once more.
// Unanswered questions, and picks that do not belong to the question,
// count as wrong.
func (s *StepService) TakeQuiz(ctx context.Context, courseID, stepID uint, sub QuizSubmission) (*QuizResult, error) {
	var result *QuizResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.publishedQuiz(tx, courseID, stepID)
		if err != nil {
			return err
		}

		result = &QuizResult{QuizID: quiz.ID, Questions: len(quiz.Questions), Results: make([]QuestionResult, 0, len(quiz.Questions))}
		for _, q := range quiz.Questions {
			picked := sub.Answers[q.ID]
			qr := QuestionResult{QuestionID: q.ID, AnswerID: picked}
			for _, a := range q.Answers {
				if a.ID == picked && a.Correct {
					qr.Correct = true
					result.Score++
					break
				}
			}
			result.Results = append(result.Results, qr)
		}

		if err := tx.Model(&models.Quiz{}).
			Where("id = ?", quiz.ID).
			UpdateColumn("times_taken", gorm.Expr("times_taken + ?", 1)).Error; err != nil {
			return fmt.Errorf("count quiz taken: %w", err)
		}
		result.TimesTaken = quiz.TimesTaken + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("quiz taken", "quiz_id", result.QuizID, "score", result.Score, "questions", result.Questions)
	return result, nil
}
