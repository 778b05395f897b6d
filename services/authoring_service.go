package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"learningsite/forms"
	"learningsite/logger"
	"learningsite/models"
)

// AuthoringService creates and edits course content. Lookups here ignore
// the published flag: authors work on unpublished courses too.
type AuthoringService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuthoringService(db *gorm.DB, log *logger.Logger) *AuthoringService {
	return &AuthoringService{db: db, log: log.With("service", "AuthoringService")}
}

// Teachers lists the users a course can be assigned to.
func (s *AuthoringService) Teachers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return users, nil
}

// CreateCourse saves a new course. The actor teaches it unless the form
// names another teacher.
func (s *AuthoringService) CreateCourse(ctx context.Context, actorID uint, form *forms.CourseForm) (*models.Course, error) {
	course := models.Course{TeacherID: actorID}
	form.Apply(&course)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var teacher models.User
		if err := tx.First(&teacher, course.TeacherID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return forms.FieldError("teacher", "Select a valid choice. That choice is not one of the available choices.")
			}
			return fmt.Errorf("load teacher: %w", err)
		}
		if err := tx.Create(&course).Error; err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", course.ID, "teacher_id", course.TeacherID)
	return &course, nil
}

// Course loads any course, published or not.
func (s *AuthoringService) Course(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, notFound(err, "course")
	}
	return &course, nil
}

func (s *AuthoringService) CreateQuiz(ctx context.Context, course *models.Course, form *forms.QuizForm) (*models.Quiz, error) {
	quiz := models.Quiz{Step: models.Step{CourseID: course.ID}}
	form.Apply(&quiz)

	if err := s.db.WithContext(ctx).Create(&quiz).Error; err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	s.log.Info("quiz created", "course_id", course.ID, "quiz_id", quiz.ID)
	return &quiz, nil
}

// QuizInCourse loads a quiz only if it belongs to the course.
func (s *AuthoringService) QuizInCourse(ctx context.Context, courseID, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("id = ? AND course_id = ?", quizID, courseID).
		First(&quiz).Error
	if err != nil {
		return nil, notFound(err, "quiz")
	}
	return &quiz, nil
}

func (s *AuthoringService) Quiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).First(&quiz, quizID).Error; err != nil {
		return nil, notFound(err, "quiz")
	}
	return &quiz, nil
}

func (s *AuthoringService) UpdateQuiz(ctx context.Context, quiz *models.Quiz, form *forms.QuizForm) (*models.Quiz, error) {
	form.Apply(quiz)
	err := s.db.WithContext(ctx).
		Model(quiz).
		Select("title", "description", "order", "total_questions").
		Updates(quiz).Error
	if err != nil {
		return nil, fmt.Errorf("update quiz %d: %w", quiz.ID, err)
	}
	s.log.Info("quiz updated", "quiz_id", quiz.ID)
	return quiz, nil
}

// CreateQuestion saves a question of the form's kind together with its
// answer rows. Either everything is stored or nothing is.
func (s *AuthoringService) CreateQuestion(ctx context.Context, quiz *models.Quiz, sub *forms.QuestionSubmission) (*models.Question, error) {
	if !sub.Kind.Valid() {
		return nil, ErrInvalidQuestionType
	}
	question := models.Question{QuizID: quiz.ID}
	sub.Apply(&question)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		return saveAnswerRows(tx, question.ID, sub.Answers, false)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("question created", "quiz_id", quiz.ID, "question_id", question.ID, "kind", question.Kind)
	return &question, nil
}

// QuestionInQuiz loads a question of the quiz with its answers.
func (s *AuthoringService) QuestionInQuiz(ctx context.Context, quizID, questionID uint) (*models.Question, error) {
	var question models.Question
	err := s.db.WithContext(ctx).
		Preload("Quiz").
		Preload("Answers", byPosition("answers")).
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		First(&question).Error
	if err != nil {
		return nil, notFound(err, "question")
	}
	return &question, nil
}

func (s *AuthoringService) Question(ctx context.Context, questionID uint) (*models.Question, error) {
	var question models.Question
	err := s.db.WithContext(ctx).
		Preload("Quiz").
		Preload("Answers", byPosition("answers")).
		First(&question, questionID).Error
	if err != nil {
		return nil, notFound(err, "question")
	}
	return &question, nil
}

// UpdateQuestion saves the question fields and applies the answer rows:
// rows with an id update, rows without one create, rows marked for
// deletion are removed. The question keeps its kind.
func (s *AuthoringService) UpdateQuestion(ctx context.Context, question *models.Question, sub *forms.QuestionSubmission) (*models.Question, error) {
	sub.Kind = question.Kind
	sub.Apply(question)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(question).
			Select("order", "prompt", "shuffle_answers").
			Updates(question).Error
		if err != nil {
			return fmt.Errorf("update question %d: %w", question.ID, err)
		}
		return saveAnswerRows(tx, question.ID, sub.Answers, true)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("question updated", "question_id", question.ID)
	return question, nil
}

// SaveAnswers stores a standalone answer formset for the question.
func (s *AuthoringService) SaveAnswers(ctx context.Context, question *models.Question, set *forms.AnswerFormset) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveAnswerRows(tx, question.ID, set.Answers, false)
	})
	if err != nil {
		return err
	}
	s.log.Info("answers saved", "question_id", question.ID, "rows", len(set.Answers))
	return nil
}

func saveAnswerRows(tx *gorm.DB, questionID uint, rows []forms.AnswerRow, allowDelete bool) error {
	for _, row := range rows {
		if row.ID == 0 {
			if row.Delete {
				continue
			}
			answer := models.Answer{QuestionID: questionID}
			row.Apply(&answer)
			if err := tx.Create(&answer).Error; err != nil {
				return fmt.Errorf("create answer: %w", err)
			}
			continue
		}

		var answer models.Answer
		err := tx.Where("id = ? AND question_id = ?", row.ID, questionID).First(&answer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return forms.RowError(row, "id", "Select a valid choice. That choice is not one of the available choices.")
		}
		if err != nil {
			return fmt.Errorf("load answer %d: %w", row.ID, err)
		}

		if row.Delete && allowDelete {
			if err := tx.Delete(&answer).Error; err != nil {
				return fmt.Errorf("delete answer %d: %w", answer.ID, err)
			}
			continue
		}
		row.Apply(&answer)
		if err := tx.Model(&answer).Select("order", "text", "correct").Updates(&answer).Error; err != nil {
			return fmt.Errorf("update answer %d: %w", answer.ID, err)
		}
	}
	return nil
}
