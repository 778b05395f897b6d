package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"learningsite/forms"
	"learningsite/logger"
	"learningsite/models"
	"learningsite/testutil"
)

func setupAuthoring(t *testing.T) (*AuthoringService, *gorm.DB, models.Course) {
	db := testutil.NewDB(t)
	teacher := testutil.CreateUser(t, db, "kenneth", false)
	course := testutil.CreateCourse(t, db, teacher, "Go", "Learn Go", models.StatusInProgress)
	return NewAuthoringService(db, logger.NewNop()), db, course
}

func answersOf(t *testing.T, db *gorm.DB, questionID uint) []models.Answer {
	t.Helper()
	var answers []models.Answer
	require.NoError(t, db.Where("question_id = ?", questionID).Order("id").Find(&answers).Error)
	return answers
}

func TestAuthoringService_CreateCourse(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	other := testutil.CreateUser(t, db, "alena", false)

	created, err := svc.CreateCourse(context.Background(), course.TeacherID, &forms.CourseForm{
		Title: "Rust", Description: "Learn Rust", Status: models.StatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, course.TeacherID, created.TeacherID, "the actor teaches by default")
	assert.True(t, created.Published)

	created, err = svc.CreateCourse(context.Background(), course.TeacherID, &forms.CourseForm{
		Title: "Flask", Description: "d", TeacherID: other.ID, Status: models.StatusInReview,
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, created.TeacherID)
	assert.False(t, created.Published)

	_, err = svc.CreateCourse(context.Background(), course.TeacherID, &forms.CourseForm{
		Title: "Ghost", Description: "d", TeacherID: 404, Status: models.StatusInProgress,
	})
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "teacher")
}

func TestAuthoringService_CreateQuizKeepsZeroTotal(t *testing.T) {
	svc, db, course := setupAuthoring(t)

	quiz, err := svc.CreateQuiz(context.Background(), &course, &forms.QuizForm{Title: "Open", Description: "d", TotalQuestions: 0})
	require.NoError(t, err)

	var stored models.Quiz
	require.NoError(t, db.First(&stored, quiz.ID).Error)
	assert.Equal(t, 0, stored.TotalQuestions)
	assert.Equal(t, 0, quiz.TotalQuestions)
}

func TestAuthoringService_QuizInCourse(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	otherCourse := testutil.CreateCourse(t, db, models.User{ID: course.TeacherID}, "Other", "o", models.StatusPublished)

	quiz, err := svc.CreateQuiz(context.Background(), &course, &forms.QuizForm{Title: "Check", Description: "d", TotalQuestions: 4})
	require.NoError(t, err)
	assert.Equal(t, course.ID, quiz.CourseID)
	assert.Equal(t, 0, quiz.TimesTaken)

	_, err = svc.QuizInCourse(context.Background(), otherCourse.ID, quiz.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.QuizInCourse(context.Background(), course.ID, quiz.ID)
	require.NoError(t, err)
	updated, err := svc.UpdateQuiz(context.Background(), got, &forms.QuizForm{Title: "Renamed", Description: "d2", Order: 5, TotalQuestions: 10})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	var stored models.Quiz
	require.NoError(t, db.First(&stored, quiz.ID).Error)
	assert.Equal(t, 5, stored.Order)
	assert.Equal(t, 10, stored.TotalQuestions)
}

func TestAuthoringService_CreateQuestionWithAnswers(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)

	sub := &forms.QuestionSubmission{
		QuestionForm: forms.QuestionForm{Kind: models.TrueFalse, Order: 1, Prompt: "Go is typed", ShuffleAnswers: true},
		Answers: []forms.AnswerRow{
			{Order: 1, Text: "True", Correct: true},
			{Order: 2, Text: "False"},
		},
	}
	q, err := svc.CreateQuestion(context.Background(), &quiz, sub)
	require.NoError(t, err)
	assert.Equal(t, models.TrueFalse, q.Kind)
	assert.False(t, q.ShuffleAnswers)

	answers := answersOf(t, db, q.ID)
	require.Len(t, answers, 2)
	assert.True(t, answers[0].Correct)

	_, err = svc.CreateQuestion(context.Background(), &quiz, &forms.QuestionSubmission{
		QuestionForm: forms.QuestionForm{Kind: "essay", Prompt: "?"},
	})
	assert.ErrorIs(t, err, ErrInvalidQuestionType)
}

func TestAuthoringService_CreateQuestionIsAtomic(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	other := testutil.CreateQuestion(t, db, quiz, models.MultipleChoice, "other", 1)
	foreign := testutil.CreateAnswer(t, db, other, "not yours", false, 1)

	sub := &forms.QuestionSubmission{
		QuestionForm: forms.QuestionForm{Kind: models.MultipleChoice, Prompt: "new"},
		Answers:      []forms.AnswerRow{{Text: "ok"}, {ID: foreign.ID, Text: "steal", Index: 1}},
	}
	_, err := svc.CreateQuestion(context.Background(), &quiz, sub)
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "answers-1-id")

	var n int64
	require.NoError(t, db.Model(&models.Question{}).Count(&n).Error)
	assert.EqualValues(t, 1, n, "nothing of the rejected submission is stored")
}

func TestAuthoringService_UpdateQuestion(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	q := testutil.CreateQuestion(t, db, quiz, models.MultipleChoice, "Pick", 1)
	keep := testutil.CreateAnswer(t, db, q, "keep", false, 1)
	drop := testutil.CreateAnswer(t, db, q, "drop", false, 2)

	question, err := svc.QuestionInQuiz(context.Background(), quiz.ID, q.ID)
	require.NoError(t, err)

	sub := &forms.QuestionSubmission{
		QuestionForm: forms.QuestionForm{Kind: models.TrueFalse, Order: 4, Prompt: "Pick one", ShuffleAnswers: true},
		Answers: []forms.AnswerRow{
			{ID: keep.ID, Order: 1, Text: "kept", Correct: true},
			{ID: drop.ID, Order: 2, Text: "drop", Delete: true, Index: 1},
			{Order: 3, Text: "added", Index: 2},
		},
	}
	updated, err := svc.UpdateQuestion(context.Background(), question, sub)
	require.NoError(t, err)
	assert.Equal(t, models.MultipleChoice, updated.Kind, "kind never changes")
	assert.True(t, updated.ShuffleAnswers)

	var stored models.Question
	require.NoError(t, db.First(&stored, q.ID).Error)
	assert.Equal(t, models.MultipleChoice, stored.Kind)
	assert.Equal(t, "Pick one", stored.Prompt)
	assert.Equal(t, 4, stored.Order)

	answers := answersOf(t, db, q.ID)
	require.Len(t, answers, 2)
	assert.Equal(t, "kept", answers[0].Text)
	assert.True(t, answers[0].Correct)
	assert.Equal(t, "added", answers[1].Text)
}

func TestAuthoringService_QuestionInQuiz(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	otherQuiz := testutil.CreateQuiz(t, db, course, "Other", 2)
	q := testutil.CreateQuestion(t, db, quiz, models.TrueFalse, "?", 1)

	_, err := svc.QuestionInQuiz(context.Background(), otherQuiz.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthoringService_SaveAnswers(t *testing.T) {
	svc, db, course := setupAuthoring(t)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	q := testutil.CreateQuestion(t, db, quiz, models.MultipleChoice, "Pick", 1)
	existing := testutil.CreateAnswer(t, db, q, "old", false, 1)

	question, err := svc.Question(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, question.Quiz)

	err = svc.SaveAnswers(context.Background(), question, &forms.AnswerFormset{Answers: []forms.AnswerRow{
		{ID: existing.ID, Order: 1, Text: "renamed", Delete: true},
		{Order: 2, Text: "new", Correct: true, Index: 1},
	}})
	require.NoError(t, err)

	answers := answersOf(t, db, q.ID)
	require.Len(t, answers, 2, "the standalone formset does not delete")
	assert.Equal(t, "renamed", answers[0].Text)
	assert.Equal(t, "new", answers[1].Text)
}
