// Package testutil opens throwaway databases and seeds content for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"learningsite/config"
	"learningsite/models"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writes
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string, staff bool) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", IsStaff: staff}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// CreateCourse stores a course with the given status; published follows it.
func CreateCourse(t testing.TB, db *gorm.DB, teacher models.User, title, description string, status models.CourseStatus, createdAt ...time.Time) models.Course {
	t.Helper()
	c := models.Course{Title: title, Description: description, TeacherID: teacher.ID}
	c.SetStatus(status)
	if len(createdAt) > 0 {
		c.CreatedAt = createdAt[0].UTC()
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func CreateText(t testing.TB, db *gorm.DB, course models.Course, title string, order int) models.Text {
	t.Helper()
	txt := models.Text{Step: models.Step{Title: title, Description: title, Order: order, CourseID: course.ID}, Content: "content of " + title}
	require.NoError(t, db.Create(&txt).Error)
	return txt
}

func CreateQuiz(t testing.TB, db *gorm.DB, course models.Course, title string, order int) models.Quiz {
	t.Helper()
	q := models.Quiz{Step: models.Step{Title: title, Description: title, Order: order, CourseID: course.ID}, TotalQuestions: 4}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func CreateQuestion(t testing.TB, db *gorm.DB, quiz models.Quiz, kind models.QuestionKind, prompt string, order int) models.Question {
	t.Helper()
	q := models.Question{QuizID: quiz.ID, Kind: kind, Prompt: prompt, Order: order}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func CreateAnswer(t testing.TB, db *gorm.DB, question models.Question, text string, correct bool, order int) models.Answer {
	t.Helper()
	a := models.Answer{QuestionID: question.ID, Text: text, Correct: correct, Order: order}
	require.NoError(t, db.Create(&a).Error)
	return a
}
