package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"learningsite/logger"
	"learningsite/models"
	"learningsite/testutil"
)

func setupCourses(t *testing.T) (*CourseService, *gorm.DB, models.User) {
	db := testutil.NewDB(t)
	teacher := testutil.CreateUser(t, db, "kenneth", false)
	return NewCourseService(db, logger.NewNop()), db, teacher
}

func titles(listing *CourseListing) []string {
	out := make([]string, 0, len(listing.Courses))
	for _, c := range listing.Courses {
		out = append(out, c.Title)
	}
	return out
}

func TestCourseService_ListHidesUnpublished(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	testutil.CreateCourse(t, db, teacher, "Python Basics", "Learn Python", models.StatusPublished)
	testutil.CreateCourse(t, db, teacher, "Draft", "Not ready", models.StatusInProgress)
	testutil.CreateCourse(t, db, teacher, "Reviewed", "Almost", models.StatusInReview)

	listing, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Python Basics"}, titles(listing))
	assert.Equal(t, "kenneth", listing.Courses[0].TeacherUsername)
	assert.Equal(t, "/courses/1/", listing.Courses[0].URL)
}

func TestCourseService_TotalStepsNotInflated(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "Learn Go", models.StatusPublished)
	testutil.CreateText(t, db, course, "Intro", 1)
	testutil.CreateText(t, db, course, "Setup", 2)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 3)
	for i := 0; i < 3; i++ {
		q := testutil.CreateQuestion(t, db, quiz, models.MultipleChoice, "?", i)
		testutil.CreateAnswer(t, db, q, "a", true, 1)
		testutil.CreateAnswer(t, db, q, "b", false, 2)
	}
	other := testutil.CreateCourse(t, db, teacher, "Empty", "Nothing yet", models.StatusPublished)

	listing, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Courses, 2)

	steps := map[uint]int{}
	for _, c := range listing.Courses {
		steps[c.ID] = c.TotalSteps
	}
	assert.Equal(t, 3, steps[course.ID])
	assert.Equal(t, 0, steps[other.ID])
	assert.Equal(t, 3, listing.Total)
}

func TestCourseService_ByTeacher(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	alena := testutil.CreateUser(t, db, "alena", false)
	testutil.CreateCourse(t, db, teacher, "Python", "p", models.StatusPublished)
	testutil.CreateCourse(t, db, alena, "Django", "d", models.StatusPublished)
	testutil.CreateCourse(t, db, alena, "Flask", "f", models.StatusInReview)

	listing, err := svc.ByTeacher(context.Background(), "alena")
	require.NoError(t, err)
	assert.Equal(t, []string{"Django"}, titles(listing))

	listing, err = svc.ByTeacher(context.Background(), "Alena")
	require.NoError(t, err)
	assert.Empty(t, listing.Courses, "teacher match is exact")
}

func TestCourseService_Search(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	testutil.CreateCourse(t, db, teacher, "Python Testing", "Learn unit tests", models.StatusPublished)
	testutil.CreateCourse(t, db, teacher, "Java", "All about TESTING in Java", models.StatusPublished)
	testutil.CreateCourse(t, db, teacher, "Testing drafts", "hidden", models.StatusInProgress)
	testutil.CreateCourse(t, db, teacher, "Rust", "Systems 100% safe", models.StatusPublished)

	tests := []struct {
		term string
		want []string
	}{
		{"testing", []string{"Python Testing", "Java"}},
		{"TESTING", []string{"Python Testing", "Java"}},
		{"%", []string{"Rust"}},
		{"_", []string{}},
		{"", []string{"Python Testing", "Java", "Rust"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			listing, err := svc.Search(context.Background(), tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(listing))
		})
	}
}

func TestCourseService_DetailOrdersSteps(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "Learn Go", models.StatusPublished)
	testutil.CreateQuiz(t, db, course, "Quiz at 2", 2)
	testutil.CreateText(t, db, course, "Text at 3", 3)
	testutil.CreateText(t, db, course, "Text at 2", 2)
	testutil.CreateText(t, db, course, "Text at 1", 1)

	detail, err := svc.Detail(context.Background(), course.ID)
	require.NoError(t, err)
	var got []string
	for _, s := range detail.Steps {
		got = append(got, s.Title)
	}
	assert.Equal(t, []string{"Text at 1", "Text at 2", "Quiz at 2", "Text at 3"}, got)
	assert.Equal(t, "kenneth", detail.Course.Teacher.Username)
	assert.Equal(t, models.StepQuiz, detail.Steps[2].Kind)
	assert.Equal(t, "/courses/1/q1/", detail.Steps[2].URL)
}

func TestCourseService_DetailNotFound(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	draft := testutil.CreateCourse(t, db, teacher, "Draft", "d", models.StatusInReview)

	_, err := svc.Detail(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Detail(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseService_DeleteCascades(t *testing.T) {
	svc, db, teacher := setupCourses(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "Learn Go", models.StatusPublished)
	keep := testutil.CreateCourse(t, db, teacher, "Keep", "k", models.StatusPublished)
	testutil.CreateText(t, db, course, "Intro", 1)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 2)
	q := testutil.CreateQuestion(t, db, quiz, models.TrueFalse, "?", 1)
	testutil.CreateAnswer(t, db, q, "True", true, 1)
	keptQuiz := testutil.CreateQuiz(t, db, keep, "Kept", 1)
	keptQ := testutil.CreateQuestion(t, db, keptQuiz, models.TrueFalse, "?", 1)
	testutil.CreateAnswer(t, db, keptQ, "False", false, 1)

	require.NoError(t, svc.Delete(context.Background(), course.ID))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 1, count(&models.Course{}))
	assert.EqualValues(t, 0, count(&models.Text{}))
	assert.EqualValues(t, 1, count(&models.Quiz{}))
	assert.EqualValues(t, 1, count(&models.Question{}))
	assert.EqualValues(t, 1, count(&models.Answer{}))

	assert.ErrorIs(t, svc.Delete(context.Background(), course.ID), ErrNotFound)
}

func TestMergeSteps_TiesKeepTextsFirst(t *testing.T) {
	texts := []models.Text{{ID: 4, Step: models.Step{Title: "t4", Order: 1}}, {ID: 2, Step: models.Step{Title: "t2", Order: 1}}}
	quizzes := []models.Quiz{{ID: 1, Step: models.Step{Title: "q1", Order: 0}}, {ID: 3, Step: models.Step{Title: "q3", Order: 1}}}

	steps := MergeSteps(texts, quizzes)
	var got []string
	for _, s := range steps {
		got = append(got, s.Title)
	}
	assert.Equal(t, []string{"q1", "t4", "t2", "q3"}, got)
}
