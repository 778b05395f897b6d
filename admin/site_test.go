package admin

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"learningsite/forms"
	"learningsite/logger"
	"learningsite/models"
	"learningsite/services"
	"learningsite/testutil"
)

func setupSite(t *testing.T) (*Site, *gorm.DB, models.User) {
	db := testutil.NewDB(t)
	log := logger.NewNop()
	teacher := testutil.CreateUser(t, db, "kenneth", true)
	site := NewSite(db, NewContentRegistry(services.NewCourseService(db, log)), log)
	return site, db, teacher
}

func loadCourse(t *testing.T, db *gorm.DB, id uint) models.Course {
	t.Helper()
	var c models.Course
	require.NoError(t, db.First(&c, id).Error)
	return c
}

func rowTitles(list *ChangeList) []string {
	out := make([]string, 0, len(list.Rows))
	for _, r := range list.Rows {
		out = append(out, toString(r["title"]))
	}
	return out
}

func TestSite_MakeInReview(t *testing.T) {
	site, db, teacher := setupSite(t)
	a := testutil.CreateCourse(t, db, teacher, "A", "a", models.StatusPublished)
	b := testutil.CreateCourse(t, db, teacher, "B", "b", models.StatusInProgress)
	untouched := testutil.CreateCourse(t, db, teacher, "C", "c", models.StatusPublished)

	n, err := site.RunAction(context.Background(), "course", "make_in_review", []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for _, id := range []uint{a.ID, b.ID} {
		c := loadCourse(t, db, id)
		assert.Equal(t, models.StatusInReview, c.Status)
		assert.False(t, c.Published)
	}
	assert.True(t, loadCourse(t, db, untouched.ID).Published)

	_, err = site.RunAction(context.Background(), "course", "make_published", []uint{b.ID})
	require.NoError(t, err)
	c := loadCourse(t, db, b.ID)
	assert.Equal(t, models.StatusPublished, c.Status)
	assert.True(t, c.Published)
}

func TestSite_ActionErrors(t *testing.T) {
	site, _, _ := setupSite(t)

	_, err := site.RunAction(context.Background(), "course", "make_in_review", nil)
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, forms.NonFieldErrors)

	_, err = site.RunAction(context.Background(), "course", "explode", []uint{1})
	_, ok = forms.AsValidationError(err)
	assert.True(t, ok)

	_, err = site.RunAction(context.Background(), "nothing", "make_in_review", []uint{1})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSite_YearFilter(t *testing.T) {
	site, db, teacher := setupSite(t)
	testutil.CreateCourse(t, db, teacher, "Old", "o", models.StatusPublished, time.Date(2015, 12, 31, 23, 0, 0, 0, time.UTC))
	testutil.CreateCourse(t, db, teacher, "Early", "e", models.StatusPublished, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC))
	testutil.CreateCourse(t, db, teacher, "Late", "l", models.StatusPublished, time.Date(2016, 12, 31, 12, 0, 0, 0, time.UTC))
	testutil.CreateCourse(t, db, teacher, "New", "n", models.StatusPublished, time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC))

	list, err := site.List(context.Background(), "course", url.Values{"year": {"2016"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Early", "Late"}, rowTitles(list))

	list, err = site.List(context.Background(), "course", url.Values{"year": {"1999"}})
	require.NoError(t, err)
	assert.Len(t, list.Rows, 4, "years outside the buckets are ignored")
}

func TestSite_ListSearchAndFilters(t *testing.T) {
	site, db, teacher := setupSite(t)
	testutil.CreateCourse(t, db, teacher, "Python Testing", "unit tests", models.StatusPublished)
	testutil.CreateCourse(t, db, teacher, "Java", "about testing", models.StatusInReview)
	testutil.CreateCourse(t, db, teacher, "Rust", "systems", models.StatusInProgress)

	list, err := site.List(context.Background(), "course", url.Values{"q": {"TESTING"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Python Testing", "Java"}, rowTitles(list))
	assert.True(t, list.SearchEnabled)
	assert.Len(t, list.Actions, 3)

	list, err = site.List(context.Background(), "course", url.Values{"published": {"0"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Java", "Rust"}, rowTitles(list))

	list, err = site.List(context.Background(), "course", url.Values{"status": {"r"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Java"}, rowTitles(list))

	row := list.Rows[0]
	assert.Equal(t, "0 minutes", row["time_to_complete"])
	assert.Contains(t, row, "status")
	assert.NotContains(t, row, "description")
}

func TestSite_UpdateSyncsPublished(t *testing.T) {
	site, db, teacher := setupSite(t)
	c := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusInProgress)

	require.NoError(t, site.Update(context.Background(), "course", c.ID, map[string]interface{}{"status": "p"}))
	got := loadCourse(t, db, c.ID)
	assert.Equal(t, models.StatusPublished, got.Status)
	assert.True(t, got.Published)
	assert.Equal(t, "Go", got.Title, "absent fields keep their value")

	err := site.Update(context.Background(), "course", c.ID, map[string]interface{}{"status": "x", "title": ""})
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "status")
	assert.Equal(t, "This field is required.", ve.Errors["title"])

	err = site.Update(context.Background(), "course", c.ID, map[string]interface{}{"teacher_id": float64(999)})
	ve, ok = forms.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "teacher_id")

	assert.ErrorIs(t, site.Update(context.Background(), "course", 999, map[string]interface{}{"title": "x"}), services.ErrNotFound)
}

func TestSite_UpdateIgnoresReadOnlyFields(t *testing.T) {
	site, db, teacher := setupSite(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusPublished)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	q := testutil.CreateQuestion(t, db, quiz, models.TrueFalse, "?", 1)

	require.NoError(t, site.Update(context.Background(), "question", q.ID, map[string]interface{}{"kind": "mc", "order": "7"}))

	var stored models.Question
	require.NoError(t, db.First(&stored, q.ID).Error)
	assert.Equal(t, models.TrueFalse, stored.Kind)
	assert.Equal(t, 7, stored.Order)
}

func TestSite_ChangeView(t *testing.T) {
	site, db, teacher := setupSite(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusPublished)
	text := testutil.CreateText(t, db, course, "Intro", 1)
	testutil.CreateQuiz(t, db, course, "Check", 2)

	form, err := site.Change(context.Background(), "text", text.ID)
	require.NoError(t, err)
	require.Len(t, form.Fieldsets, 2)
	assert.Equal(t, "Add content", form.Fieldsets[1].Name)
	assert.True(t, form.Fieldsets[1].Collapsed)
	assert.Equal(t, "content", form.Fieldsets[1].Fields[0].Name)

	form, err = site.Change(context.Background(), "course", course.ID)
	require.NoError(t, err)
	require.Len(t, form.Inlines, 2)
	assert.Len(t, form.Inlines[0].Rows, 1)
	assert.Len(t, form.Inlines[1].Rows, 1)

	_, err = site.Change(context.Background(), "course", 999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSite_DeleteCascades(t *testing.T) {
	site, db, teacher := setupSite(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusPublished)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	q := testutil.CreateQuestion(t, db, quiz, models.MultipleChoice, "?", 1)
	testutil.CreateAnswer(t, db, q, "a", true, 1)

	require.NoError(t, site.Delete(context.Background(), "quiz", quiz.ID))

	var n int64
	require.NoError(t, db.Model(&models.Answer{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Question{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Course{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	require.NoError(t, site.Delete(context.Background(), "course", course.ID))
	require.NoError(t, db.Model(&models.Course{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(TextAdmin())
	assert.Panics(t, func() { r.Register(TextAdmin()) })
}

func TestSite_AddText(t *testing.T) {
	site, db, teacher := setupSite(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusPublished)
	ctx := context.Background()

	form, err := site.Add("text")
	require.NoError(t, err)
	require.Len(t, form.Fieldsets, 2)
	assert.Equal(t, "course_id", form.Fieldsets[0].Fields[0].Name)
	assert.True(t, form.Fieldsets[0].Fields[0].Required)
	assert.True(t, form.Fieldsets[1].Collapsed)

	id, err := site.Create(ctx, "text", map[string]interface{}{
		"course_id": float64(course.ID), "title": " Intro ", "order": "2", "content": "Hello",
	})
	require.NoError(t, err)

	var text models.Text
	require.NoError(t, db.First(&text, id).Error)
	assert.Equal(t, course.ID, text.CourseID)
	assert.Equal(t, "Intro", text.Title)
	assert.Equal(t, 2, text.Order)
	assert.Equal(t, "Hello", text.Content)

	_, err = site.Create(ctx, "text", map[string]interface{}{"order": "x"})
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "This field is required.", ve.Errors["course_id"])
	assert.Equal(t, "This field is required.", ve.Errors["title"])
	assert.Equal(t, "Enter a whole number.", ve.Errors["order"])

	_, err = site.Create(ctx, "text", map[string]interface{}{"course_id": float64(999), "title": "Lost"})
	ve, ok = forms.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "course_id")

	var n int64
	require.NoError(t, db.Model(&models.Text{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSite_AddCourseSyncsPublished(t *testing.T) {
	site, db, teacher := setupSite(t)
	ctx := context.Background()

	id, err := site.Create(ctx, "course", map[string]interface{}{
		"title": "Go", "description": "Learn Go", "teacher_id": float64(teacher.ID), "status": "p",
	})
	require.NoError(t, err)
	c := loadCourse(t, db, id)
	assert.Equal(t, models.StatusPublished, c.Status)
	assert.True(t, c.Published)
	assert.False(t, c.CreatedAt.IsZero())

	id, err = site.Create(ctx, "course", map[string]interface{}{
		"title": "Draft", "description": "d", "teacher_id": float64(teacher.ID), "status": "r",
	})
	require.NoError(t, err)
	assert.False(t, loadCourse(t, db, id).Published)
}

func TestSite_AddQuestion(t *testing.T) {
	site, db, teacher := setupSite(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusPublished)
	quiz := testutil.CreateQuiz(t, db, course, "Check", 1)
	ctx := context.Background()

	_, err := site.Create(ctx, "question", map[string]interface{}{"quiz_id": quiz.ID, "prompt": "?"})
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "This field is required.", ve.Errors["kind"])

	id, err := site.Create(ctx, "question", map[string]interface{}{
		"quiz_id": quiz.ID, "kind": "tf", "prompt": "Go has pointers", "shuffle_answers": "on",
	})
	require.NoError(t, err)

	var q models.Question
	require.NoError(t, db.First(&q, id).Error)
	assert.Equal(t, models.TrueFalse, q.Kind)
	assert.False(t, q.ShuffleAnswers)

	form, err := site.Change(ctx, "question", id)
	require.NoError(t, err)
	assert.Equal(t, "kind", form.Fieldsets[0].Fields[1].Name)
	assert.True(t, form.Fieldsets[0].Fields[1].ReadOnly)
}

func TestSite_AddDisabled(t *testing.T) {
	site, _, _ := setupSite(t)

	_, err := site.Add("user")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = site.Create(context.Background(), "user", map[string]interface{}{"email": "a@example.com"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	for _, entry := range site.Index() {
		if entry.Name == "user" {
			assert.Empty(t, entry.AddURL)
		} else {
			assert.Equal(t, AddURL(entry.Name), entry.AddURL)
		}
	}
}

func TestSite_AddQuizTotalQuestions(t *testing.T) {
	site, db, teacher := setupSite(t)
	course := testutil.CreateCourse(t, db, teacher, "Go", "g", models.StatusPublished)
	ctx := context.Background()

	form, err := site.Add("quiz")
	require.NoError(t, err)
	for _, f := range form.Fieldsets[0].Fields {
		if f.Name == "total_questions" {
			assert.Equal(t, 4, f.Value)
		}
	}

	load := func(id uint) models.Quiz {
		var q models.Quiz
		require.NoError(t, db.First(&q, id).Error)
		return q
	}
	base := map[string]interface{}{"course_id": course.ID, "title": "Check", "description": "d"}

	id, err := site.Create(ctx, "quiz", base)
	require.NoError(t, err)
	assert.Equal(t, 4, load(id).TotalQuestions)

	withTotal := func(v string) map[string]interface{} {
		in := map[string]interface{}{"total_questions": v}
		for k, val := range base {
			in[k] = val
		}
		return in
	}
	id, err = site.Create(ctx, "quiz", withTotal("0"))
	require.NoError(t, err)
	assert.Equal(t, 0, load(id).TotalQuestions)

	_, err = site.Create(ctx, "quiz", withTotal("-5"))
	ve, ok := forms.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Ensure this value is greater than or equal to 0.", ve.Errors["total_questions"])
}
