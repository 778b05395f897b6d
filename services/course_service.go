package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"learningsite/logger"
	"learningsite/models"
)

type CourseService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseService(db *gorm.DB, log *logger.Logger) *CourseService {
	return &CourseService{db: db, log: log.With("service", "CourseService")}
}

// CourseSummary is a catalog row annotated with its step count.
type CourseSummary struct {
	ID              uint                `json:"id"`
	CreatedAt       time.Time           `json:"created_at"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	TeacherID       uint                `json:"teacher_id"`
	TeacherUsername string              `json:"teacher"`
	Subject         string              `json:"subject"`
	Published       bool                `json:"published"`
	Status          models.CourseStatus `json:"status"`
	TotalSteps      int                 `json:"total_steps"`
	TimeToComplete  string              `json:"time_to_complete" gorm:"-"`
	URL             string              `json:"url" gorm:"-"`
}

type CourseListing struct {
	Courses []CourseSummary `json:"courses"`
	// Total is the sum of total_steps over Courses.
	Total int `json:"total"`
}

type CourseDetail struct {
	Course models.Course     `json:"course"`
	Steps  []models.StepItem `json:"steps"`
}

// total_steps counts each text and quiz once, independent of how many
// questions or answers hang below the quizzes.
const summarySelect = "courses.id, courses.created_at, courses.title, courses.description, " +
	"courses.teacher_id, users.username AS teacher_username, courses.subject, courses.published, courses.status, " +
	"(SELECT COUNT(*) FROM texts WHERE texts.course_id = courses.id) + " +
	"(SELECT COUNT(*) FROM quizzes WHERE quizzes.course_id = courses.id) AS total_steps"

func (s *CourseService) published(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("courses").
		Select(summarySelect).
		Joins("JOIN users ON users.id = courses.teacher_id").
		Where("courses.published = ?", true).
		Order("courses.id")
}

func (s *CourseService) listing(query *gorm.DB, what string) (*CourseListing, error) {
	var rows []CourseSummary
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	listing := &CourseListing{Courses: rows}
	for i := range listing.Courses {
		row := &listing.Courses[i]
		row.TimeToComplete = models.Course{Description: row.Description}.TimeToComplete()
		row.URL = models.Course{ID: row.ID}.URL()
		listing.Total += row.TotalSteps
	}
	if listing.Courses == nil {
		listing.Courses = []CourseSummary{}
	}
	return listing, nil
}

// List returns every published course.
func (s *CourseService) List(ctx context.Context) (*CourseListing, error) {
	return s.listing(s.published(ctx), "list courses")
}

// ByTeacher returns the published courses of the teacher with this username.
func (s *CourseService) ByTeacher(ctx context.Context, username string) (*CourseListing, error) {
	return s.listing(s.published(ctx).Where("users.username = ?", username), "list courses by teacher")
}

// Search matches term case-insensitively against title and description.
// An empty term matches every published course.
func (s *CourseService) Search(ctx context.Context, term string) (*CourseListing, error) {
	query := s.published(ctx)
	if term = strings.TrimSpace(term); term != "" {
		pattern := likePattern(term)
		query = query.Where(`(LOWER(courses.title) LIKE ? ESCAPE '\' OR LOWER(courses.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return s.listing(query, "search courses")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Detail loads a published course with its steps in outline order.
func (s *CourseService) Detail(ctx context.Context, id uint) (*CourseDetail, error) {
	var course models.Course
	err := s.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Texts", byPosition("texts")).
		Preload("Quizzes", byPosition("quizzes")).
		Preload("Quizzes.Questions", byPosition("questions")).
		Where("id = ? AND published = ?", id, true).
		First(&course).Error
	if err != nil {
		return nil, notFound(err, "course detail")
	}

	steps := MergeSteps(course.Texts, course.Quizzes)
	course.Texts, course.Quizzes = nil, nil
	return &CourseDetail{Course: course, Steps: steps}, nil
}

// Delete removes a course and everything below it in one transaction.
func (s *CourseService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, id).Error; err != nil {
			return notFound(err, "delete course")
		}
		if err := deleteCourseTree(tx, []uint{id}); err != nil {
			return fmt.Errorf("delete course %d: %w", id, err)
		}
		s.log.Info("course deleted", "course_id", id)
		return nil
	})
}

// deleteCourseTree deletes answers, questions, quizzes, texts and finally
// the courses themselves, bottom-up.
func deleteCourseTree(tx *gorm.DB, courseIDs []uint) error {
	quizIDs := tx.Model(&models.Quiz{}).Select("id").Where("course_id IN ?", courseIDs)
	questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id IN (?)", quizIDs)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.Answer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quiz_id IN (?)", tx.Model(&models.Quiz{}).Select("id").Where("course_id IN ?", courseIDs)).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Quiz{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Text{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", courseIDs).Delete(&models.Course{}).Error
}
