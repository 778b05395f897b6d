package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type CourseStatus string

const (
	StatusInProgress CourseStatus = "i"
	StatusInReview   CourseStatus = "r"
	StatusPublished  CourseStatus = "p"
)

// Label returns the human readable name of the status.
func (s CourseStatus) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusInReview:
		return "In Review"
	case StatusPublished:
		return "Published"
	}
	return string(s)
}

func (s CourseStatus) Valid() bool {
	return s == StatusInProgress || s == StatusInReview || s == StatusPublished
}

// CourseStatuses lists the statuses in display order.
var CourseStatuses = []CourseStatus{StatusInProgress, StatusInReview, StatusPublished}

// wordsPerMinute is the reading speed used by TimeToComplete.
const wordsPerMinute = 20

type Course struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Title       string       `json:"title" gorm:"size:255;not null"`
	Description string       `json:"description" gorm:"not null"`
	TeacherID   uint         `json:"teacher_id" gorm:"not null;index"`
	Subject     string       `json:"subject" gorm:"size:100;not null;default:''"`
	Published   bool         `json:"published" gorm:"not null;default:false;index"`
	Status      CourseStatus `json:"status" gorm:"size:1;not null;default:'i'"`

	// Relationships
	Teacher User   `json:"teacher,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Texts   []Text `json:"texts,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Quizzes []Quiz `json:"quizzes,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// SetStatus changes the status and keeps Published in line with it.
func (c *Course) SetStatus(status CourseStatus) {
	c.Status = status
	c.Published = status == StatusPublished
}

// TimeToComplete estimates the reading time of the course description.
func (c Course) TimeToComplete() string {
	return fmt.Sprintf("%d minutes", EstimateMinutes(len(strings.Fields(c.Description))))
}

func EstimateMinutes(words int) int {
	return int(math.Round(float64(words) / wordsPerMinute))
}

func (c Course) URL() string {
	return fmt.Sprintf("/courses/%d/", c.ID)
}

// CourseListURL is where a newly created course redirects to.
const CourseListURL = "/courses/"
