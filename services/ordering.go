package services

import (
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learningsite/models"
)

// byPosition sorts rows of table by their user-editable order, then id.
func byPosition(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: "order"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: "id"}})
	}
}

// MergeSteps combines the texts and quizzes of a course into one outline
// sorted by order. Equal orders keep texts ahead of quizzes, and each kind
// keeps its incoming order.
func MergeSteps(texts []models.Text, quizzes []models.Quiz) []models.StepItem {
	steps := make([]models.StepItem, 0, len(texts)+len(quizzes))
	for i := range texts {
		t := &texts[i]
		steps = append(steps, models.StepItem{Kind: models.StepText, ID: t.ID, Title: t.Title, Order: t.Order, URL: t.URL(), Text: t})
	}
	for i := range quizzes {
		q := &quizzes[i]
		steps = append(steps, models.StepItem{Kind: models.StepQuiz, ID: q.ID, Title: q.Title, Order: q.Order, URL: q.URL(), Quiz: q})
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}
