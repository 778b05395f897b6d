package admin

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Filter narrows a change list from one query parameter. Values that are
// not among the offered choices are ignored.
type Filter interface {
	Param() string
	Title() string
	Choices() []Choice
	Apply(db *gorm.DB, value string) *gorm.DB
}

// FieldFilter matches a column exactly against one of its choices.
type FieldFilter struct {
	Field       string
	FilterTitle string
	Options     []Choice
	// Values maps a choice value onto the stored value, when they differ.
	Values map[string]interface{}
}

func (f FieldFilter) Param() string     { return f.Field }
func (f FieldFilter) Title() string     { return f.FilterTitle }
func (f FieldFilter) Choices() []Choice { return f.Options }

func (f FieldFilter) Apply(db *gorm.DB, value string) *gorm.DB {
	for _, c := range f.Options {
		if c.Value != value {
			continue
		}
		var stored interface{} = value
		if v, ok := f.Values[value]; ok {
			stored = v
		}
		return db.Where(fmt.Sprintf("%s = ?", f.Field), stored)
	}
	return db
}

// BoolFilter offers Yes/No choices for a boolean column.
func BoolFilter(field, title string) FieldFilter {
	return FieldFilter{
		Field:       field,
		FilterTitle: title,
		Options:     []Choice{{Value: "1", Label: "Yes"}, {Value: "0", Label: "No"}},
		Values:      map[string]interface{}{"1": true, "0": false},
	}
}

// YearRangeFilter buckets a timestamp column by calendar year (UTC).
type YearRangeFilter struct {
	Field       string
	ParamName   string
	FilterTitle string
	Years       []int
}

func (f YearRangeFilter) Param() string { return f.ParamName }
func (f YearRangeFilter) Title() string { return f.FilterTitle }

func (f YearRangeFilter) Choices() []Choice {
	out := make([]Choice, 0, len(f.Years))
	for _, y := range f.Years {
		s := strconv.Itoa(y)
		out = append(out, Choice{Value: s, Label: s})
	}
	return out
}

func (f YearRangeFilter) Apply(db *gorm.DB, value string) *gorm.DB {
	year, err := strconv.Atoi(value)
	if err != nil || !f.offers(year) {
		return db
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	return db.Where(fmt.Sprintf("%s >= ? AND %s < ?", f.Field, f.Field), from, to)
}

func (f YearRangeFilter) offers(year int) bool {
	for _, y := range f.Years {
		if y == year {
			return true
		}
	}
	return false
}
