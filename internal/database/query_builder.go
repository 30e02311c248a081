package database

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"thefinder/server/internal/filter"
)

const (
	// RecencyWindow bounds how old a listing may be to appear in search results.
	RecencyWindow = 14 * 24 * time.Hour

	// SearchLimit caps the number of listings returned by a search.
	SearchLimit = 100
)

// ListingQuery is the WHERE clause of a listing search. Column names are fixed;
// every user supplied value travels as a bound argument.
type ListingQuery struct {
	conditions []string
	args       []interface{}
}

// NewListingQuery builds the search conditions for a filter state.
func NewListingQuery(state filter.State, now time.Time) *ListingQuery {
	state = state.Normalize()

	q := &ListingQuery{}
	q.addCondition("is_for_rent = ?", true)
	q.addCondition("created_at >= ?", now.Add(-RecencyWindow))

	q.addRange("price", state.MinPrice, state.MaxPrice, state.IncludeZeroPrice)
	q.addRange("size", state.MinSize, state.MaxSize, state.IncludeZeroSize)
	q.addRange("num_rooms", state.MinRooms, state.MaxRooms, state.IncludeZeroRooms)

	q.addCategorical("balcony", state.Balcony)
	q.addCategorical("parking", state.Parking)
	q.addCategorical("furnished", state.Furnished)
	q.addCategorical("agent", state.Agent)

	if len(state.Neighborhoods) > 0 {
		q.addCondition("neighborhood IN ?", state.Neighborhoods)
	}
	return q
}

func (q *ListingQuery) addCondition(condition string, args ...interface{}) {
	q.conditions = append(q.conditions, condition)
	q.args = append(q.args, args...)
}

// addRange filters a numeric column to [min, max]. A 0 or NULL means the value
// is unknown: such rows are matched only through includeZero, never by the range.
func (q *ListingQuery) addRange(column string, min, max float64, includeZero bool) {
	value := "COALESCE(" + column + ", 0)"
	inRange := value + " BETWEEN ? AND ? AND " + value + " <> 0"
	if includeZero {
		q.addCondition("(("+inRange+") OR "+value+" = 0)", min, max)
		return
	}
	q.addCondition("("+inRange+")", min, max)
}

// addCategorical adds nothing when the selection is unconstrained, so rows
// holding values outside the known options are matched too.
func (q *ListingQuery) addCategorical(column string, selected []string) {
	if filter.IsUnconstrained(selected) {
		return
	}
	q.addCondition(column+" IN ?", selected)
}

// Build returns the WHERE clause and its arguments.
func (q *ListingQuery) Build() (string, []interface{}) {
	return strings.Join(q.conditions, " AND "), q.args
}

// Apply scopes a gorm query to the search conditions, newest first.
func (q *ListingQuery) Apply(db *gorm.DB) *gorm.DB {
	where, args := q.Build()
	return db.Where(where, args...).Order("created_at DESC")
}
