package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"thefinder/server/internal/filter"
)

var builderNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func TestNewListingQuery_Defaults(t *testing.T) {
	where, args := NewListingQuery(filter.Default(), builderNow).Build()

	assert.Equal(t, "is_for_rent = ? AND created_at >= ?"+
		" AND ((COALESCE(price, 0) BETWEEN ? AND ? AND COALESCE(price, 0) <> 0) OR COALESCE(price, 0) = 0)"+
		" AND ((COALESCE(size, 0) BETWEEN ? AND ? AND COALESCE(size, 0) <> 0) OR COALESCE(size, 0) = 0)"+
		" AND ((COALESCE(num_rooms, 0) BETWEEN ? AND ? AND COALESCE(num_rooms, 0) <> 0) OR COALESCE(num_rooms, 0) = 0)", where)
	assert.Equal(t, []interface{}{
		true, builderNow.Add(-14 * 24 * time.Hour),
		0.0, 10000.0,
		0.0, 500.0,
		0.0, 10.0,
	}, args)
}

func TestNewListingQuery_ExcludeZero(t *testing.T) {
	s := filter.Default()
	s.IncludeZeroPrice = false
	where, _ := NewListingQuery(s, builderNow).Build()

	assert.Contains(t, where, "AND (COALESCE(price, 0) BETWEEN ? AND ? AND COALESCE(price, 0) <> 0) AND")
	assert.NotContains(t, where, "OR COALESCE(price, 0) = 0")
	assert.Contains(t, where, "OR COALESCE(size, 0) = 0")
}

func TestNewListingQuery_CategoricalUnconstrained(t *testing.T) {
	for _, field := range filter.CategoricalFields {
		t.Run(string(field), func(t *testing.T) {
			empty := filter.Default()
			full := filter.Default()
			switch field {
			case filter.FieldBalcony:
				empty.Balcony = []string{}
				full.Balcony = []string{"not mentioned", "no", "yes"}
			case filter.FieldParking:
				empty.Parking = nil
				full.Parking = []string{"yes", "no", "not mentioned"}
			case filter.FieldFurnished:
				empty.Furnished = []string{}
				full.Furnished = []string{"no", "yes", "not mentioned", "yes"}
			case filter.FieldAgent:
				empty.Agent = nil
				full.Agent = []string{"not mentioned", "yes", "no"}
			}

			emptyWhere, emptyArgs := NewListingQuery(empty, builderNow).Build()
			fullWhere, fullArgs := NewListingQuery(full, builderNow).Build()
			assert.Equal(t, emptyWhere, fullWhere)
			assert.Equal(t, emptyArgs, fullArgs)
			assert.NotContains(t, fullWhere, string(field))
		})
	}
}

func TestNewListingQuery_CategoricalSubset(t *testing.T) {
	s := filter.Default()
	s.Balcony = []string{"yes", "not mentioned"}
	s.Agent = []string{"no"}

	where, args := NewListingQuery(s, builderNow).Build()
	assert.Contains(t, where, "balcony IN ?")
	assert.Contains(t, where, "agent IN ?")
	assert.NotContains(t, where, "parking")
	assert.Contains(t, args, []string{"yes", "not mentioned"})
	assert.Contains(t, args, []string{"no"})
}

func TestNewListingQuery_Neighborhoods(t *testing.T) {
	s := filter.Default()
	where, _ := NewListingQuery(s, builderNow).Build()
	assert.NotContains(t, where, "neighborhood")

	s.Neighborhoods = []string{"פלורנטין", "יפו"}
	where, args := NewListingQuery(s, builderNow).Build()
	assert.True(t, strings.HasSuffix(where, "AND neighborhood IN ?"))
	assert.Equal(t, []string{"פלורנטין", "יפו"}, args[len(args)-1])
}

func TestNewListingQuery_ValuesAreNeverInterpolated(t *testing.T) {
	s := filter.Default()
	s.Neighborhoods = []string{"x'); DROP TABLE processed_posts; --"}
	s.Balcony = []string{"yes' OR '1'='1"}

	where, args := NewListingQuery(s, builderNow).Build()
	assert.NotContains(t, where, "DROP")
	assert.NotContains(t, where, "'")
	assert.Equal(t, strings.Count(where, "?"), len(args))
}
