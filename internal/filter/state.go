// Package filter holds the listing filter state shared by search, subscriptions
// and saved user filters, together with its URL and JSON encodings.
package filter

import (
	"math"

	"thefinder/server/internal/models"
)

// Default numeric bounds.
const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 10000
	DefaultMinSize  = 0
	DefaultMaxSize  = 500
	DefaultMinRooms = 0
	DefaultMaxRooms = 10
)

// Field names a multi-select filter field.
type Field string

const (
	FieldBalcony       Field = "balcony"
	FieldParking       Field = "parking"
	FieldFurnished     Field = "furnished"
	FieldAgent         Field = "agent"
	FieldNeighborhoods Field = "neighborhoods"
)

// CategoricalFields are the fields whose values come from models.CategoricalOptions.
var CategoricalFields = []Field{FieldBalcony, FieldParking, FieldFurnished, FieldAgent}

func (f Field) IsCategorical() bool {
	for _, c := range CategoricalFields {
		if c == f {
			return true
		}
	}
	return false
}

// State is the complete set of constraints a user applies to the listing search.
type State struct {
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
	MinSize  float64 `json:"minSize"`
	MaxSize  float64 `json:"maxSize"`
	MinRooms float64 `json:"minRooms"`
	MaxRooms float64 `json:"maxRooms"`

	Neighborhoods []string `json:"neighborhoods"`
	Balcony       []string `json:"balcony"`
	Parking       []string `json:"parking"`
	Furnished     []string `json:"furnished"`
	Agent         []string `json:"agent"`

	IncludeZeroPrice bool `json:"includeZeroPrice"`
	IncludeZeroSize  bool `json:"includeZeroSize"`
	IncludeZeroRooms bool `json:"includeZeroRooms"`
}

// Default returns the state of a fresh search: widest ranges, every option
// selected, no neighborhood restriction, zero values included.
func Default() State {
	return State{
		MinPrice:         DefaultMinPrice,
		MaxPrice:         DefaultMaxPrice,
		MinSize:          DefaultMinSize,
		MaxSize:          DefaultMaxSize,
		MinRooms:         DefaultMinRooms,
		MaxRooms:         DefaultMaxRooms,
		Neighborhoods:    []string{},
		Balcony:          AllOptions(),
		Parking:          AllOptions(),
		Furnished:        AllOptions(),
		Agent:            AllOptions(),
		IncludeZeroPrice: true,
		IncludeZeroSize:  true,
		IncludeZeroRooms: true,
	}
}

// AllOptions returns a fresh copy of the full categorical option set.
func AllOptions() []string {
	return append([]string(nil), models.CategoricalOptions...)
}

// IsUnconstrained reports whether a categorical selection filters nothing:
// either nothing or every known option is selected.
func IsUnconstrained(selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}
	for _, o := range models.CategoricalOptions {
		if _, ok := set[o]; !ok {
			return false
		}
	}
	return true
}

// Selected returns the current selection of a multi-select field.
func (s *State) Selected(field Field) []string {
	switch field {
	case FieldBalcony:
		return s.Balcony
	case FieldParking:
		return s.Parking
	case FieldFurnished:
		return s.Furnished
	case FieldAgent:
		return s.Agent
	case FieldNeighborhoods:
		return s.Neighborhoods
	}
	return nil
}

func (s *State) setSelected(field Field, values []string) {
	switch field {
	case FieldBalcony:
		s.Balcony = values
	case FieldParking:
		s.Parking = values
	case FieldFurnished:
		s.Furnished = values
	case FieldAgent:
		s.Agent = values
	case FieldNeighborhoods:
		s.Neighborhoods = values
	}
}

// Normalize applies the defaulting rules: missing, zero or non-finite bounds take
// the default, empty categorical selections select every option, and repeated
// values are dropped. Normalize is idempotent.
func (s State) Normalize() State {
	s.MinPrice = normalizeBound(s.MinPrice, DefaultMinPrice)
	s.MaxPrice = normalizeBound(s.MaxPrice, DefaultMaxPrice)
	s.MinSize = normalizeBound(s.MinSize, DefaultMinSize)
	s.MaxSize = normalizeBound(s.MaxSize, DefaultMaxSize)
	s.MinRooms = normalizeBound(s.MinRooms, DefaultMinRooms)
	s.MaxRooms = normalizeBound(s.MaxRooms, DefaultMaxRooms)

	s.Neighborhoods = dedupe(s.Neighborhoods)
	for _, f := range CategoricalFields {
		values := dedupe(s.Selected(f))
		if len(values) == 0 {
			values = AllOptions()
		}
		s.setSelected(f, values)
	}
	return s
}

func normalizeBound(v, def float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// dedupe drops blanks and repeats, keeping first occurrences in order. The
// result is never nil.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func without(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// FromFields converts a persisted filter into a normalized state.
func FromFields(f models.FilterFields) State {
	return State{
		MinPrice:         f.MinPrice,
		MaxPrice:         f.MaxPrice,
		MinSize:          f.MinSize,
		MaxSize:          f.MaxSize,
		MinRooms:         f.MinRooms,
		MaxRooms:         f.MaxRooms,
		Neighborhoods:    f.Neighborhoods,
		Balcony:          f.Balcony,
		Parking:          f.Parking,
		Furnished:        f.Furnished,
		Agent:            f.Agent,
		IncludeZeroPrice: f.IncludeZeroPrice,
		IncludeZeroSize:  f.IncludeZeroSize,
		IncludeZeroRooms: f.IncludeZeroRooms,
	}.Normalize()
}

// Fields converts the normalized state into its persisted form.
func (s State) Fields() models.FilterFields {
	s = s.Normalize()
	return models.FilterFields{
		MinPrice:         s.MinPrice,
		MaxPrice:         s.MaxPrice,
		MinSize:          s.MinSize,
		MaxSize:          s.MaxSize,
		MinRooms:         s.MinRooms,
		MaxRooms:         s.MaxRooms,
		Neighborhoods:    s.Neighborhoods,
		Balcony:          s.Balcony,
		Parking:          s.Parking,
		Furnished:        s.Furnished,
		Agent:            s.Agent,
		IncludeZeroPrice: s.IncludeZeroPrice,
		IncludeZeroSize:  s.IncludeZeroSize,
		IncludeZeroRooms: s.IncludeZeroRooms,
	}
}
