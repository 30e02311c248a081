package filter

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a JSON numeric bound that also accepts numeric strings. Values that
// are null, empty or not a number are treated as absent.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(formatNumber(n.Value)), nil
}

// Payload is the JSON form of a filter state. Every field is optional; absent
// fields keep the value of the state the payload is applied to.
type Payload struct {
	MinPrice *Number `json:"minPrice,omitempty"`
	MaxPrice *Number `json:"maxPrice,omitempty"`
	MinSize  *Number `json:"minSize,omitempty"`
	MaxSize  *Number `json:"maxSize,omitempty"`
	MinRooms *Number `json:"minRooms,omitempty"`
	MaxRooms *Number `json:"maxRooms,omitempty"`

	Neighborhoods []string `json:"neighborhoods,omitempty"`
	Balcony       []string `json:"balcony,omitempty"`
	Parking       []string `json:"parking,omitempty"`
	Furnished     []string `json:"furnished,omitempty"`
	Agent         []string `json:"agent,omitempty"`

	IncludeZeroPrice *bool `json:"includeZeroPrice,omitempty"`
	IncludeZeroSize  *bool `json:"includeZeroSize,omitempty"`
	IncludeZeroRooms *bool `json:"includeZeroRooms,omitempty"`
}

// State applies the payload to the default state.
func (p Payload) State() State {
	return p.ApplyTo(Default())
}

// ApplyTo overrides the fields present in the payload and normalizes the result.
// A present neighborhoods list replaces the current one even when empty.
func (p Payload) ApplyTo(s State) State {
	applyNumber(&s.MinPrice, p.MinPrice)
	applyNumber(&s.MaxPrice, p.MaxPrice)
	applyNumber(&s.MinSize, p.MinSize)
	applyNumber(&s.MaxSize, p.MaxSize)
	applyNumber(&s.MinRooms, p.MinRooms)
	applyNumber(&s.MaxRooms, p.MaxRooms)

	if p.Neighborhoods != nil {
		s.Neighborhoods = p.Neighborhoods
	}
	if p.Balcony != nil {
		s.Balcony = p.Balcony
	}
	if p.Parking != nil {
		s.Parking = p.Parking
	}
	if p.Furnished != nil {
		s.Furnished = p.Furnished
	}
	if p.Agent != nil {
		s.Agent = p.Agent
	}

	if p.IncludeZeroPrice != nil {
		s.IncludeZeroPrice = *p.IncludeZeroPrice
	}
	if p.IncludeZeroSize != nil {
		s.IncludeZeroSize = *p.IncludeZeroSize
	}
	if p.IncludeZeroRooms != nil {
		s.IncludeZeroRooms = *p.IncludeZeroRooms
	}
	return s.Normalize()
}

// A null or malformed bound resets the field to its default.
func applyNumber(dst *float64, n *Number) {
	if n == nil {
		return
	}
	if !n.Valid {
		*dst = 0
		return
	}
	*dst = n.Value
}

// NewPayload is the inverse of Payload.State for a normalized state.
func NewPayload(s State) Payload {
	s = s.Normalize()
	num := func(v float64) *Number { return &Number{Value: v, Valid: true} }
	flag := func(v bool) *bool { return &v }
	return Payload{
		MinPrice:         num(s.MinPrice),
		MaxPrice:         num(s.MaxPrice),
		MinSize:          num(s.MinSize),
		MaxSize:          num(s.MaxSize),
		MinRooms:         num(s.MinRooms),
		MaxRooms:         num(s.MaxRooms),
		Neighborhoods:    s.Neighborhoods,
		Balcony:          s.Balcony,
		Parking:          s.Parking,
		Furnished:        s.Furnished,
		Agent:            s.Agent,
		IncludeZeroPrice: flag(s.IncludeZeroPrice),
		IncludeZeroSize:  flag(s.IncludeZeroSize),
		IncludeZeroRooms: flag(s.IncludeZeroRooms),
	}
}
