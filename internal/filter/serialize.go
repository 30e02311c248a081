package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names.
const (
	ParamMinPrice         = "minPrice"
	ParamMaxPrice         = "maxPrice"
	ParamMinSize          = "minSize"
	ParamMaxSize          = "maxSize"
	ParamMinRooms         = "minRooms"
	ParamMaxRooms         = "maxRooms"
	ParamIncludeZeroPrice = "includeZeroPrice"
	ParamIncludeZeroSize  = "includeZeroSize"
	ParamIncludeZeroRooms = "includeZeroRooms"
)

// Decode reads a state from URL query parameters. It never fails: anything
// missing or malformed falls back to its default.
func Decode(values url.Values) State {
	s := State{
		MinPrice:         parseNumber(values.Get(ParamMinPrice)),
		MaxPrice:         parseNumber(values.Get(ParamMaxPrice)),
		MinSize:          parseNumber(values.Get(ParamMinSize)),
		MaxSize:          parseNumber(values.Get(ParamMaxSize)),
		MinRooms:         parseNumber(values.Get(ParamMinRooms)),
		MaxRooms:         parseNumber(values.Get(ParamMaxRooms)),
		Neighborhoods:    values[string(FieldNeighborhoods)],
		Balcony:          values[string(FieldBalcony)],
		Parking:          values[string(FieldParking)],
		Furnished:        values[string(FieldFurnished)],
		Agent:            values[string(FieldAgent)],
		IncludeZeroPrice: parseIncludeZero(values.Get(ParamIncludeZeroPrice)),
		IncludeZeroSize:  parseIncludeZero(values.Get(ParamIncludeZeroSize)),
		IncludeZeroRooms: parseIncludeZero(values.Get(ParamIncludeZeroRooms)),
	}
	return s.Normalize()
}

// parseNumber returns 0 for anything that is not a number; Normalize turns that
// into the field default.
func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIncludeZero(raw string) bool {
	return raw != "false"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Encode writes every field of the normalized state, the form kept in the page URL.
func (s State) Encode() url.Values {
	s = s.Normalize()
	values := s.encodeRanges()
	for _, n := range s.Neighborhoods {
		values.Add(string(FieldNeighborhoods), n)
	}
	for _, f := range CategoricalFields {
		for _, o := range s.Selected(f) {
			values.Add(string(f), o)
		}
	}
	return values
}

// APIQuery is the compact form used by the listings endpoint and by links
// shared outside the page: unconstrained categorical fields and an empty
// neighborhood list are left out. It decodes to the same state as Encode.
func (s State) APIQuery() url.Values {
	s = s.Normalize()
	values := s.encodeRanges()
	for _, n := range s.Neighborhoods {
		values.Add(string(FieldNeighborhoods), n)
	}
	for _, f := range CategoricalFields {
		selected := s.Selected(f)
		if IsUnconstrained(selected) {
			continue
		}
		for _, o := range selected {
			values.Add(string(f), o)
		}
	}
	return values
}

// QueryString is the encoded URL query of Encode.
func (s State) QueryString() string {
	return s.Encode().Encode()
}

func (s State) encodeRanges() url.Values {
	values := url.Values{}
	values.Set(ParamMinPrice, formatNumber(s.MinPrice))
	values.Set(ParamMaxPrice, formatNumber(s.MaxPrice))
	values.Set(ParamMinSize, formatNumber(s.MinSize))
	values.Set(ParamMaxSize, formatNumber(s.MaxSize))
	values.Set(ParamMinRooms, formatNumber(s.MinRooms))
	values.Set(ParamMaxRooms, formatNumber(s.MaxRooms))
	values.Set(ParamIncludeZeroPrice, strconv.FormatBool(s.IncludeZeroPrice))
	values.Set(ParamIncludeZeroSize, strconv.FormatBool(s.IncludeZeroSize))
	values.Set(ParamIncludeZeroRooms, strconv.FormatBool(s.IncludeZeroRooms))
	return values
}
