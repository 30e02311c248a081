package filter

import "fmt"

// Error messages recorded per field.
const (
	MsgLastOption      = "at least one option must remain selected"
	MsgNoNeighborhoods = "select at least one neighborhood"
	msgUnknownField    = "unknown filter field"
)

// SelectionError is a rejected edit or validation failure scoped to one field.
type SelectionError struct {
	Field   Field
	Message string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CheckState is the tri-state of a city checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Indeterminate
	Checked
)

func (c CheckState) String() string {
	switch c {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

func (c CheckState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CheckState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "checked":
		*c = Checked
	case "indeterminate":
		*c = Indeterminate
	case "unchecked":
		*c = Unchecked
	default:
		return fmt.Errorf("unknown check state %q", text)
	}
	return nil
}

// Catalog resolves the neighborhoods of a city.
type Catalog interface {
	CityNames() []string
	Neighborhoods(city string) []string
}

// Editor applies interactive edits to a filter state and tracks field errors.
type Editor struct {
	state   State
	catalog Catalog
	errors  map[Field]string
}

func NewEditor(state State, catalog Catalog) *Editor {
	return &Editor{
		state:   state.Normalize(),
		catalog: catalog,
		errors:  make(map[Field]string),
	}
}

// State returns a copy of the current state.
func (e *Editor) State() State {
	s := e.state
	s.Neighborhoods = append([]string{}, s.Neighborhoods...)
	for _, f := range CategoricalFields {
		s.setSelected(f, append([]string{}, s.Selected(f)...))
	}
	return s
}

// Errors returns the current field-scoped errors.
func (e *Editor) Errors() map[Field]string {
	out := make(map[Field]string, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// ToggleOption flips one option of a categorical field. Deselecting the last
// selected option is rejected and leaves the state unchanged.
func (e *Editor) ToggleOption(field Field, option string) error {
	if !field.IsCategorical() {
		return &SelectionError{Field: field, Message: msgUnknownField}
	}
	current := e.state.Selected(field)
	if contains(current, option) {
		if len(current) == 1 {
			e.errors[field] = MsgLastOption
			return &SelectionError{Field: field, Message: MsgLastOption}
		}
		e.state.setSelected(field, without(current, option))
	} else {
		e.state.setSelected(field, append(append([]string{}, current...), option))
	}
	delete(e.errors, field)
	return nil
}

func (e *Editor) ToggleNeighborhood(neighborhood string) {
	if contains(e.state.Neighborhoods, neighborhood) {
		e.state.Neighborhoods = without(e.state.Neighborhoods, neighborhood)
	} else {
		e.state.Neighborhoods = append(append([]string{}, e.state.Neighborhoods...), neighborhood)
	}
	e.clearNeighborhoodError()
}

// ToggleCity deselects every neighborhood of the city when all are selected and
// selects all of them otherwise.
func (e *Editor) ToggleCity(city string) {
	cityNeighborhoods := e.catalog.Neighborhoods(city)
	if len(cityNeighborhoods) == 0 {
		return
	}
	inCity := make(map[string]struct{}, len(cityNeighborhoods))
	for _, n := range cityNeighborhoods {
		inCity[n] = struct{}{}
	}
	others := make([]string, 0, len(e.state.Neighborhoods))
	for _, n := range e.state.Neighborhoods {
		if _, ok := inCity[n]; !ok {
			others = append(others, n)
		}
	}

	if e.CityState(city) == Checked {
		e.state.Neighborhoods = others
	} else {
		e.state.Neighborhoods = append(others, cityNeighborhoods...)
	}
	e.clearNeighborhoodError()
}

// CityState reports how many of the city's neighborhoods are selected.
func (e *Editor) CityState(city string) CheckState {
	return CityState(e.state.Neighborhoods, e.catalog.Neighborhoods(city))
}

// CityState compares a neighborhood selection against one city's neighborhoods.
func CityState(selected, cityNeighborhoods []string) CheckState {
	if len(cityNeighborhoods) == 0 {
		return Unchecked
	}
	count := 0
	for _, n := range cityNeighborhoods {
		if contains(selected, n) {
			count++
		}
	}
	switch count {
	case 0:
		return Unchecked
	case len(cityNeighborhoods):
		return Checked
	default:
		return Indeterminate
	}
}

// SelectedCities lists the cities with at least one selected neighborhood.
func (e *Editor) SelectedCities() []string {
	var cities []string
	for _, city := range e.catalog.CityNames() {
		if e.CityState(city) != Unchecked {
			cities = append(cities, city)
		}
	}
	return cities
}

// ValidateSearch accepts any state; an empty neighborhood list searches everywhere.
func (e *Editor) ValidateSearch() error {
	return nil
}

// ValidateSubscription requires at least one neighborhood.
func (e *Editor) ValidateSubscription() error {
	if err := ValidateSubscription(e.state); err != nil {
		e.errors[FieldNeighborhoods] = MsgNoNeighborhoods
		return err
	}
	return nil
}

// ValidateSubscription checks a state about to be saved as a subscription.
func ValidateSubscription(s State) error {
	if len(dedupe(s.Neighborhoods)) == 0 {
		return &SelectionError{Field: FieldNeighborhoods, Message: MsgNoNeighborhoods}
	}
	return nil
}

func (e *Editor) clearNeighborhoodError() {
	if len(e.state.Neighborhoods) > 0 {
		delete(e.errors, FieldNeighborhoods)
	}
}
