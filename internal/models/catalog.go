package models

// EventCategory separates technical from non-technical events
type EventCategory string

const (
	CategoryTechnical    EventCategory = "technical"
	CategoryNonTechnical EventCategory = "non-technical"
)

// Valid reports whether the category is one of the known values
func (c EventCategory) Valid() bool {
	return c == CategoryTechnical || c == CategoryNonTechnical
}

// Event is a static catalog entry. It is never mutated by the registration flows.
type Event struct {
	ID                string        `yaml:"id" json:"id"`
	Title             string        `yaml:"title" json:"title"`
	Category          EventCategory `yaml:"category" json:"category"`
	Description       string        `yaml:"description" json:"description,omitempty"`
	HasCashPrize      bool          `yaml:"has_cash_prize" json:"has_cash_prize"`
	IsPreRegistration bool          `yaml:"is_pre_registration" json:"is_pre_registration"`
	Capacity          int           `yaml:"capacity" json:"capacity,omitempty"`
	TeamSize          string        `yaml:"team_size" json:"team_size,omitempty"`
	Venue             string        `yaml:"venue" json:"venue,omitempty"`
	Day               int           `yaml:"day" json:"day,omitempty"`
}

// Coordinator is a contact person listed in the coordinators directory
type Coordinator struct {
	Name    string `yaml:"name" json:"name"`
	Role    string `yaml:"role" json:"role"`
	Phone   string `yaml:"phone" json:"phone,omitempty"`
	Email   string `yaml:"email" json:"email,omitempty"`
	EventID string `yaml:"event_id" json:"event_id,omitempty"`
}

// Department is one entry of the fixed department list used by inter-college forms
type Department struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}
