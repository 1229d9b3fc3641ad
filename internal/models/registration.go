package models

import (
	"fmt"
	"strings"
	"time"
)

// Variant identifies one of the three registration collections
type Variant string

const (
	VariantOuter      Variant = "outer"
	VariantInter      Variant = "inter"
	VariantDepartment Variant = "department"
)

// Variants in the order the admin dashboard and lookups visit them
var Variants = []Variant{VariantOuter, VariantInter, VariantDepartment}

// ParseVariant validates a variant name from a URL or query string
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantOuter, VariantInter, VariantDepartment:
		return v, nil
	}
	return "", fmt.Errorf("unknown registration variant: %q", s)
}

// OuterRegistration is a paid registration from another college
type OuterRegistration struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Year                 string    `json:"year"`
	CollegeName          string    `json:"college_name"`
	Department           string    `json:"department"`
	PaymentScreenshotURL string    `json:"payment_screenshot_url"`
	PaymentVerified      bool      `json:"payment_verified"`
	EntryConfirmed       bool      `json:"entry_confirmed"`
	CreatedAt            time.Time `json:"created_at"`
}

// InterRegistration is a registration from a student of the host college
type InterRegistration struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Year                 string    `json:"year"`
	RegisterNumber       string    `json:"register_number"`
	Department           string    `json:"department"`
	SelectedEvents       []string  `json:"selected_events"`
	PaymentScreenshotURL string    `json:"payment_screenshot_url,omitempty"`
	PaymentVerified      bool      `json:"payment_verified"`
	EntryConfirmed       bool      `json:"entry_confirmed"`
	CreatedAt            time.Time `json:"created_at"`
}

// DepartmentRegistration is a free registration from the organising department
type DepartmentRegistration struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Year           string    `json:"year"`
	RegisterNumber string    `json:"register_number"`
	Section        string    `json:"section"`
	SelectedEvents []string  `json:"selected_events"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationSummary is the variant-independent projection used by admin views and lookups
type RegistrationSummary struct {
	Variant              Variant   `json:"variant"`
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Year                 string    `json:"year"`
	RegisterNumber       string    `json:"register_number,omitempty"`
	CollegeName          string    `json:"college_name,omitempty"`
	Department           string    `json:"department,omitempty"`
	Section              string    `json:"section,omitempty"`
	SelectedEvents       []string  `json:"selected_events,omitempty"`
	PaymentScreenshotURL string    `json:"payment_screenshot_url,omitempty"`
	PaymentVerified      bool      `json:"payment_verified"`
	EntryConfirmed       bool      `json:"entry_confirmed"`
	CreatedAt            time.Time `json:"created_at"`
}

// Summary projects an outer registration
func (r *OuterRegistration) Summary() RegistrationSummary {
	return RegistrationSummary{
		Variant:              VariantOuter,
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		Year:                 r.Year,
		CollegeName:          r.CollegeName,
		Department:           r.Department,
		PaymentScreenshotURL: r.PaymentScreenshotURL,
		PaymentVerified:      r.PaymentVerified,
		EntryConfirmed:       r.EntryConfirmed,
		CreatedAt:            r.CreatedAt,
	}
}

// Summary projects an inter-college registration
func (r *InterRegistration) Summary() RegistrationSummary {
	return RegistrationSummary{
		Variant:              VariantInter,
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		Year:                 r.Year,
		RegisterNumber:       r.RegisterNumber,
		Department:           r.Department,
		SelectedEvents:       r.SelectedEvents,
		PaymentScreenshotURL: r.PaymentScreenshotURL,
		PaymentVerified:      r.PaymentVerified,
		EntryConfirmed:       r.EntryConfirmed,
		CreatedAt:            r.CreatedAt,
	}
}

// Summary projects a department registration. Department entries are free,
// so they always count as paid and never as entered.
func (r *DepartmentRegistration) Summary() RegistrationSummary {
	return RegistrationSummary{
		Variant:         VariantDepartment,
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Year:            r.Year,
		RegisterNumber:  r.RegisterNumber,
		Section:         r.Section,
		SelectedEvents:  r.SelectedEvents,
		PaymentVerified: true,
		CreatedAt:       r.CreatedAt,
	}
}

// Tab partitions registrations on the admin dashboard
type Tab string

const (
	TabPending  Tab = "pending"
	TabVerified Tab = "verified"
	TabEntered  Tab = "entered"
)

// ParseTab validates a tab name; empty means pending
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TabPending, nil
	case TabPending, TabVerified, TabEntered:
		return t, nil
	}
	return "", fmt.Errorf("unknown tab: %q", s)
}

// Tab returns the dashboard tab a registration belongs to
func (s RegistrationSummary) Tab() Tab {
	switch {
	case s.EntryConfirmed:
		return TabEntered
	case s.PaymentVerified:
		return TabVerified
	default:
		return TabPending
	}
}

// Matches reports whether the free-text query occurs in name, email, phone or register number
func (s RegistrationSummary) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{s.Name, s.Email, s.Phone, s.RegisterNumber} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
