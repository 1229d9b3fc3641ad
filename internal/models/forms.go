package models

import (
	"strings"
)

// OuterForm is the registration form for students of other colleges
type OuterForm struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"required,phone10"`
	Year        string `json:"year" validate:"required,oneof=1 2 3 4"`
	CollegeName string `json:"college_name" validate:"required,min=2,max=150"`
	Department  string `json:"department" validate:"required,min=2,max=100"`
}

// Normalize trims whitespace and lower-cases the email
func (f *OuterForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Year = strings.TrimSpace(f.Year)
	f.CollegeName = strings.TrimSpace(f.CollegeName)
	f.Department = strings.TrimSpace(f.Department)
}

// Registration builds the record to insert once the payment proof URL is known
func (f OuterForm) Registration(proofURL string) *OuterRegistration {
	return &OuterRegistration{
		Name:                 f.Name,
		Email:                f.Email,
		Phone:                f.Phone,
		Year:                 f.Year,
		CollegeName:          f.CollegeName,
		Department:           f.Department,
		PaymentScreenshotURL: proofURL,
	}
}

// InterForm is the registration form for students of the host college
type InterForm struct {
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Email          string   `json:"email" validate:"required,email,max=254"`
	Phone          string   `json:"phone" validate:"required,phone10"`
	Year           string   `json:"year" validate:"required,oneof=1 2 3 4"`
	RegisterNumber string   `json:"register_number" validate:"required,regno"`
	Department     string   `json:"department" validate:"required,department"`
	SelectedEvents []string `json:"selected_events"`
}

// Normalize trims whitespace, lower-cases the email and upper-cases codes
func (f *InterForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Year = strings.TrimSpace(f.Year)
	f.RegisterNumber = strings.ToUpper(strings.TrimSpace(f.RegisterNumber))
	f.Department = strings.ToUpper(strings.TrimSpace(f.Department))
	f.SelectedEvents = normalizeEvents(f.SelectedEvents)
}

// Registration builds the record to insert
func (f InterForm) Registration() *InterRegistration {
	return &InterRegistration{
		Name:           f.Name,
		Email:          f.Email,
		Phone:          f.Phone,
		Year:           f.Year,
		RegisterNumber: f.RegisterNumber,
		Department:     f.Department,
		SelectedEvents: f.SelectedEvents,
	}
}

// DepartmentForm is the registration form for students of the organising department
type DepartmentForm struct {
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Email          string   `json:"email" validate:"required,email,max=254"`
	Phone          string   `json:"phone" validate:"required,phone10"`
	Year           string   `json:"year" validate:"required,oneof=1 2 3 4"`
	RegisterNumber string   `json:"register_number" validate:"required,regno"`
	Section        string   `json:"section" validate:"required,oneof=A B C D E"`
	SelectedEvents []string `json:"selected_events"`
}

// Normalize trims whitespace, lower-cases the email and upper-cases codes
func (f *DepartmentForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Year = strings.TrimSpace(f.Year)
	f.RegisterNumber = strings.ToUpper(strings.TrimSpace(f.RegisterNumber))
	f.Section = strings.ToUpper(strings.TrimSpace(f.Section))
	f.SelectedEvents = normalizeEvents(f.SelectedEvents)
}

// Registration builds the record to insert
func (f DepartmentForm) Registration() *DepartmentRegistration {
	return &DepartmentRegistration{
		Name:           f.Name,
		Email:          f.Email,
		Phone:          f.Phone,
		Year:           f.Year,
		RegisterNumber: f.RegisterNumber,
		Section:        f.Section,
		SelectedEvents: f.SelectedEvents,
	}
}

// UpdateEventsRequest is the self-service request that replaces a registrant's events
type UpdateEventsRequest struct {
	Email          string   `json:"email"`
	SelectedEvents []string `json:"selected_events"`
	Confirm        bool     `json:"confirm"`
}

// ManualEntry is an operator-entered registration for any variant.
// Fields that do not apply to the chosen variant are ignored.
type ManualEntry struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	Year                 string   `json:"year"`
	CollegeName          string   `json:"college_name,omitempty"`
	Department           string   `json:"department,omitempty"`
	RegisterNumber       string   `json:"register_number,omitempty"`
	Section              string   `json:"section,omitempty"`
	SelectedEvents       []string `json:"selected_events,omitempty"`
	PaymentScreenshotURL string   `json:"payment_screenshot_url,omitempty"`
	PaymentVerified      bool     `json:"payment_verified"`
}

// OuterForm projects the entry onto the outer form
func (e ManualEntry) OuterForm() OuterForm {
	return OuterForm{Name: e.Name, Email: e.Email, Phone: e.Phone, Year: e.Year, CollegeName: e.CollegeName, Department: e.Department}
}

// InterForm projects the entry onto the inter-college form
func (e ManualEntry) InterForm() InterForm {
	return InterForm{Name: e.Name, Email: e.Email, Phone: e.Phone, Year: e.Year, RegisterNumber: e.RegisterNumber, Department: e.Department, SelectedEvents: e.SelectedEvents}
}

// DepartmentForm projects the entry onto the department form
func (e ManualEntry) DepartmentForm() DepartmentForm {
	return DepartmentForm{Name: e.Name, Email: e.Email, Phone: e.Phone, Year: e.Year, RegisterNumber: e.RegisterNumber, Section: e.Section, SelectedEvents: e.SelectedEvents}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeEvents trims ids and drops blanks and repeats, keeping order
func normalizeEvents(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// RegistrationPatch is an operator edit of an existing registration. Nil fields are unchanged.
type RegistrationPatch struct {
	Name                 *string  `json:"name,omitempty"`
	Email                *string  `json:"email,omitempty"`
	Phone                *string  `json:"phone,omitempty"`
	Year                 *string  `json:"year,omitempty"`
	CollegeName          *string  `json:"college_name,omitempty"`
	Department           *string  `json:"department,omitempty"`
	RegisterNumber       *string  `json:"register_number,omitempty"`
	Section              *string  `json:"section,omitempty"`
	SelectedEvents       []string `json:"selected_events,omitempty"`
	PaymentScreenshotURL *string  `json:"payment_screenshot_url,omitempty"`
}

// ApplyOuter overlays the patch on an outer form
func (p RegistrationPatch) ApplyOuter(f *OuterForm) {
	set(&f.Name, p.Name)
	set(&f.Email, p.Email)
	set(&f.Phone, p.Phone)
	set(&f.Year, p.Year)
	set(&f.CollegeName, p.CollegeName)
	set(&f.Department, p.Department)
}

// ApplyInter overlays the patch on an inter-college form
func (p RegistrationPatch) ApplyInter(f *InterForm) {
	set(&f.Name, p.Name)
	set(&f.Email, p.Email)
	set(&f.Phone, p.Phone)
	set(&f.Year, p.Year)
	set(&f.RegisterNumber, p.RegisterNumber)
	set(&f.Department, p.Department)
	if p.SelectedEvents != nil {
		f.SelectedEvents = p.SelectedEvents
	}
}

// ApplyDepartment overlays the patch on a department form
func (p RegistrationPatch) ApplyDepartment(f *DepartmentForm) {
	set(&f.Name, p.Name)
	set(&f.Email, p.Email)
	set(&f.Phone, p.Phone)
	set(&f.Year, p.Year)
	set(&f.RegisterNumber, p.RegisterNumber)
	set(&f.Section, p.Section)
	if p.SelectedEvents != nil {
		f.SelectedEvents = p.SelectedEvents
	}
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Form reconstructs the form an outer registration was created from
func (r *OuterRegistration) Form() OuterForm {
	return OuterForm{Name: r.Name, Email: r.Email, Phone: r.Phone, Year: r.Year, CollegeName: r.CollegeName, Department: r.Department}
}

// Form reconstructs the form an inter-college registration was created from
func (r *InterRegistration) Form() InterForm {
	return InterForm{Name: r.Name, Email: r.Email, Phone: r.Phone, Year: r.Year, RegisterNumber: r.RegisterNumber, Department: r.Department, SelectedEvents: r.SelectedEvents}
}

// Form reconstructs the form a department registration was created from
func (r *DepartmentRegistration) Form() DepartmentForm {
	return DepartmentForm{Name: r.Name, Email: r.Email, Phone: r.Phone, Year: r.Year, RegisterNumber: r.RegisterNumber, Section: r.Section, SelectedEvents: r.SelectedEvents}
}
