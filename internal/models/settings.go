package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// Setting keys as stored in the site_settings table
const (
	SettingMaintenanceMode          = "maintenance_mode"
	SettingRegistrationOpen         = "registration_open"
	SettingOuterCollegeLimit        = "outer_college_limit"
	SettingInterCollegeLimit        = "inter_college_limit"
	SettingDepartmentLimit          = "department_limit"
	SettingRegistrationClosedEvents = "registration_closed_events"
)

// SettingKeys lists every key the service understands
var SettingKeys = []string{
	SettingMaintenanceMode,
	SettingRegistrationOpen,
	SettingOuterCollegeLimit,
	SettingInterCollegeLimit,
	SettingDepartmentLimit,
	SettingRegistrationClosedEvents,
}

// SettingRow is one raw row of the site_settings table
type SettingRow struct {
	Key   string
	Value json.RawMessage
}

// SiteSettings is the site-wide, admin-controlled configuration snapshot.
// A snapshot may be stale relative to the table; gating decisions made from it are best-effort.
type SiteSettings struct {
	MaintenanceMode          bool            `json:"maintenance_mode"`
	RegistrationOpen         bool            `json:"registration_open"`
	OuterCollegeLimit        int             `json:"outer_college_limit"`
	InterCollegeLimit        int             `json:"inter_college_limit"`
	DepartmentLimit          int             `json:"department_limit"`
	RegistrationClosedEvents map[string]bool `json:"registration_closed_events"`
}

// Clone returns a deep copy
func (s SiteSettings) Clone() SiteSettings {
	out := s
	out.RegistrationClosedEvents = maps.Clone(s.RegistrationClosedEvents)
	if out.RegistrationClosedEvents == nil {
		out.RegistrationClosedEvents = map[string]bool{}
	}
	return out
}

// LimitFor returns the capacity ceiling of a registration variant
func (s SiteSettings) LimitFor(v Variant) int {
	switch v {
	case VariantOuter:
		return s.OuterCollegeLimit
	case VariantInter:
		return s.InterCollegeLimit
	case VariantDepartment:
		return s.DepartmentLimit
	}
	return 0
}

// EventClosed reports whether registration for a single event was closed by an admin
func (s SiteSettings) EventClosed(eventID string) bool {
	return s.RegistrationClosedEvents[eventID]
}

// Apply decodes a raw value into the field identified by key.
// Unknown keys and undecodable values return an error and leave the snapshot untouched.
func (s *SiteSettings) Apply(key string, raw json.RawMessage) error {
	switch key {
	case SettingMaintenanceMode:
		return decodeInto(raw, &s.MaintenanceMode)
	case SettingRegistrationOpen:
		return decodeInto(raw, &s.RegistrationOpen)
	case SettingOuterCollegeLimit:
		return decodeLimit(raw, &s.OuterCollegeLimit)
	case SettingInterCollegeLimit:
		return decodeLimit(raw, &s.InterCollegeLimit)
	case SettingDepartmentLimit:
		return decodeLimit(raw, &s.DepartmentLimit)
	case SettingRegistrationClosedEvents:
		var m map[string]bool
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if m == nil {
			m = map[string]bool{}
		}
		s.RegistrationClosedEvents = m
		return nil
	}
	return fmt.Errorf("unknown setting: %s", key)
}

// IsSettingKey reports whether key is a known setting
func IsSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// decodeInto rejects null so a missing value never reads as false or zero
func decodeInto[T any](raw json.RawMessage, dst *T) error {
	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if v == nil {
		return errors.New("value must not be null")
	}
	*dst = *v
	return nil
}

func decodeLimit(raw json.RawMessage, dst *int) error {
	var v int
	if err := decodeInto(raw, &v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("limit must not be negative: %d", v)
	}
	*dst = v
	return nil
}
