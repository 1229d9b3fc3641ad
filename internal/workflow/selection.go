package workflow

import (
	"fmt"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/validation"
)

const eventsField = "selected_events"

// EventLookup resolves catalog events
type EventLookup interface {
	Event(id string) *models.Event
}

// ValidateRange requires 1..max known events
func ValidateRange(events EventLookup, ids []string, max int) validation.FieldErrors {
	if len(ids) < 1 || len(ids) > max {
		return validation.FieldErrors{eventsField: fmt.Sprintf("select between 1 and %d events", max)}
	}
	return validateKnown(events, ids)
}

// ValidateBalanced requires exactly one technical and one non-technical event
func ValidateBalanced(events EventLookup, ids []string) validation.FieldErrors {
	if errs := validateKnown(events, ids); errs != nil {
		return errs
	}

	var technical, nonTechnical int
	for _, id := range ids {
		switch events.Event(id).Category {
		case models.CategoryTechnical:
			technical++
		case models.CategoryNonTechnical:
			nonTechnical++
		}
	}

	if len(ids) != 2 || technical != 1 || nonTechnical != 1 {
		return validation.FieldErrors{eventsField: "select exactly 1 technical and 1 non-technical event"}
	}
	return nil
}

// ValidateOpen rejects events an admin closed for registration
func ValidateOpen(s models.SiteSettings, ids []string) validation.FieldErrors {
	for _, id := range ids {
		if s.EventClosed(id) {
			return validation.FieldErrors{eventsField: fmt.Sprintf("registration for %s is closed", id)}
		}
	}
	return nil
}

func validateKnown(events EventLookup, ids []string) validation.FieldErrors {
	for _, id := range ids {
		if events.Event(id) == nil {
			return validation.FieldErrors{eventsField: fmt.Sprintf("unknown event: %s", id)}
		}
	}
	return nil
}

// merge combines field error sets; the first message for a field wins
func merge(sets ...validation.FieldErrors) validation.FieldErrors {
	var out validation.FieldErrors
	for _, set := range sets {
		for k, v := range set {
			if out == nil {
				out = validation.FieldErrors{}
			}
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}
