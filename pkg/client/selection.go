package client

import "slices"

// Selection is the in-progress event choice of a registration form, bounded
// by the variant's maximum.
type Selection struct {
	max int
	ids []string
}

// NewSelection starts a selection; initial ids beyond max are dropped
func NewSelection(max int, initial ...string) *Selection {
	s := &Selection{max: max}
	for _, id := range initial {
		s.Toggle(id)
	}
	return s
}

// Toggle adds or removes id. Adding when already at the cap is ignored and
// reported through the return value.
func (s *Selection) Toggle(id string) (atCapacity bool) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	if len(s.ids) >= s.max {
		return true
	}
	s.ids = append(s.ids, id)
	return false
}

// AtCapacity reports whether no more events can be added
func (s *Selection) AtCapacity() bool {
	return len(s.ids) >= s.max
}

// IDs returns a copy of the selected ids in selection order
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}
