package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// File names looked up in the catalog directory
const (
	EventsFile       = "events.yaml"
	CoordinatorsFile = "coordinators.yaml"
	DepartmentsFile  = "departments.yaml"
)

// Loader manages loading and caching of the static symposium catalog
type Loader struct {
	mu           sync.RWMutex
	events       map[string]*models.Event
	order        []string
	coordinators []models.Coordinator
	departments  []models.Department
}

// NewLoader creates an empty catalog
func NewLoader() *Loader {
	return &Loader{
		events: make(map[string]*models.Event),
	}
}

// LoadFromDir loads events, coordinators and departments from a directory.
// Events are required; the other two files are optional.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)

	if err := l.LoadEvents(filepath.Join(dir, EventsFile)); err != nil {
		return err
	}

	if err := l.loadCoordinators(filepath.Join(dir, CoordinatorsFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load coordinators", "error", err)
	}

	if err := l.loadDepartments(filepath.Join(dir, DepartmentsFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load departments", "error", err)
	}

	l.mu.RLock()
	slog.Info("catalog loaded",
		"events", len(l.events),
		"coordinators", len(l.coordinators),
		"departments", len(l.departments),
	)
	l.mu.RUnlock()

	return nil
}

// LoadEvents loads the event list from a YAML file
func (l *Loader) LoadEvents(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read events file: %w", err)
	}

	var ef eventsFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return fmt.Errorf("failed to parse events YAML: %w", err)
	}

	events := make(map[string]*models.Event, len(ef.Events))
	order := make([]string, 0, len(ef.Events))
	for i := range ef.Events {
		ev := ef.Events[i]
		if ev.ID == "" {
			return fmt.Errorf("event #%d: id is required", i+1)
		}
		if ev.Title == "" {
			return fmt.Errorf("event %s: title is required", ev.ID)
		}
		if !ev.Category.Valid() {
			return fmt.Errorf("event %s: invalid category %q", ev.ID, ev.Category)
		}
		if _, dup := events[ev.ID]; dup {
			return fmt.Errorf("event %s: duplicate id", ev.ID)
		}
		events[ev.ID] = &ev
		order = append(order, ev.ID)
	}

	l.mu.Lock()
	l.events = events
	l.order = order
	l.mu.Unlock()

	return nil
}

func (l *Loader) loadCoordinators(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cf coordinatorsFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse coordinators YAML: %w", err)
	}

	l.mu.Lock()
	l.coordinators = cf.Coordinators
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadDepartments(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var df departmentsFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return fmt.Errorf("failed to parse departments YAML: %w", err)
	}

	for i := range df.Departments {
		df.Departments[i].Code = strings.ToUpper(strings.TrimSpace(df.Departments[i].Code))
	}

	l.mu.Lock()
	l.departments = df.Departments
	l.mu.Unlock()
	return nil
}

// --- Accessors ---

// Event returns an event by id, or nil
func (l *Loader) Event(id string) *models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events[id]
}

// Events returns all events in file order, optionally filtered by category
func (l *Loader) Events(category models.EventCategory) []*models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Event, 0, len(l.order))
	for _, id := range l.order {
		ev := l.events[id]
		if category != "" && ev.Category != category {
			continue
		}
		result = append(result, ev)
	}
	return result
}

// Coordinators returns the coordinator directory sorted by event then name
func (l *Loader) Coordinators() []models.Coordinator {
	l.mu.RLock()
	out := append([]models.Coordinator(nil), l.coordinators...)
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventID != out[j].EventID {
			return out[i].EventID < out[j].EventID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Departments returns the fixed department list
func (l *Loader) Departments() []models.Department {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Department(nil), l.departments...)
}

// DepartmentCodes returns the department codes accepted by inter-college forms
func (l *Loader) DepartmentCodes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	codes := make([]string, 0, len(l.departments))
	for _, d := range l.departments {
		codes = append(codes, d.Code)
	}
	return codes
}

// --- YAML file structs ---

type eventsFile struct {
	Events []models.Event `yaml:"events"`
}

type coordinatorsFile struct {
	Coordinators []models.Coordinator `yaml:"coordinators"`
}

type departmentsFile struct {
	Departments []models.Department `yaml:"departments"`
}
