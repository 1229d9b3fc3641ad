package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/symposium-registry/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EventsFile, `
events:
  - id: paper-presentation
    title: Paper Presentation
    category: technical
    has_cash_prize: true
  - id: treasure-hunt
    title: Treasure Hunt
    category: non-technical
  - id: code-debugging
    title: Code Debugging
    category: technical
    is_pre_registration: true
`)
	writeFile(t, dir, CoordinatorsFile, `
coordinators:
  - name: Zara
    role: Student Coordinator
    event_id: treasure-hunt
  - name: Arun
    role: Student Coordinator
    event_id: paper-presentation
`)
	writeFile(t, dir, DepartmentsFile, `
departments:
  - code: cse
    name: Computer Science and Engineering
  - code: ECE
    name: Electronics and Communication Engineering
`)

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(dir))

	all := loader.Events("")
	require.Len(t, all, 3)
	assert.Equal(t, "paper-presentation", all[0].ID)

	tech := loader.Events(models.CategoryTechnical)
	assert.Len(t, tech, 2)

	ev := loader.Event("code-debugging")
	require.NotNil(t, ev)
	assert.True(t, ev.IsPreRegistration)
	assert.Nil(t, loader.Event("robo-war"))

	coords := loader.Coordinators()
	require.Len(t, coords, 2)
	assert.Equal(t, "Arun", coords[0].Name)

	assert.Equal(t, []string{"CSE", "ECE"}, loader.DepartmentCodes())
}

func TestLoadFromDirOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EventsFile, "events:\n  - id: quiz\n    title: Quiz\n    category: non-technical\n")

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(dir))
	assert.Empty(t, loader.Coordinators())
	assert.Empty(t, loader.DepartmentCodes())
}

func TestLoadEventsRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"missing id":    "events:\n  - title: Quiz\n    category: technical\n",
		"bad category":  "events:\n  - id: quiz\n    title: Quiz\n    category: sports\n",
		"duplicate id":  "events:\n  - {id: quiz, title: Quiz, category: technical}\n  - {id: quiz, title: Quiz 2, category: technical}\n",
		"not yaml":      "events: [",
		"missing title": "events:\n  - id: quiz\n    category: technical\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, EventsFile, content)
			assert.Error(t, NewLoader().LoadFromDir(dir))
		})
	}
}

func TestLoadShippedCatalog(t *testing.T) {
	dir := filepath.Join("..", "..", "catalog")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("catalog directory not found, skipping")
	}

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(dir))

	assert.NotEmpty(t, loader.Events(models.CategoryTechnical))
	assert.NotEmpty(t, loader.Events(models.CategoryNonTechnical))
	assert.Contains(t, loader.DepartmentCodes(), "CSE")
}
