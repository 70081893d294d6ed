// Package catalog holds the read-only training program: program days and
// their ordered exercise templates.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/topset/internal/models"
)

//go:embed program.yaml
var defaultProgram []byte

// ErrUnknownDay is returned when a program day id is not in the catalog.
var ErrUnknownDay = errors.New("unknown program day")

type programFile struct {
	Days []models.ProgramDay `yaml:"days"`
}

// Catalog is an immutable, ordered set of program days.
type Catalog struct {
	days      []models.ProgramDay
	byDay     map[string]int
	exercises map[string]models.ExerciseTemplate
}

// Default returns the built-in five-day program.
func Default() (*Catalog, error) {
	return Parse(defaultProgram)
}

// Load reads a program from a YAML file. An empty path yields the built-in program.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a program document.
func Parse(data []byte) (*Catalog, error) {
	var pf programFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	if len(pf.Days) == 0 {
		return nil, fmt.Errorf("program has no days")
	}

	c := &Catalog{
		days:      pf.Days,
		byDay:     make(map[string]int, len(pf.Days)),
		exercises: make(map[string]models.ExerciseTemplate),
	}
	for i, d := range pf.Days {
		if d.ID == "" {
			return nil, fmt.Errorf("program day %d has no id", i+1)
		}
		if _, dup := c.byDay[d.ID]; dup {
			return nil, fmt.Errorf("duplicate program day %q", d.ID)
		}
		c.byDay[d.ID] = i
		for _, ex := range d.Exercises {
			if ex.ID == "" {
				return nil, fmt.Errorf("day %q: exercise %q has no id", d.ID, ex.Name)
			}
			if ex.RampUpSets < 0 || ex.BackOffSets < 0 {
				return nil, fmt.Errorf("day %q: exercise %q has a negative set count", d.ID, ex.ID)
			}
			if _, dup := c.exercises[ex.ID]; dup {
				return nil, fmt.Errorf("duplicate exercise %q", ex.ID)
			}
			c.exercises[ex.ID] = ex
		}
	}
	return c, nil
}

// ProgramDays returns the program days in order.
func (c *Catalog) ProgramDays() []models.ProgramDay {
	out := make([]models.ProgramDay, len(c.days))
	copy(out, c.days)
	return out
}

// Day looks up a program day by id.
func (c *Catalog) Day(id string) (models.ProgramDay, error) {
	i, ok := c.byDay[id]
	if !ok {
		return models.ProgramDay{}, fmt.Errorf("%w: %s", ErrUnknownDay, id)
	}
	return c.days[i], nil
}

// HasDay reports whether id names a program day.
func (c *Catalog) HasDay(id string) bool {
	_, ok := c.byDay[id]
	return ok
}

// Exercise looks up an exercise template by id across all days.
func (c *Catalog) Exercise(id string) (models.ExerciseTemplate, bool) {
	ex, ok := c.exercises[id]
	return ex, ok
}

// ExerciseByName finds the first template whose name matches case-insensitively.
func (c *Catalog) ExerciseByName(name string) (models.ExerciseTemplate, bool) {
	name = strings.TrimSpace(name)
	for _, d := range c.days {
		for _, ex := range d.Exercises {
			if strings.EqualFold(ex.Name, name) {
				return ex, true
			}
		}
	}
	return models.ExerciseTemplate{}, false
}
