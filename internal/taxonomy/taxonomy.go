// Package taxonomy holds the one category set the whole service agrees on.
// It is built once at startup from configuration and passed to whoever
// needs it; nothing else keeps its own list of category keys.
package taxonomy

import (
	"fmt"
	"strings"

	"buscalisto/internal/domain/models"
)

type Taxonomy struct {
	order []models.Category
	names map[string]string
}

var defaultCategories = []models.Category{
	{Key: "medicamentos", Name: "Medicamentos"},
	{Key: "cuidado-personal", Name: "Cuidado personal"},
	{Key: "belleza", Name: "Belleza"},
	{Key: "bebes", Name: "Bebés"},
	{Key: "nutricion", Name: "Nutrición"},
	{Key: "equipos-medicos", Name: "Equipos médicos"},
}

// Default returns the category set used when configuration does not
// provide one.
func Default() *Taxonomy {
	t, _ := New(defaultCategories)
	return t
}

func New(cats []models.Category) (*Taxonomy, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("taxonomy: empty category list")
	}
	t := &Taxonomy{
		order: make([]models.Category, 0, len(cats)),
		names: make(map[string]string, len(cats)),
	}
	for _, c := range cats {
		key := Normalize(c.Key)
		if key == "" {
			return nil, fmt.Errorf("taxonomy: empty category key (name=%q)", c.Name)
		}
		if key == models.AllCategories {
			return nil, fmt.Errorf("taxonomy: %q is reserved", models.AllCategories)
		}
		if _, dup := t.names[key]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate category key %q", key)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = key
		}
		t.names[key] = name
		t.order = append(t.order, models.Category{Key: key, Name: name})
	}
	return t, nil
}

func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (t *Taxonomy) Has(key string) bool {
	_, ok := t.names[Normalize(key)]
	return ok
}

// Name falls back to the key itself for categories outside the set.
func (t *Taxonomy) Name(key string) string {
	if n, ok := t.names[Normalize(key)]; ok {
		return n
	}
	return key
}

// Index is the position of key in the configured order, or -1.
func (t *Taxonomy) Index(key string) int {
	key = Normalize(key)
	for i, c := range t.order {
		if c.Key == key {
			return i
		}
	}
	return -1
}

func (t *Taxonomy) All() []models.Category {
	out := make([]models.Category, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Taxonomy) Len() int { return len(t.order) }
