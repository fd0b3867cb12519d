package charts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "sales-forecast/internal/common/errors"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultColors returns a fresh copy of the built-in category colors: one per item
// type and one per outlet type.
func DefaultColors() map[string]string {
	return map[string]string{
		"Fruits_and_Vegetables": "#1f77b4",
		"Snack_Foods":           "#ff7f0e",
		"Household":             "#2ca02c",
		"Frozen_Foods":          "#d62728",
		"Dairy":                 "#9467bd",
		"Canned":                "#8c564b",
		"Soft_Drinks":           "#e377c2",
		"Meat":                  "#7f7f7f",
		"Baking_Goods":          "#bcbd22",
		"Health_and_Hygiene":    "#17becf",
		"Starchy_Foods":         "#ff9896",
		"Breakfast":             "#c5b0d5",
		"Hard_Drinks":           "#aec7e8",
		"Seafood":               "#ffbb78",
		"Breads":                "#98df8a",
		"Others":                "#c7c7c7",
		"Supermarket_Type1":     "#FF5733",
		"Supermarket_Type2":     "#2E8B57",
		"Supermarket_Type3":     "#482344",
		"Grocery_Store":         "#1E90FF",
	}
}

// Palette maps category names to colors. It is built once and never changes.
type Palette struct {
	colors map[string]string
}

// NewPalette starts from the defaults and applies overrides. Override keys match
// default category names case-insensitively, since config loaders may lowercase
// them; unmatched keys add new categories.
func NewPalette(overrides map[string]string) (*Palette, error) {
	colors := DefaultColors()
	byFold := make(map[string]string, len(colors))
	for name := range colors {
		byFold[strings.ToLower(name)] = name
	}

	for key, color := range overrides {
		if !hexColor.MatchString(color) {
			return nil, fmt.Errorf("palette color for %s must look like #rrggbb, got %q", key, color)
		}
		name := key
		if canonical, ok := byFold[strings.ToLower(key)]; ok {
			name = canonical
		}
		colors[name] = color
	}
	return &Palette{colors: colors}, nil
}

// Color returns the color of category.
func (p *Palette) Color(category string) (string, bool) {
	c, ok := p.colors[category]
	return c, ok
}

// Names lists every category with a color, sorted.
func (p *Palette) Names() []string {
	names := make([]string, 0, len(p.colors))
	for name := range p.colors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColorsFor resolves the colors of categories, failing with PALETTE_INCOMPLETE
// when any of them has none.
func (p *Palette) ColorsFor(categories []string) (map[string]string, error) {
	out := make(map[string]string, len(categories))
	var missing []string
	for _, c := range categories {
		color, ok := p.colors[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		out[c] = color
	}
	if len(missing) > 0 {
		return nil, apperrors.NewPaletteIncompleteError(missing)
	}
	return out, nil
}
