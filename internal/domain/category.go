package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// DesignCategory is the focus area steering both advice and visualization prompts.
type DesignCategory string

const (
	CategoryLighting        DesignCategory = "lighting"
	CategoryColorPalette    DesignCategory = "color_palette"
	CategoryLayoutFlow      DesignCategory = "layout_flow"
	CategoryTexturesFabrics DesignCategory = "textures_fabrics"
	CategoryDecorStyling    DesignCategory = "decor_styling"
)

// DefaultCategory is selected for new sessions.
const DefaultCategory = CategoryLighting

var categoryLabels = map[DesignCategory]string{
	CategoryLighting:        "Lighting",
	CategoryColorPalette:    "Color Palette",
	CategoryLayoutFlow:      "Layout & Flow",
	CategoryTexturesFabrics: "Textures & Fabrics",
	CategoryDecorStyling:    "Decor & Styling",
}

// Categories returns the closed set of categories in display order.
func Categories() []DesignCategory {
	return []DesignCategory{
		CategoryLighting,
		CategoryColorPalette,
		CategoryLayoutFlow,
		CategoryTexturesFabrics,
		CategoryDecorStyling,
	}
}

// Label returns the human readable name used in prompts and the UI.
func (c DesignCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c belongs to the closed set.
func (c DesignCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts either the slug ("layout_flow") or the display label
// ("Layout & Flow"), compared case-insensitively.
func ParseCategory(raw string) (DesignCategory, error) {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(raw))
	if needle == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidCategory)
	}
	for _, c := range Categories() {
		if needle == fold.String(string(c)) || needle == fold.String(c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
}
