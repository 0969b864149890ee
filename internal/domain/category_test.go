package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DesignCategory
	}{
		{name: "slug", input: "layout_flow", want: CategoryLayoutFlow},
		{name: "label", input: "Textures & Fabrics", want: CategoryTexturesFabrics},
		{name: "label lower case", input: "color palette", want: CategoryColorPalette},
		{name: "padded slug", input: "  DECOR_STYLING ", want: CategoryDecorStyling},
		{name: "lighting", input: "Lighting", want: CategoryLighting},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCategory(tc.input)
			if err != nil {
				t.Fatalf("ParseCategory(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseCategory(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "   ", "plumbing"} {
		if _, err := ParseCategory(input); !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("ParseCategory(%q) error = %v, want ErrInvalidCategory", input, err)
		}
	}
}

func TestCategoriesAreValidAndLabelled(t *testing.T) {
	cats := Categories()
	if len(cats) != 5 {
		t.Fatalf("len(Categories()) = %d, want 5", len(cats))
	}
	for _, c := range cats {
		if !c.Valid() {
			t.Fatalf("category %q should be valid", c)
		}
		if c.Label() == string(c) {
			t.Fatalf("category %q has no display label", c)
		}
	}
	if DesignCategory("bogus").Valid() {
		t.Fatal("unknown category reported as valid")
	}
}
