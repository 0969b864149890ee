package design

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"roomdesign/internal/domain"
	"roomdesign/internal/providers/genai"
)

// AdviceCount is the number of recommendations requested per analysis.
const AdviceCount = 4

// DeclutterPrompt instructs the image model to tidy the room without redesigning it.
const DeclutterPrompt = "Edit this photo of a room to remove loose clutter: papers, clothes, bags, cables, dishes, toys, " +
	"packaging and small scattered objects on floors, tables, counters and shelves. " +
	"Keep the architecture, walls, windows, doors, flooring, all furniture, rugs, curtains, artwork, plants and light " +
	"fixtures exactly as they are and in the same positions. Preserve the original camera angle, perspective, lighting, " +
	"shadows and colors. Fill cleared areas with a plausible continuation of the surface behind them. " +
	"Return only the edited image."

// VisualizationSuffix is appended to every variation prompt.
const VisualizationSuffix = "Produce a photorealistic photograph of the same room from the same camera angle and lens. " +
	"Keep the walls, windows, doors, ceiling height and floor plan unchanged and only alter what this design change requires. " +
	"Lighting, shadows and reflections must be physically plausible. Return only the edited image."

// ReferenceSources is the closed set of works advice may cite.
var ReferenceSources = []string{
	"Interior Design Illustrated (Francis D.K. Ching)",
	"A Pattern Language (Christopher Alexander)",
	"Human Dimension & Interior Space (Julius Panero, Martin Zelnik)",
	"Interaction of Color (Josef Albers)",
	"The Art of Color (Johannes Itten)",
	"The Lighting Handbook (Illuminating Engineering Society)",
	"Joyful: The Surprising Power of Ordinary Things (Ingrid Fetell Lee)",
	"The Little Book of Hygge (Meik Wiking)",
	"Wabi-Sabi for Artists, Designers, Poets & Philosophers (Leonard Koren)",
	"Domino: The Book of Decorating (Deborah Needleman, Sara Ruffin Costello, Dara Caponigro)",
}

// Variation is one design principle rendered as a visualization.
type Variation struct {
	Title  string
	Prompt string
}

var categoryVariations = map[domain.DesignCategory][]Variation{
	domain.CategoryLighting: {
		{Title: "Layered lighting", Prompt: "Add layered lighting: soft ambient ceiling light, task lamps beside seating and work surfaces, and small accent lights on artwork or shelves."},
		{Title: "Warm evening glow", Prompt: "Shift every artificial light to warm 2700K white and add dimmable table and floor lamps so the room has a cosy evening glow."},
		{Title: "Maximized daylight", Prompt: "Maximize natural daylight with sheer light-filtering curtains, a large mirror facing the window and pale reflective surfaces."},
		{Title: "Statement fixture", Prompt: "Add one sculptural statement pendant or chandelier, correctly scaled to the room, as the focal light source."},
	},
	domain.CategoryColorPalette: {
		{Title: "60-30-10 balance", Prompt: "Recolor the room using the 60-30-10 rule: a dominant wall color, a secondary color on large furniture and textiles, and a 10% accent color in accessories."},
		{Title: "Analogous harmony", Prompt: "Apply an analogous palette of three neighboring hues on the color wheel across walls, upholstery and decor for a calm, cohesive look."},
		{Title: "Complementary accents", Prompt: "Keep a neutral base and introduce complementary accent colors in cushions, art and a rug to create lively contrast."},
		{Title: "Warm neutrals", Prompt: "Repaint and restyle in warm neutrals: creamy whites, greige, sand and soft terracotta."},
	},
	domain.CategoryLayoutFlow: {
		{Title: "Conversation grouping", Prompt: "Rearrange seating into a conversation group with pieces facing each other around a shared anchor such as a rug or coffee table."},
		{Title: "Clear circulation", Prompt: "Reposition furniture to open clear walkways of about 90 cm between entrances, windows and seating."},
		{Title: "Focal point anchoring", Prompt: "Orient the furniture toward one strong focal point such as a window, fireplace or feature wall."},
		{Title: "Functional zones", Prompt: "Divide the room into distinct functional zones using rugs, lighting and furniture placement."},
	},
	domain.CategoryTexturesFabrics: {
		{Title: "Natural fibers", Prompt: "Introduce natural-fiber textures: a jute or wool rug, linen curtains, rattan or cane accents and raw wood."},
		{Title: "Layered textiles", Prompt: "Layer textiles in varied weights: chunky knit throws, velvet cushions and a boucle accent chair."},
		{Title: "Finish contrast", Prompt: "Contrast finishes by pairing matte plaster or limewash walls with polished metal, glass and glossy ceramics."},
		{Title: "Tactile wall treatment", Prompt: "Add a tactile wall treatment such as wood slat paneling, grasscloth wallpaper or textured plaster on one wall."},
	},
}

// genericStyles backs categories without a dedicated principle table.
var genericStyles = []Variation{
	{Title: "Scandinavian", Prompt: "Restyle the room in a Scandinavian style: light woods, white and soft grey, simple functional furniture and cosy textiles."},
	{Title: "Mid-century modern", Prompt: "Restyle the room in mid-century modern style: tapered wooden legs, organic curves, walnut tones and mustard or teal accents."},
	{Title: "Japandi", Prompt: "Restyle the room in Japandi style: low natural-wood furniture, muted earthy palette, minimal decor and handcrafted ceramics."},
	{Title: "Modern industrial", Prompt: "Restyle the room in modern industrial style: exposed brick or concrete textures, black metal frames, leather and warm Edison lighting."},
	{Title: "Eclectic bohemian", Prompt: "Restyle the room in an eclectic bohemian style: layered patterned rugs, plants, rattan, global textiles and collected art."},
}

// Variations picks count prompts for category, cycling through the table when
// count exceeds it.
func Variations(category domain.DesignCategory, count int) []Variation {
	if count <= 0 {
		return nil
	}
	table, ok := categoryVariations[category]
	if !ok || len(table) == 0 {
		table = genericStyles
	}
	out := make([]Variation, count)
	for i := range out {
		out[i] = table[i%len(table)]
	}
	return out
}

func visualizationPrompt(category domain.DesignCategory, v Variation) string {
	return fmt.Sprintf("Redesign this room focusing on %s by applying the principle %q. %s\n%s",
		category.Label(), v.Title, v.Prompt, VisualizationSuffix)
}

func analysisSystemInstruction() string {
	var b strings.Builder
	b.WriteString("You are an experienced interior designer reviewing a photo of a real room. ")
	b.WriteString("Ground every recommendation in one of these reference sources and in nothing else:\n")
	for i, src := range ReferenceSources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, src)
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Cite exactly one source from the list in principleSource, written as it appears above.\n")
	b.WriteString("- Only describe features that are visible in the photo; do not invent rooms, windows or furniture.\n")
	b.WriteString("- Each description is two to four sentences of concrete, actionable guidance for this room.\n")
	b.WriteString("- Recommendations must be distinct from one another.\n")
	b.WriteString("- Respond only with JSON matching the provided schema.")
	return b.String()
}

func analysisPrompt(category domain.DesignCategory, locale string) string {
	prompt := fmt.Sprintf("Analyze this room with a focus on %s. Give exactly %d distinct recommendations, each citing its principle source.",
		category.Label(), AdviceCount)
	if name := languageName(locale); name != "" {
		prompt += fmt.Sprintf(" Write every title and description in %s; keep principleSource exactly as listed.", name)
	}
	return prompt
}

// languageName returns the English name of locale, or "" for English and
// unparseable tags.
func languageName(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return ""
	}
	return display.English.Languages().Name(language.Make(base.String()))
}

func adviceSchema() *genai.Schema {
	item := &genai.Schema{
		Type: "OBJECT",
		Properties: map[string]*genai.Schema{
			"title":           {Type: "STRING", Description: "Short name of the recommendation"},
			"description":     {Type: "STRING", Description: "Concrete guidance for this room"},
			"principleSource": {Type: "STRING", Description: "One of the listed reference sources"},
		},
		Required:         []string{"title", "description", "principleSource"},
		PropertyOrdering: []string{"title", "description", "principleSource"},
	}
	return &genai.Schema{
		Type: "OBJECT",
		Properties: map[string]*genai.Schema{
			"advice": {Type: "ARRAY", Items: item},
		},
		Required: []string{"advice"},
	}
}
