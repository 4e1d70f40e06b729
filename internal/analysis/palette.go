package analysis

// FallbackColor is used for macro areas outside the palette.
const FallbackColor = "#667eea"

var macroAreaColors = map[string]string{
	"Discovery & Education":                    "#e63946",
	"Personalization & Advisory":               "#f77f00",
	"Wine Investment & Financial Tools":        "#fcbf49",
	"Provenance, Certification & Trust":        "#2a9d8f",
	"Gamification & Social Sharing":            "#1d3557",
	"Digital Cellar & Collection Management":   "#6a4c93",
	"Logistics, Delivery & Post-Purchase Care": "#8d6e63",
	"Consumption Support & Experience":         "#00b4d8",
}

// ColorFor maps a macro area to its display color.
func ColorFor(area string) string {
	if c, ok := macroAreaColors[NormalizeMacroArea(area)]; ok {
		return c
	}
	return FallbackColor
}

// Palette returns a copy of the named area colors.
func Palette() map[string]string {
	out := make(map[string]string, len(macroAreaColors))
	for k, v := range macroAreaColors {
		out[k] = v
	}
	return out
}
