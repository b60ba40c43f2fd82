package plan

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName returns a human-readable name for the tier.
func DisplayName(t Tier) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "_", " "))
}
