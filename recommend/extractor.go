package recommend

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const defaultIntent = "find restaurant"

// ExtractorSysPrompt steers the extractor model towards a line-per-field
// output the extractor can scan. Same idea as the recommendation grammar,
// just four fields and no delimiters.
const ExtractorSysPrompt = `You break down a user's place search request into its components. Respond with EXACTLY four lines, nothing else:

Intent: <what the user wants to do, e.g. find restaurant, find cafe, find park>
Location: <the place or area the user mentioned, or none>
Cuisine: <the cuisine or food type mentioned, or none>
Preferences: <any other preferences such as budget, ambience or dietary needs, or none>

Write the literal word none for any component the user did not mention. Never add explanations.`

var extractorLinePattern = regexp.MustCompile(`(?i)^\s*(Intent|Location|Cuisine|Preferences)\s*:\s*(.*)$`)

// Extractor decomposes freeform user input with a model call followed by a
// line-oriented scan. Unparseable lines are skipped; every field defaults
// independently. Only the model call itself can fail.
type Extractor struct {
	gen Generator
}

func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

func BuildExtractionPrompt(input string) string {
	return fmt.Sprintf("%s\n\nUser request: %q", ExtractorSysPrompt, input)
}

func (e *Extractor) Extract(ctx context.Context, input string) (*QueryComponents, error) {
	raw, err := e.gen.Generate(ctx, BuildExtractionPrompt(input), GenerateOptions{
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract query components: %w", err)
	}

	components := parseComponents(raw)

	return components, nil
}

func parseComponents(raw string) *QueryComponents {
	components := &QueryComponents{Intent: defaultIntent}

	for _, line := range strings.Split(raw, "\n") {
		match := extractorLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		value := strings.TrimSpace(match[2])
		if value == "" || strings.EqualFold(value, "none") {
			continue
		}

		switch strings.ToLower(match[1]) {
		case "intent":
			components.Intent = value
		case "location":
			components.LocationQuery = value
		case "cuisine":
			components.Cuisine = value
		case "preferences":
			components.Preferences = value
		}
	}

	return components
}
