package recommend

import (
	"fmt"
	"strings"

	"placescout/places"
)

const notSpecified = "Not specified"

const summaryDescriptionLimit = 100

const recommendationTask = `Recommend exactly 3 places that best match the request above. Prefer places from the nearby list when they fit, but you may suggest well known alternatives if none do.`

const outputGrammar = `Respond using EXACTLY this format for every recommendation, with a line of three hyphens between recommendations:

---
PLACE: <place name> <1 to 5 filled stars (★) followed by empty stars (☆) up to 5 total>
LOCATION: <street or neighbourhood>
DESCRIPTION: <one or two sentences on why this place fits the request>
FEATURES: <comma separated list of notable features>
INFO: <practical info such as hours, price range or booking advice>
---

Do not add any text outside this format.`

const workedExamples = `Example 1:
---
PLACE: Sunset Cafe ★★★★☆
LOCATION: Marine Drive
DESCRIPTION: Laid back cafe with sea views and strong filter coffee.
FEATURES: sea view, wifi, outdoor seating
INFO: Gets crowded after 6pm, cards accepted.
---

Example 2:
---
PLACE: The Grill House ★★★★★
LOCATION: Church Street
DESCRIPTION: Smoky charcoal grills and generous portions, great for group dinners.
FEATURES: charcoal grill, group seating, open late
INFO: Reservations recommended on weekends.
---`

// BuildRecommendationPrompt renders the generation prompt for the recommender
// model. The grammar and worked examples are fixed templates; they bias the
// model towards a parseable shape but never guarantee it.
func BuildRecommendationPrompt(location, query string, candidates []places.Place) string {
	var b strings.Builder

	if strings.TrimSpace(location) != "" {
		b.WriteString("Location: " + location + "\n")
	} else {
		b.WriteString("Location: not specified\n")
	}
	b.WriteString("Request: " + query + "\n")

	if len(candidates) > 0 {
		b.WriteString("\nNearby places:\n")
		for i, c := range candidates {
			rating := "N/A"
			if c.Rating > 0 {
				rating = fmt.Sprintf("%.1f", c.Rating)
			}
			b.WriteString(fmt.Sprintf("%d. %s - %s - Rating: %s\n", i+1, c.Name, c.Vicinity, rating))
		}
	}

	b.WriteString("\n" + recommendationTask + "\n\n")
	b.WriteString(outputGrammar + "\n\n")
	b.WriteString(workedExamples + "\n")

	return b.String()
}

// BuildSummaryPrompt renders the prompt for the conversational summary model.
// The model's reply is returned to the user as-is, never parsed.
func BuildSummaryPrompt(location, originalQuery, searchQuery string, recommendations []EnrichedRecommendation, max int) string {
	var b strings.Builder

	b.WriteString("The user asked me to find places for them with this prompt: " + originalQuery + "\n")
	if strings.TrimSpace(location) != "" {
		b.WriteString("They are looking around: " + location + "\n")
	}
	if searchQuery != "" && searchQuery != originalQuery {
		b.WriteString("I searched the map provider for: " + searchQuery + "\n")
	}
	b.WriteString("Here is what I found:\n")

	for i, rec := range recommendations {
		if max > 0 && i >= max {
			break
		}

		description := rec.Description
		if runes := []rune(description); len(runes) > summaryDescriptionLimit {
			description = string(runes[:summaryDescriptionLimit])
		}

		b.WriteString(fmt.Sprintf("Place: %s, Rating: %.1f", rec.Name, rec.Rating))
		if rec.Address != "" {
			b.WriteString(", Address: " + rec.Address)
		}
		b.WriteString("\n")
		if description != "" {
			b.WriteString("\t" + description + "\n")
		}
		b.WriteString("--------------------\n")
	}

	return b.String()
}
