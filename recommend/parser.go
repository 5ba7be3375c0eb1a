package recommend

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultRating   = 4
	placeholderName = "Recommended place"
	maxParagraphs   = 3
	minParagraphLen = 10
)

var (
	delimiterPattern = regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)

	// Name runs up to the first star glyph or the end of the line; the star
	// run itself is optional.
	placePattern = regexp.MustCompile(`(?im)^\s*PLACE:\s*([^★☆\r\n]*?)\s*([★☆]+)?\s*$`)

	numberedPattern = regexp.MustCompile(`(?i)^\s*(?:recommendation\s*)?(\d+)\s*[.:]\s*(.+)$`)

	paragraphSplit = regexp.MustCompile(`\r?\n\s*\r?\n`)
)

// segmentFields is the ordered field-label scanner applied to every grammar
// segment. Each extractor is independent; a missing field keeps its default.
var segmentFields = []struct {
	pattern *regexp.Regexp
	assign  func(rec *RecommendationRecord, value string)
}{
	{
		pattern: regexp.MustCompile(`(?im)^\s*LOCATION:\s*(.+)$`),
		assign:  func(rec *RecommendationRecord, value string) { rec.Location = value },
	},
	{
		pattern: regexp.MustCompile(`(?im)^\s*DESCRIPTION:\s*(.+)$`),
		assign:  func(rec *RecommendationRecord, value string) { rec.Description = value },
	},
	{
		pattern: regexp.MustCompile(`(?im)^\s*FEATURES:\s*(.+)$`),
		assign:  func(rec *RecommendationRecord, value string) { rec.Features = splitFeatures(value) },
	},
	{
		pattern: regexp.MustCompile(`(?im)^\s*INFO:\s*(.+)$`),
		assign:  func(rec *RecommendationRecord, value string) { rec.AdditionalInfo = value },
	},
}

// ParseRecommendations turns raw model output into recommendation records.
// It is total for non-empty input: when the model ignored the requested
// grammar the parser degrades through a numbered-list scan, a paragraph
// split, and finally a single record wrapping the whole text. Only empty
// input yields zero records.
func ParseRecommendations(raw, originalQuery, location string) []RecommendationRecord {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if records := parseGrammar(trimmed); len(records) > 0 {
		return records
	}
	if records := parseNumberedList(trimmed, originalQuery, location); len(records) > 0 {
		return records
	}
	if records := parseParagraphs(trimmed, location); len(records) > 0 {
		return records
	}

	return []RecommendationRecord{singleRecord(trimmed, originalQuery, location)}
}

// parseGrammar handles output that followed the requested format: segments
// separated by --- lines, each with a PLACE line and optional field lines.
// Segments without a PLACE line are skipped, not errored.
func parseGrammar(raw string) []RecommendationRecord {
	var records []RecommendationRecord

	for _, segment := range delimiterPattern.Split(raw, -1) {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		match := placePattern.FindStringSubmatch(segment)
		if match == nil {
			continue
		}

		record := RecommendationRecord{
			Name:   strings.TrimSpace(match[1]),
			Rating: defaultRating,
		}
		if record.Name == "" {
			record.Name = placeholderName
		}
		if stars := match[2]; stars != "" {
			// Raw count of filled stars, no clamping.
			record.Rating = strings.Count(stars, "★")
		}

		for _, field := range segmentFields {
			if m := field.pattern.FindStringSubmatch(segment); m != nil {
				field.assign(&record, strings.TrimSpace(m[1]))
			}
		}

		records = append(records, record)
	}

	return records
}

// parseNumberedList handles output shaped like "1. Joe's Diner" or
// "Recommendation 2: The Grill House".
func parseNumberedList(raw, originalQuery, location string) []RecommendationRecord {
	var records []RecommendationRecord

	for i, line := range strings.Split(raw, "\n") {
		match := numberedPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		name := strings.TrimSpace(match[2])
		if name == "" {
			name = placeholderName
		}

		records = append(records, RecommendationRecord{
			Name:           name,
			Rating:         defaultRating,
			Location:       defaultLocation(location),
			Description:    fmt.Sprintf("Suggested for your request %q.", originalQuery),
			AdditionalInfo: fmt.Sprintf("Parsed from line %d", i+1),
		})
	}

	return records
}

// parseParagraphs treats up to three blank-line separated chunks of prose as
// one recommendation each, named after the paragraph's first sentence.
func parseParagraphs(raw, location string) []RecommendationRecord {
	var records []RecommendationRecord

	for _, paragraph := range paragraphSplit.Split(raw, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if len(paragraph) <= minParagraphLen {
			continue
		}
		if len(records) == maxParagraphs {
			break
		}

		name := firstSentence(paragraph)
		if name == "" {
			name = fmt.Sprintf("Recommendation %d", len(records)+1)
		}

		records = append(records, RecommendationRecord{
			Name:        name,
			Rating:      defaultRating,
			Location:    defaultLocation(location),
			Description: paragraph,
		})
	}

	return records
}

// singleRecord wraps the entire output as one record, the last resort for
// text nothing else could shape.
func singleRecord(raw, originalQuery, location string) RecommendationRecord {
	name := placeholderName
	if strings.TrimSpace(originalQuery) != "" {
		name = fmt.Sprintf("Suggestion for %q", originalQuery)
	}

	return RecommendationRecord{
		Name:        name,
		Rating:      defaultRating,
		Location:    defaultLocation(location),
		Description: raw,
	}
}

func splitFeatures(value string) []string {
	var features []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			features = append(features, part)
		}
	}

	return features
}

func firstSentence(paragraph string) string {
	sentence := paragraph
	if idx := strings.IndexAny(sentence, "\n"); idx >= 0 {
		sentence = sentence[:idx]
	}
	if idx := strings.Index(sentence, ". "); idx >= 0 {
		sentence = sentence[:idx]
	}

	return strings.TrimSpace(strings.TrimSuffix(sentence, "."))
}

func defaultLocation(location string) string {
	if strings.TrimSpace(location) == "" {
		return notSpecified
	}

	return location
}
