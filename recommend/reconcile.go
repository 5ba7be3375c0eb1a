package recommend

import (
	"strings"

	"placescout/places"
)

// PhotoResolver turns a provider photo reference into a serveable URL.
type PhotoResolver func(photoReference string) string

// Reconcile matches every AI record against the authoritative places and
// merges narrative with structured fields. It is order and length preserving:
// one output per input record, unmatched records kept with null place id and
// photo URL. Matching is case-insensitive: exact name equality first, then
// the first substring hit in authoritative-list order.
func Reconcile(records []RecommendationRecord, authoritative []places.Place, photos PhotoResolver) []EnrichedRecommendation {
	enriched := make([]EnrichedRecommendation, 0, len(records))

	for _, record := range records {
		match := findMatch(record.Name, authoritative)

		result := EnrichedRecommendation{
			Name:        record.Name,
			Description: record.Description,
			Features:    record.Features,
			PriceInfo:   record.AdditionalInfo,
			Locality:    record.Location,
			Rating:      float64(record.Rating),
		}

		if match != nil {
			result.PlaceID = &match.PlaceID
			if match.Rating > 0 {
				result.Rating = match.Rating
			}
			result.UserRatingsTotal = match.UserRatingsTotal
			result.Address = match.Vicinity
			result.Location = &match.Location
			result.PriceLevel = match.PriceLevel
			result.OpenNow = match.OpenNow
			if len(match.PhotoReferences) > 0 && photos != nil {
				url := photos(match.PhotoReferences[0])
				result.PhotoURL = &url
			}
		}

		enriched = append(enriched, result)
	}

	return enriched
}

func findMatch(name string, authoritative []places.Place) *places.Place {
	needle := strings.ToLower(strings.TrimSpace(name))

	for i := range authoritative {
		if strings.ToLower(authoritative[i].Name) == needle {
			return &authoritative[i]
		}
	}

	if needle == "" {
		return nil
	}

	for i := range authoritative {
		haystack := strings.ToLower(authoritative[i].Name)
		if haystack == "" {
			continue
		}
		if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
			return &authoritative[i]
		}
	}

	return nil
}
