package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placescout/places"
)

func intPtr(v int) *int { return &v }

func testPhotoResolver(ref string) string {
	return "https://photos.example/" + ref
}

func TestReconcile_LengthAndOrderPreserving(t *testing.T) {
	records := []RecommendationRecord{
		{Name: "Alpha", Rating: 4},
		{Name: "Beta", Rating: 3},
		{Name: "Gamma", Rating: 5},
	}
	authoritative := []places.Place{
		{PlaceID: "p2", Name: "Beta"},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.Len(t, enriched, len(records))
	assert.Equal(t, "Alpha", enriched[0].Name)
	assert.Equal(t, "Beta", enriched[1].Name)
	assert.Equal(t, "Gamma", enriched[2].Name)
}

func TestReconcile_ExactMatchCaseInsensitive(t *testing.T) {
	records := []RecommendationRecord{{Name: "THE GRILL HOUSE", Rating: 4}}
	authoritative := []places.Place{
		{PlaceID: "p1", Name: "The Grill House", Rating: 4.6, UserRatingsTotal: 210, Vicinity: "Church Street"},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].PlaceID)
	assert.Equal(t, "p1", *enriched[0].PlaceID)
	assert.Equal(t, 4.6, enriched[0].Rating)
	assert.Equal(t, 210, enriched[0].UserRatingsTotal)
	assert.Equal(t, "Church Street", enriched[0].Address)
}

func TestReconcile_FuzzyFallbackSubstring(t *testing.T) {
	records := []RecommendationRecord{{Name: "Grill House", Rating: 4}}
	authoritative := []places.Place{
		{PlaceID: "p1", Name: "Sunset Cafe"},
		{PlaceID: "p2", Name: "The Grill House Restaurant", Rating: 4.2},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].PlaceID)
	assert.Equal(t, "p2", *enriched[0].PlaceID)
}

func TestReconcile_FirstFuzzyMatchWins(t *testing.T) {
	records := []RecommendationRecord{{Name: "Grill", Rating: 4}}
	authoritative := []places.Place{
		{PlaceID: "p1", Name: "Grill House"},
		{PlaceID: "p2", Name: "Grill Station"},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.NotNil(t, enriched[0].PlaceID)
	assert.Equal(t, "p1", *enriched[0].PlaceID)
}

func TestReconcile_ExactMatchBeatsEarlierFuzzy(t *testing.T) {
	records := []RecommendationRecord{{Name: "Grill House", Rating: 4}}
	authoritative := []places.Place{
		{PlaceID: "p1", Name: "The Grill House Restaurant"},
		{PlaceID: "p2", Name: "Grill House"},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.NotNil(t, enriched[0].PlaceID)
	assert.Equal(t, "p2", *enriched[0].PlaceID)
}

func TestReconcile_NoMatchKeepsAIFields(t *testing.T) {
	records := []RecommendationRecord{
		{
			Name:           "Imaginary Bistro",
			Rating:         5,
			Location:       "Old Town",
			Description:    "Invented by the model.",
			Features:       []string{"patio"},
			AdditionalInfo: "cash only",
		},
	}
	authoritative := []places.Place{
		{PlaceID: "p1", Name: "Sunset Cafe"},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.Len(t, enriched, 1)
	assert.Nil(t, enriched[0].PlaceID)
	assert.Nil(t, enriched[0].PhotoURL)
	assert.Equal(t, "Imaginary Bistro", enriched[0].Name)
	assert.Equal(t, 5.0, enriched[0].Rating)
	assert.Equal(t, "Old Town", enriched[0].Locality)
	assert.Equal(t, "Invented by the model.", enriched[0].Description)
	assert.Equal(t, []string{"patio"}, enriched[0].Features)
	assert.Equal(t, "cash only", enriched[0].PriceInfo)
	assert.Empty(t, enriched[0].Address)
}

func TestReconcile_MergesStructuredFields(t *testing.T) {
	openNow := true
	records := []RecommendationRecord{{Name: "Sunset Cafe", Rating: 3, Description: "Cozy spot"}}
	authoritative := []places.Place{
		{
			PlaceID:          "p9",
			Name:             "Sunset Cafe",
			Rating:           4.4,
			UserRatingsTotal: 88,
			Vicinity:         "Marine Drive",
			PriceLevel:       intPtr(2),
			Location:         places.LatLng{Lat: 19.01, Lng: 72.85},
			PhotoReferences:  []string{"ref-1", "ref-2"},
			OpenNow:          &openNow,
		},
	}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	require.Len(t, enriched, 1)
	result := enriched[0]
	assert.Equal(t, 4.4, result.Rating)
	require.NotNil(t, result.PhotoURL)
	assert.Equal(t, "https://photos.example/ref-1", *result.PhotoURL)
	require.NotNil(t, result.PriceLevel)
	assert.Equal(t, 2, *result.PriceLevel)
	require.NotNil(t, result.Location)
	assert.Equal(t, 19.01, result.Location.Lat)
	require.NotNil(t, result.OpenNow)
	assert.True(t, *result.OpenNow)
	assert.Equal(t, "Cozy spot", result.Description)
}

func TestReconcile_AIRatingKeptWhenAuthoritativeRatingMissing(t *testing.T) {
	records := []RecommendationRecord{{Name: "Sunset Cafe", Rating: 3}}
	authoritative := []places.Place{{PlaceID: "p1", Name: "Sunset Cafe"}}

	enriched := Reconcile(records, authoritative, testPhotoResolver)

	assert.Equal(t, 3.0, enriched[0].Rating)
}

func TestReconcile_NilPhotoResolver(t *testing.T) {
	records := []RecommendationRecord{{Name: "Sunset Cafe", Rating: 3}}
	authoritative := []places.Place{
		{PlaceID: "p1", Name: "Sunset Cafe", PhotoReferences: []string{"ref-1"}},
	}

	enriched := Reconcile(records, authoritative, nil)

	assert.Nil(t, enriched[0].PhotoURL)
}

func TestReconcile_EmptyInputs(t *testing.T) {
	assert.Empty(t, Reconcile(nil, []places.Place{{Name: "x"}}, nil))
	enriched := Reconcile([]RecommendationRecord{{Name: "x", Rating: 4}}, nil, nil)
	require.Len(t, enriched, 1)
	assert.Nil(t, enriched[0].PlaceID)
}
