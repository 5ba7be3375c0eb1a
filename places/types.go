package places

import "fmt"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is an authoritative place record as returned by the maps provider.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Vicinity         string   `json:"vicinity"`
	PriceLevel       *int     `json:"price_level,omitempty"`
	Location         LatLng   `json:"location"`
	PhotoReferences  []string `json:"photo_references,omitempty"`
	OpenNow          *bool    `json:"open_now,omitempty"`
	Types            []string `json:"types,omitempty"`
}

// Candidate is a location candidate resolved from a freeform location query.
type Candidate struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Location LatLng `json:"location"`
}

// Details extends Place with the contact fields only the details endpoint returns.
type Details struct {
	Place
	PhoneNumber string   `json:"phone_number,omitempty"`
	Website     string   `json:"website,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
	Reviews     []Review `json:"reviews,omitempty"`
}

type Review struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

// StatusError is a non-OK status returned by the provider, carrying the
// provider's own message.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("places api status %s", e.Status)
	}

	return fmt.Sprintf("places api status %s: %s", e.Status, e.Message)
}

// Wire types below mirror the provider's JSON responses.

type searchResponse struct {
	Results      []placeResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
}

type detailsResponse struct {
	Result       placeResult `json:"result"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
}

type placeResult struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address"`
	Vicinity         string        `json:"vicinity"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	PriceLevel       *int          `json:"price_level"`
	Geometry         geometry      `json:"geometry"`
	OpeningHours     *openingHours `json:"opening_hours"`
	Photos           []photo       `json:"photos"`
	Types            []string      `json:"types"`

	PhoneNumber string       `json:"international_phone_number"`
	Website     string       `json:"website"`
	Reviews     []reviewItem `json:"reviews"`
}

type geometry struct {
	Location LatLng `json:"location"`
}

type openingHours struct {
	OpenNow     *bool    `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

type photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

type reviewItem struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

func (r placeResult) toPlace() Place {
	p := Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		Vicinity:         r.Vicinity,
		PriceLevel:       r.PriceLevel,
		Location:         r.Geometry.Location,
		Types:            r.Types,
	}

	if p.Vicinity == "" {
		p.Vicinity = r.FormattedAddress
	}
	if r.OpeningHours != nil {
		p.OpenNow = r.OpeningHours.OpenNow
	}
	for _, ph := range r.Photos {
		p.PhotoReferences = append(p.PhotoReferences, ph.PhotoReference)
	}

	return p
}
