package models

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Location struct {
	Lon, Lat float64
}

func NewGeoPoint(lng, lat float64) Location {
	return Location{
		Lon: lng,
		Lat: lat,
	}
}

func (g *Location) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case string:
		var err error
		data, err = hex.DecodeString(v)
		if err != nil {
			return err
		}
	case []byte:
		data = v
	default:
		return fmt.Errorf("expected string or []byte, got %T", value)
	}

	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return err
	}

	if point, ok := t.(*geom.Point); ok {
		g.Lon = point.X()
		g.Lat = point.Y()

		return nil
	}

	return fmt.Errorf("expected Point, got %T", t)
}

func (loc Location) GormDataType() string {
	return "geometry"
}

func (loc Location) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{
		SQL:  "ST_PointFromText(?)",
		Vars: []interface{}{fmt.Sprintf("POINT(%f %f)", loc.Lon, loc.Lat)},
	}
}

// Place is a cached copy of an authoritative place fetched from the maps
// provider. The embedding is filled in asynchronously by the embedder service.
type Place struct {
	ID               uint64          `gorm:"primaryKey" json:"id"`
	PlaceID          string          `gorm:"uniqueIndex" json:"place_id"`
	Name             string          `json:"name"`
	Vicinity         string          `json:"vicinity"`
	Rating           float64         `json:"rating"`
	UserRatingsTotal int             `json:"user_ratings_total"`
	PriceLevel       int             `json:"price_level"`
	Types            pq.StringArray  `gorm:"type:text[]" json:"types"`
	Location         Location        `json:"location"`
	PhotoReference   string          `json:"-"`
	Embedding        pgvector.Vector `gorm:"type:vector(768)" json:"-"`
}

func (p *Place) TableName() string {
	return "places"
}

func (p *Place) Stringify() string {
	return fmt.Sprintf("Place: %s, Vicinity: %s, Rating: %.1f, Types: %s", p.Name, p.Vicinity, p.Rating, strings.Join(p.Types, ", "))
}

// SearchLog records every freeform search the agent handled, so past queries
// can be embedded and mined for similar-search suggestions.
type SearchLog struct {
	ID            uint64          `gorm:"primaryKey" json:"id"`
	Input         string          `json:"input"`
	Intent        string          `json:"intent"`
	LocationQuery string          `json:"location_query"`
	Cuisine       string          `json:"cuisine"`
	Preferences   string          `json:"preferences"`
	Embedding     pgvector.Vector `gorm:"type:vector(768)" json:"-"`
}

func (s *SearchLog) TableName() string {
	return "search_logs"
}

func (s *SearchLog) Stringify() string {
	return fmt.Sprintf("Search: %s, Intent: %s, Location: %s, Cuisine: %s, Preferences: %s", s.Input, s.Intent, s.LocationQuery, s.Cuisine, s.Preferences)
}
