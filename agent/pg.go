package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"placescout/models"
	"placescout/places"
	"placescout/recommend"
)

type Pg struct {
	db *gorm.DB
}

func NewPlacePg(connStr string) (*Pg, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, err
	}

	return &Pg{db: db}, nil
}

// SavePlaces upserts provider results into the cache. Embeddings are not
// touched here; the embedder service fills them in from CDC events.
func (s *Pg) SavePlaces(ctx context.Context, results []places.Place) error {
	rows := make([]models.Place, 0, len(results))
	for _, p := range results {
		row := models.Place{
			PlaceID:          p.PlaceID,
			Name:             p.Name,
			Vicinity:         p.Vicinity,
			Rating:           p.Rating,
			UserRatingsTotal: p.UserRatingsTotal,
			Types:            p.Types,
			Location:         models.NewGeoPoint(p.Location.Lng, p.Location.Lat),
		}
		if p.PriceLevel != nil {
			row.PriceLevel = *p.PriceLevel
		}
		if len(p.PhotoReferences) > 0 {
			row.PhotoReference = p.PhotoReferences[0]
		}
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "place_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "vicinity", "rating", "user_ratings_total", "price_level", "types", "location", "photo_reference",
		}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert places: %w", err)
	}

	return nil
}

func (s *Pg) LogSearch(ctx context.Context, input string, components recommend.QueryComponents) error {
	row := models.SearchLog{
		Input:         input,
		Intent:        components.Intent,
		LocationQuery: components.LocationQuery,
		Cuisine:       components.Cuisine,
		Preferences:   components.Preferences,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}

	return nil
}

// SearchSimilar runs a cosine similarity search over the embedded cache.
func (s *Pg) SearchSimilar(ctx context.Context, queryVector []float32, limit int) ([]models.Place, error) {
	if limit <= 0 {
		limit = 10
	}

	vectorStr := vectorToStr(queryVector)

	var results []models.Place
	err := s.db.WithContext(ctx).
		Model(&models.Place{}).
		Select("*, 1 - (embedding <=> ?) as similarity", vectorStr).
		Where("embedding IS NOT NULL").
		Order("similarity DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query similar places: %w", err)
	}

	return results, nil
}

func (s *Pg) ListPlaces(ctx context.Context) ([]models.Place, error) {
	var results []models.Place
	if err := s.db.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}

	return results, nil
}

func normalizeVector(vec []float32) []float32 {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	norm := float32(math.Sqrt(float64(sum)))
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}

func vectorToStr(vector []float32) string {
	normalizeVector(vector)

	vectorStr := "["
	for i, v := range vector {
		if i > 0 {
			vectorStr += ","
		}
		vectorStr += fmt.Sprintf("%f", v)
	}
	vectorStr += "]"

	return vectorStr
}
