package main

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"placescout/models"
)

type Pg struct {
	db *gorm.DB
}

func NewPg(connString string) (*Pg, error) {
	db, err := gorm.Open(postgres.Open(connString), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return &Pg{
		db: db,
	}, nil
}

func (p *Pg) GetPlace(ctx context.Context, placeId uint64) (*models.Place, error) {
	var place models.Place
	if err := p.db.WithContext(ctx).Omit("location").Find(&place, "id = ?", placeId).Error; err != nil {
		return nil, err
	}

	return &place, nil
}

func (p *Pg) GetSearchLog(ctx context.Context, searchId uint64) (*models.SearchLog, error) {
	var search models.SearchLog
	if err := p.db.WithContext(ctx).Find(&search, "id = ?", searchId).Error; err != nil {
		return nil, err
	}

	return &search, nil
}

func (p *Pg) UpdatePlaceVector(ctx context.Context, placeId uint64, vector pgvector.Vector) error {
	return p.db.WithContext(ctx).Model(&models.Place{}).Where("id = ?", placeId).Update("embedding", vector).Error
}

func (p *Pg) UpdateSearchLogVector(ctx context.Context, searchId uint64, vector pgvector.Vector) error {
	return p.db.WithContext(ctx).Model(&models.SearchLog{}).Where("id = ?", searchId).Update("embedding", vector).Error
}
