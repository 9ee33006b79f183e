package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/models"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) WithTx(tx *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

func (r *ActivityRepository) Create(ctx context.Context, a *models.IncidentActivity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.IncidentActivity, error) {
	var entries []models.IncidentActivity
	err := r.db.WithContext(ctx).
		Preload("Incident").
		Preload("Actor").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *ActivityRepository) ListForIncident(ctx context.Context, incidentID uint) ([]models.IncidentActivity, error) {
	var entries []models.IncidentActivity
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("incident_id = ?", incidentID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
