package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/types"
	"github.com/safetytracker/safetytracker/internal/utils"
)

// MaxSlugAttempts bounds the insert retries when a concurrent writer claims
// the chosen slug first.
const MaxSlugAttempts = 5

// ErrSlugExhausted is returned when every slug attempt hit a duplicate key.
var ErrSlugExhausted = errors.New("could not allocate a unique slug")

// IncidentFilter holds optional, conjunctive list predicates. Zero values impose
// no constraint.
type IncidentFilter struct {
	Search       string
	Status       types.Status
	ReporterID   *uint
	AssignedToID *uint
	// DateFrom and DateTo are calendar days; DateTo covers the whole day.
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

type IncidentRepository struct {
	db *gorm.DB

	// takenSlugs lists existing slugs that could collide with base.
	takenSlugs func(tx *gorm.DB, base string) ([]string, error)
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db, takenSlugs: takenSlugs}
}

// WithTx returns a repository bound to tx.
func (r *IncidentRepository) WithTx(tx *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: tx, takenSlugs: r.takenSlugs}
}

func takenSlugs(tx *gorm.DB, base string) ([]string, error) {
	var slugs []string
	err := tx.Unscoped().
		Model(&models.Incident{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &slugs).Error
	return slugs, err
}

// CreateWithSlug inserts inc with the first free slug derived from base. The
// unique index on slug is the source of truth: a duplicate key on insert means
// another writer won the race, and the next free suffix is tried.
func (r *IncidentRepository) CreateWithSlug(ctx context.Context, inc *models.Incident, base string) error {
	db := r.db.WithContext(ctx)

	for attempt := 0; attempt < MaxSlugAttempts; attempt++ {
		taken, err := r.takenSlugs(db, base)
		if err != nil {
			return fmt.Errorf("list slugs: %w", err)
		}

		inc.ID = 0
		inc.Slug = utils.NextFreeSlug(base, taken)

		// Nested so a duplicate key only rolls back to a savepoint when the
		// caller already holds a transaction.
		err = db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(inc).Error
		})
		if err == nil {
			return nil
		}
		if !IsDuplicateKeyError(err) {
			return fmt.Errorf("create incident: %w", err)
		}
	}

	inc.Slug = ""
	return ErrSlugExhausted
}

func (r *IncidentRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("AssignedTo")
}

func (r *IncidentRepository) FindBySlug(ctx context.Context, slug string) (*models.Incident, error) {
	var inc models.Incident
	if err := r.preloaded(ctx).Where("slug = ?", slug).First(&inc).Error; err != nil {
		return nil, err
	}
	return &inc, nil
}

func (r *IncidentRepository) FindByID(ctx context.Context, id uint) (*models.Incident, error) {
	var inc models.Incident
	if err := r.preloaded(ctx).First(&inc, id).Error; err != nil {
		return nil, err
	}
	return &inc, nil
}

// List returns incidents matching f, newest first.
func (r *IncidentRepository) List(ctx context.Context, f IncidentFilter) ([]models.Incident, error) {
	q := r.preloaded(ctx).Model(&models.Incident{})

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(incidents.title) LIKE ? OR LOWER(incidents.body) LIKE ?", pattern, pattern)
	}
	if f.Status != "" {
		q = q.Where("incidents.status = ?", f.Status)
	}
	if f.ReporterID != nil {
		q = q.Where("incidents.reporter_id = ?", *f.ReporterID)
	}
	if f.AssignedToID != nil {
		q = q.Where("incidents.assigned_to_id = ?", *f.AssignedToID)
	}
	if f.DateFrom != nil {
		q = q.Where("incidents.created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("incidents.created_at < ?", f.DateTo.AddDate(0, 0, 1))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var incidents []models.Incident
	err := q.Order("incidents.created_at DESC").Order("incidents.id DESC").Find(&incidents).Error
	return incidents, err
}

// UpdateFields persists status and assignment. A nil assignee clears the column.
func (r *IncidentRepository) UpdateFields(ctx context.Context, id uint, status types.Status, assignedToID *uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"assigned_to_id": assignedToID,
		}).Error
}

func (r *IncidentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Incident{}).Count(&n).Error
	return n, err
}

// CountByStatus returns a count for every known status, including zeros.
func (r *IncidentRepository) CountByStatus(ctx context.Context) (map[types.Status]int64, error) {
	var rows []struct {
		Status types.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Incident{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[types.Status]int64, len(types.Statuses))
	for _, s := range types.Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *IncidentRepository) CountUnassigned(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Incident{}).Where("assigned_to_id IS NULL").Count(&n).Error
	return n, err
}

func (r *IncidentRepository) CountAssignedTo(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Incident{}).Where("assigned_to_id = ?", userID).Count(&n).Error
	return n, err
}
