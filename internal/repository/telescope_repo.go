package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"observatory/internal/domain"
)

type TelescopeRepository struct {
	db *gorm.DB
}

func NewTelescopeRepository(db *gorm.DB) *TelescopeRepository {
	return &TelescopeRepository{db: db}
}

func (r *TelescopeRepository) Create(ctx context.Context, t *domain.Telescope) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TelescopeRepository) Update(ctx context.Context, t *domain.Telescope) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TelescopeRepository) GetByID(ctx context.Context, id int64) (*domain.Telescope, error) {
	var t domain.Telescope
	err := r.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TelescopeRepository) List(ctx context.Context, onlyActive bool) ([]domain.Telescope, error) {
	q := r.db.WithContext(ctx).Order("name")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}

	var rows []domain.Telescope
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Deactivate is a soft delete: telescopes are never removed so historical
// bookings keep their reference.
func (r *TelescopeRepository) Deactivate(ctx context.Context, id int64) (*domain.Telescope, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Telescope{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
